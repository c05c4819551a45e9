package convert

import (
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// FormatAmount renders a conversion result for chat display. Values of one
// and above get grouped thousands with two decimals; smaller values keep two
// significant digits after the leading zeros, with trailing zeros trimmed.
func FormatAmount(v float64) string {
	if v >= 1 {
		return printer.Sprintf("%.2f", v)
	}

	s := strings.TrimRight(strconv.FormatFloat(v, 'f', 10, 64), "0")
	_, decimals, _ := strings.Cut(s, ".")
	zeros := len(decimals) - len(strings.TrimLeft(decimals, "0"))

	out := strconv.FormatFloat(v, 'f', zeros+2, 64)
	out = strings.TrimRight(out, "0")
	return strings.TrimRight(out, ".")
}
