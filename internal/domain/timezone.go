package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrUnknownZone = errors.New("unknown timezone")

// NormalizeZone canonicalizes user input like "asia/tokyo" or
// "america/new_york" into an IANA zone name and validates it against the
// zone database. Input that already names a zone is kept verbatim, so
// abbreviations like "UTC" survive.
func NormalizeZone(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("%w: empty name", ErrUnknownZone)
	}
	if _, err := time.LoadLocation(s); err == nil {
		return s, nil
	}

	segs := strings.Split(s, "/")
	for i, seg := range segs {
		words := strings.Split(seg, "_")
		for j, w := range words {
			if w == "" {
				continue
			}
			words[j] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
		}
		segs[i] = strings.Join(words, "_")
	}
	name := strings.Join(segs, "/")
	if _, err := time.LoadLocation(name); err != nil {
		return "", fmt.Errorf("%w: %q", ErrUnknownZone, s)
	}
	return name, nil
}
