package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Vozter/TakoNautBot/internal/config"
	"github.com/Vozter/TakoNautBot/internal/rates"
	"github.com/Vozter/TakoNautBot/internal/scheduler"
	"github.com/Vozter/TakoNautBot/internal/store"
	"github.com/Vozter/TakoNautBot/internal/telegram"
)

// App wires the bot, storage, rate cache, router and polling loops.
type App struct {
	cfg     config.Config
	log     *zap.Logger
	bot     *tgbotapi.BotAPI
	httpSrv *http.Server
}

// New connects to the Telegram API and prepares the health/metrics server.
func New(cfg config.Config, log *zap.Logger) (*App, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, err
	}
	bot.Debug = false

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      mux,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}

	return &App{cfg: cfg, log: log, bot: bot, httpSrv: srv}, nil
}

// Run starts every component and blocks until a shutdown signal or a fatal
// component error.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a.log.Info("starting takonaut-bot",
		zap.String("http", a.cfg.HTTPAddr),
		zap.String("default_tz", a.cfg.DefaultTZ),
	)

	repo, err := store.OpenSQLite(ctx, a.cfg.DBPath, a.cfg.DefaultTZ)
	if err != nil {
		return err
	}
	defer func() { _ = repo.Close() }()
	a.log.Info("sqlite ready", zap.String("path", a.cfg.DBPath))

	rateCache := rates.New(a.cfg.RatesAppID, a.cfg.RatesCachePath, a.log)
	if err := rateCache.Refresh(ctx); err != nil {
		// Conversions keep failing cleanly until the next hourly attempt.
		a.log.Warn("initial rates fetch failed", zap.Error(err))
	}

	router, err := telegram.NewRouter(a.bot, a.log, repo, rateCache, a.cfg)
	if err != nil {
		return err
	}
	sched := scheduler.New(repo, a.log, router, a.cfg.DeliveryInterval, a.cfg.RecurrenceInterval)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := a.httpSrv.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		<-ctx.Done()
		shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.httpSrv.Shutdown(shCtx); err != nil {
			a.log.Warn("http server shutdown error", zap.Error(err))
		}
		return nil
	})

	g.Go(func() error {
		sched.RunDelivery(ctx)
		return nil
	})
	g.Go(func() error {
		sched.RunRecurrence(ctx)
		return nil
	})
	g.Go(func() error {
		rateCache.Run(ctx)
		return nil
	})

	g.Go(func() error {
		u := tgbotapi.NewUpdate(0)
		u.Timeout = 30
		updCh := a.bot.GetUpdatesChan(u)
		for {
			select {
			case <-ctx.Done():
				a.log.Info("shutdown signal received")
				a.bot.StopReceivingUpdates()
				return nil
			case upd := <-updCh:
				router.HandleUpdate(ctx, upd)
			}
		}
	})

	return g.Wait()
}
