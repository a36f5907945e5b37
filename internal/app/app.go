package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"example.com/rps-mvp/internal/config"
	"example.com/rps-mvp/internal/game"
)

type App struct {
	cfg config.Config
	log *slog.Logger

	matches *game.MatchService
	srv     *http.Server
}

func New(cfg config.Config, log *slog.Logger) *App {
	if log == nil {
		log = slog.Default()
	}

	var reporter game.Reporter = game.NopReporter{}
	if cfg.Report.URL != "" {
		reporter = game.NewWebhookReporter(cfg.Report.URL, cfg.Report.Secret, cfg.Report.Timeout, log)
	}

	gameCfg := game.Config{
		MaxScore:        cfg.Game.MaxScore,
		WagerAmount:     cfg.Game.WagerAmount,
		CountdownTicks:  cfg.Game.CountdownTicks,
		ChoiceTicks:     cfg.Game.ChoiceTicks,
		InterRoundTicks: cfg.Game.InterRoundTicks,
		GraceTicks:      cfg.Game.GraceTicks,
		TickInterval:    cfg.Game.TickInterval,
	}
	sched := game.NewScheduler(clockwork.NewRealClock())
	matchSvc := game.NewMatchService(gameCfg, sched, game.CryptoRandom{}, reporter, log)
	gameSrv := game.NewServer(matchSvc, log)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	gameSrv.RegisterRoutes(mux)

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           mux,
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
		IdleTimeout:       cfg.HTTP.IdleTimeout,
	}

	return &App{cfg: cfg, log: log, matches: matchSvc, srv: srv}
}

func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	a.log.Info("http server starting", "addr", a.cfg.HTTP.Addr)

	g.Go(func() error {
		err := a.srv.ListenAndServe()
		if err == nil || errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.HTTP.ShutdownTimeout)
		defer cancel()
		a.log.Info("http server shutting down")
		_ = a.srv.Shutdown(shutdownCtx)
		return nil
	})

	err := g.Wait()
	a.matches.Shutdown()
	return err
}
