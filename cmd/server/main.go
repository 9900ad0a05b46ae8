package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/DoyleJ11/trivia-rooms/internal/config"
	"github.com/DoyleJ11/trivia-rooms/internal/httpapi"
	"github.com/DoyleJ11/trivia-rooms/internal/hub"
	"github.com/DoyleJ11/trivia-rooms/internal/publish"
	"github.com/DoyleJ11/trivia-rooms/internal/questions"
	"github.com/DoyleJ11/trivia-rooms/internal/ws"
)

func main() {
	envErr := config.LoadDotEnv(".env")
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log, err := newLogger(cfg.Debug)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()
	if envErr != nil {
		log.Warn("failed to load .env", zap.Error(envErr))
	}

	if err := run(cfg, log); err != nil {
		log.Fatal("server exited", zap.Error(err))
	}
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func run(cfg config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	src, err := buildSource(cfg, log)
	if err != nil {
		return err
	}

	var pub publish.Publisher = publish.Nop{}
	if cfg.NATSURL != "" {
		nc, err := publish.Connect(cfg.NATSURL, cfg.NATSSubjectPrefix, log)
		if err != nil {
			return err
		}
		pub = nc
		log.Info("mirroring room events to NATS", zap.String("prefix", cfg.NATSSubjectPrefix))
	}
	defer pub.Close()

	conns := ws.NewManager(log)
	h := hub.NewHub(ctx, hub.Options{
		Source:            src,
		Out:               conns,
		Publisher:         pub,
		Logger:            log,
		Settings:          cfg.GameSettings(),
		GenerationTimeout: cfg.GenerationTimeout,
		RoomTTL:           cfg.RoomTTL,
		SweepInterval:     cfg.SweepInterval,
	})

	srv := &http.Server{
		Addr: cfg.Addr(),
		Handler: httpapi.SetupRoutes(httpapi.Deps{
			Hub:            h,
			Conns:          conns,
			Logger:         log,
			AllowedOrigins: cfg.AllowedOrigins,
			PublicURL:      cfg.PublicURL,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("listening", zap.String("addr", srv.Addr), zap.Strings("origins", cfg.AllowedOrigins))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		select {
		case h.Inbox() <- hub.ShutdownHub{}:
		case <-h.Done():
		}
		<-h.Done()
		return err
	})
	return g.Wait()
}

// buildSource layers the configured question sources: the Postgres cache in
// front of OpenAI, with the YAML bank as fallback.
func buildSource(cfg config.Config, log *zap.Logger) (questions.Source, error) {
	var bank *questions.Bank
	if cfg.QuestionBankPath != "" {
		b, err := questions.LoadBank(cfg.QuestionBankPath)
		if err != nil {
			return nil, err
		}
		bank = b
		log.Info("loaded question bank", zap.String("path", cfg.QuestionBankPath), zap.Strings("topics", b.Topics()))
	}

	cs := &questions.CachingSource{Logger: log.Named("questions")}
	if bank != nil {
		cs.Fallback = bank
	}
	if cfg.OpenAIAPIKey != "" {
		cs.Generator = questions.NewOpenAI(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL)
	}
	if cfg.DatabaseURL != "" {
		conn, err := questions.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := questions.Migrate(conn); err != nil {
			return nil, err
		}
		cs.Cache = questions.NewStore(conn)
		log.Info("question cache enabled")
	}

	if cs.Generator == nil && cs.Cache == nil && bank == nil {
		log.Warn("no question source configured; every topic pick will fail")
	}
	return cs, nil
}
