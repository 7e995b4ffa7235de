package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/zhouzirui/saint-chat/backend/internal/config"
	"github.com/zhouzirui/saint-chat/backend/internal/handler"
	"github.com/zhouzirui/saint-chat/backend/internal/model/persona"
	"github.com/zhouzirui/saint-chat/backend/internal/service/ai"
	"github.com/zhouzirui/saint-chat/backend/internal/service/chat"
	"github.com/zhouzirui/saint-chat/backend/internal/service/greeting"
)

func main() {
	if err := newRootCommand().ExecuteContext(context.Background()); err != nil {
		log.Error().Err(err).Msg("server exited")
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var (
		addr     string
		mock     bool
		logLevel string
	)

	cmd := &cobra.Command{
		Use:          "saint-chat",
		Short:        "Serve the spiritual guide chat and stream model replies over SSE",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Load .env file
			if err := godotenv.Load(); err != nil {
				log.Debug().Err(err).Msg("no .env file loaded, continuing with system environment variables only")
			}

			cfg, err := config.Load()
			if err != nil {
				return errors.Wrap(err, "load configuration")
			}

			flags := cmd.Flags()
			if flags.Changed("addr") {
				if cfg.Server.Addr, err = config.ParseAddr(addr); err != nil {
					return errors.Wrap(err, "parse --addr")
				}
			}
			if flags.Changed("mock") {
				cfg.Chat.Mock = mock
			}
			if flags.Changed("log-level") {
				cfg.Server.LogLevel = logLevel
			}

			if err := setupLogging(cfg.Server.LogLevel); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return run(ctx, cfg)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "HTTP listen address (overrides PORT)")
	cmd.Flags().BoolVar(&mock, "mock", false, "echo messages back instead of calling the model (overrides CHAT_MOCK)")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error (overrides LOG_LEVEL)")

	return cmd
}

func setupLogging(level string) error {
	parsed, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return errors.Wrapf(err, "invalid log level %q", level)
	}
	zerolog.SetGlobalLevel(parsed)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	return nil
}

// completer is what both the streamer and the greeting seeder need from a model.
type completer interface {
	chat.Completer
	greeting.Source
}

func run(ctx context.Context, cfg *config.Config) error {
	guide := persona.Default()
	systemPrompt := ai.BuildSystemPrompt(ai.DefaultTemplate(), guide)
	store := chat.NewStore()

	var (
		streamer *chat.Streamer
		source   completer
	)
	if cfg.Chat.Mock {
		echo := chat.NewEcho(cfg.Chat.MockDelay, guide.OpeningLine)
		streamer = chat.NewMockStreamer(echo, store)
		source = echo
		log.Info().Dur("delay", cfg.Chat.MockDelay).Msg("mock strategy enabled, model calls disabled")
	} else {
		live := newLiveCompleter(ctx, cfg, systemPrompt)
		streamer = chat.NewLiveStreamer(live, store)
		source = live
	}

	seeder := greeting.NewSeeder(source, greeting.Fallback, cfg.Chat.GreetingTimeout)

	router := handler.NewRouter(handler.Dependencies{
		Persona:  guide,
		Streamer: streamer,
		Store:    store,
		Greeting: seeder,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		seeder.Run(gctx)
		return nil
	})
	g.Go(func() error {
		return startServer(gctx, cfg.Server, router)
	})
	return g.Wait()
}

// newLiveCompleter never fails: without a usable model every completion
// reports the configuration error inline.
func newLiveCompleter(ctx context.Context, cfg *config.Config, systemPrompt string) completer {
	svc, err := ai.NewService(ctx, cfg.AI, ai.Options{
		SystemPrompt: systemPrompt,
		HistoryLimit: cfg.Chat.HistoryLimit,
	})
	if err != nil {
		log.Warn().Err(err).Msg("AI service unavailable, replies will carry the error")
		return ai.Unavailable{Err: err}
	}

	log.Info().Str("model", cfg.AI.Model).Str("base_url", cfg.AI.BaseURL).Msg("AI service initialized successfully")
	return svc
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) error {
	srv := &http.Server{
		Addr:              serverCfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Info().Str("addr", serverCfg.Addr).Msg("saint chat listening")
	return runServer(ctx, srv)
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrap(err, "listen")
	}
}
