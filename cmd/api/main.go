package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/zhouzirui/cleantech-assistant/backend/internal/config"
	"github.com/zhouzirui/cleantech-assistant/backend/internal/handler"
	"github.com/zhouzirui/cleantech-assistant/backend/internal/logging"
	"github.com/zhouzirui/cleantech-assistant/backend/internal/service/ai"
	"github.com/zhouzirui/cleantech-assistant/backend/internal/service/chat"
	"github.com/zhouzirui/cleantech-assistant/backend/internal/service/openai"
	"github.com/zhouzirui/cleantech-assistant/backend/internal/service/rules"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	logging.Setup(cfg.Log, os.Stderr)

	if envErr != nil {
		log.Debug().Err(envErr).Msg("no .env file loaded, using process environment only")
	}

	responder, err := buildResponder(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("responder", cfg.Responder.Kind).Msg("failed to initialize responder")
	}
	log.Info().Str("responder", responder.Name()).Msg("responder initialized")

	chatService := chat.NewService(responder)
	router := handler.NewRouter(chatService)

	if err := startServer(ctx, cfg.Server, router); err != nil {
		log.Fatal().Err(err).Msg("server error")
	}
}

func buildResponder(ctx context.Context, cfg *config.Config) (chat.Responder, error) {
	switch cfg.Responder.Kind {
	case config.ResponderRules:
		return rules.New(rules.WithDelay(cfg.Rules.Delay)), nil
	case config.ResponderOpenAI:
		return openai.NewResponder(cfg.OpenAI)
	case config.ResponderArk:
		return ai.NewService(ctx, cfg.AI)
	default:
		return nil, fmt.Errorf("unknown responder %q", cfg.Responder.Kind)
	}
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) error {
	srv := &http.Server{
		Addr:              serverCfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Info().Str("addr", srv.Addr).Msg("cleantech assistant backend listening")
	return runServer(ctx, srv)
}

func runServer(ctx context.Context, srv *http.Server) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
