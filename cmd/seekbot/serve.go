package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/seekhealth/seekbot/internal/ai"
	"github.com/seekhealth/seekbot/internal/config"
	"github.com/seekhealth/seekbot/internal/conversation"
	"github.com/seekhealth/seekbot/internal/conversation/flow"
	"github.com/seekhealth/seekbot/internal/db"
	"github.com/seekhealth/seekbot/internal/handlers"
	"github.com/seekhealth/seekbot/internal/logger"
	"github.com/seekhealth/seekbot/internal/media"
	"github.com/seekhealth/seekbot/internal/media/providers/cloudinary"
	"github.com/seekhealth/seekbot/internal/prompt"
	"github.com/seekhealth/seekbot/internal/server"
	"github.com/seekhealth/seekbot/internal/transport"
	"github.com/seekhealth/seekbot/internal/users"
)

func runServe() {
	fx.New(
		fx.Provide(
			provideConfig,
			provideLogger,
			provideDBConn,
			provideUserService,
			provideConversationStore,
			provideComposer,
			provideResponder,
			provideUploader,
			provideMediaRelay,
			provideSender,
			provideDispatcher,
			provideRunner,
			provideServerHandler(handlers.NewPingHandler),
			provideServerHandler(provideWebhookHandler),
			provideServerHandler(provideMessageHandler),
			provideServerHandler(provideChatHandler),
			provideServer,
		),
		fx.Invoke(startServer),
		fx.WithLogger(func(logger *slog.Logger) fxevent.Logger {
			return &fxevent.SlogLogger{Logger: logger.With(slog.String("component", "fx"))}
		}),
	).Run()
}

func provideServerHandler(fn any) any {
	return fx.Annotate(
		fn,
		fx.As(new(server.Handler)),
		fx.ResultTags(`group:"server_handlers"`),
	)
}

func provideConfig() (config.Config, error) {
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func provideLogger(cfg config.Config) *slog.Logger {
	logger.Init(cfg.Log.Level, cfg.Log.Format)
	return logger.L
}

func provideDBConn(lc fx.Lifecycle, cfg config.Config) (*pgxpool.Pool, error) {
	if err := db.Migrate(cfg.Postgres); err != nil {
		return nil, fmt.Errorf("db migrate: %w", err)
	}
	conn, err := db.Open(context.Background(), cfg.Postgres)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}
	lc.Append(fx.Hook{OnStop: func(ctx context.Context) error { conn.Close(); return nil }})
	return conn, nil
}

func provideUserService(log *slog.Logger, pool *pgxpool.Pool) *users.Service {
	return users.NewService(log, pool)
}

func provideConversationStore(log *slog.Logger, pool *pgxpool.Pool) *conversation.Store {
	return conversation.NewStore(log, pool)
}

func provideComposer(cfg config.Config) *prompt.Composer {
	return prompt.NewComposer(cfg.App.SiteURL)
}

func provideResponder(log *slog.Logger, cfg config.Config) (ai.Responder, error) {
	timeout := time.Duration(cfg.Gemini.TimeoutSeconds) * time.Second
	gemini, err := ai.NewGemini(context.Background(), log, cfg.Gemini.APIKey, cfg.Gemini.Model, timeout)
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	return gemini, nil
}

func provideUploader(cfg config.Config) (media.Uploader, error) {
	provider, err := cloudinary.New(
		cfg.Cloudinary.CloudName,
		cfg.Cloudinary.APIKey,
		cfg.Cloudinary.APISecret,
		cfg.Cloudinary.Folder,
	)
	if err != nil {
		return nil, fmt.Errorf("cloudinary client: %w", err)
	}
	return provider, nil
}

func provideMediaRelay(log *slog.Logger, cfg config.Config, uploader media.Uploader) *media.Relay {
	return media.NewRelay(log, uploader, cfg.Twilio.AccountSID, cfg.Twilio.AuthToken)
}

func provideSender(log *slog.Logger, cfg config.Config) *transport.TwilioSender {
	return transport.NewTwilioSender(log, cfg.Twilio.AccountSID, cfg.Twilio.AuthToken, cfg.Twilio.PhoneNumber)
}

func provideDispatcher(log *slog.Logger, sender *transport.TwilioSender) *transport.Dispatcher {
	return transport.NewDispatcher(log, sender)
}

func provideRunner(
	log *slog.Logger,
	cfg config.Config,
	userService *users.Service,
	store *conversation.Store,
	composer *prompt.Composer,
	responder ai.Responder,
	relay *media.Relay,
) *flow.Runner {
	return flow.NewRunner(log, userService, store, composer, responder, relay, cfg.App.BaseURL, cfg.App.HistoryLimit)
}

func provideWebhookHandler(log *slog.Logger, runner *flow.Runner, dispatcher *transport.Dispatcher) *handlers.WebhookHandler {
	return handlers.NewWebhookHandler(log, runner, dispatcher)
}

func provideMessageHandler(log *slog.Logger, runner *flow.Runner) *handlers.MessageHandler {
	return handlers.NewMessageHandler(log, runner)
}

func provideChatHandler(log *slog.Logger, store *conversation.Store) *handlers.ChatHandler {
	return handlers.NewChatHandler(log, store)
}

type serverParams struct {
	fx.In

	Config   config.Config
	Logger   *slog.Logger
	Handlers []server.Handler `group:"server_handlers"`
}

func provideServer(params serverParams) *server.Server {
	return server.NewServer(params.Config.Server.Addr, params.Logger, params.Handlers...)
}

func startServer(lc fx.Lifecycle, logger *slog.Logger, srv *server.Server, shutdowner fx.Shutdowner, cfg config.Config) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Info("starting server", slog.String("addr", cfg.Server.Addr))
			go func() {
				if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("server failed", slog.Any("error", err))
					_ = shutdowner.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if err := srv.Stop(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server stop: %w", err)
			}
			return nil
		},
	})
}
