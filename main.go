package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"evento-companion/internal/api"
	"evento-companion/internal/chat"
	"evento-companion/internal/config"
	"evento-companion/internal/draft"
	"evento-companion/internal/geocode"
	"evento-companion/internal/handlers"
	"evento-companion/internal/logger"
	"evento-companion/internal/middleware"
	"evento-companion/internal/observability"
	"evento-companion/internal/rabbitmq"
	"evento-companion/internal/session"
	"evento-companion/internal/storage"
	"evento-companion/internal/telemetry"
	"evento-companion/internal/wizard"
	"evento-companion/internal/ws"
)

func main() {
	cfg := config.Load()

	zlog, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer zlog.Sync()

	shutdownTracing, err := observability.InitTracing(context.Background(), cfg.Tracing.OTLPEndpoint, cfg.Tracing.ServiceName)
	if err != nil {
		zlog.Fatal("failed to init tracing", zap.Error(err))
	}

	store, err := storage.Open(cfg.Store.Driver, cfg.Store.DSN)
	if err != nil {
		zlog.Fatal("failed to open local store", zap.String("driver", cfg.Store.Driver), zap.Error(err))
	}
	defer store.Close()

	publisher := rabbitmq.NewPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange, zlog)
	defer publisher.Close()
	observability.SetPublisher(publisher)
	zlog.Info("audit publisher ready",
		zap.String("mode", rabbitmq.PublisherMode(publisher)),
		zap.String("noop_reason", rabbitmq.PublisherNoopReason(publisher)),
	)
	auditEmitter := telemetry.NewAuditEmitter(publisher, cfg.AMQP.RoutingKey, cfg.Tracing.ServiceName, cfg.Environment, zlog)

	sessions := session.NewManager(store, zlog)
	backend := api.NewClient(cfg.Backend.APIURL, sessions, zlog,
		api.WithRequestTimeout(cfg.Backend.RequestTimeout),
		api.WithSubmitTimeout(cfg.Backend.SubmitTimeout),
	)
	geocoder := geocode.NewClient(cfg.Geocoder.URL, cfg.Geocoder.APIKey, zlog)

	eventWizard := wizard.New(draft.NewStore(store), backend, backend, zlog, wizard.WithAuditor(auditEmitter))

	hub := ws.NewHub(zlog)
	chats := chat.NewManager(backend, chat.NewWSDialer(cfg.Backend.PushURL, zlog), sessions, zlog, chat.WithListener(hub.Publish))
	defer chats.CloseAll()

	if cfg.Environment != "local" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(cfg.Tracing.ServiceName))
	router.Use(middleware.RequestID())
	router.Use(observability.HTTPMetricsMiddleware())

	secret, err := localSecret(cfg)
	if err != nil {
		zlog.Fatal("failed to prepare local client secret", zap.Error(err))
	}
	zlog.Info("local client secret ready", zap.String("file", cfg.Server.SecretFile), zap.Strings("ui_origins", cfg.Server.UIOrigins))
	local := router.Group("/", middleware.LocalClient(secret, cfg.Server.UIOrigins))

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	handlers.Register(local, handlers.Routes{
		Session:   handlers.NewSessionHandler(sessions, chats, zlog),
		Wizard:    handlers.NewWizardHandler(eventWizard, geocoder, zlog),
		Discovery: handlers.NewDiscoveryHandler(backend, sessions, zlog),
		Chat:      handlers.NewChatHandler(chats, zlog),
		Timeline:  ws.NewTimelineWebSocketHandler(hub, chats, zlog, cfg.Server.UIOrigins).Handle,
	}, middleware.AuthGuard(sessions))
	handlers.RegisterDebugRoutes(local, auditEmitter, cfg.DebugRoutes)

	srv := &http.Server{
		Addr:         "127.0.0.1:" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		zlog.Info("companion listening", zap.String("addr", srv.Addr), zap.String("backend", cfg.Backend.APIURL))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zlog.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		zlog.Error("server shutdown failed", zap.Error(err))
	}
	if err := shutdownTracing(ctx); err != nil {
		zlog.Error("tracing shutdown failed", zap.Error(err))
	}
}

// localSecret returns the configured secret or generates one and writes it
// where the UI launcher can read it.
func localSecret(cfg *config.Config) (string, error) {
	if cfg.Server.LocalSecret != "" {
		return cfg.Server.LocalSecret, nil
	}
	secret := middleware.NewLocalSecret()
	if err := os.WriteFile(cfg.Server.SecretFile, []byte(secret), 0o600); err != nil {
		return "", err
	}
	return secret, nil
}
