package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"ralph-xpert/internal/api"
	"ralph-xpert/internal/auth"
	"ralph-xpert/internal/config"
	"ralph-xpert/internal/leads"
	"ralph-xpert/internal/logging"
	"ralph-xpert/internal/store"
	"ralph-xpert/internal/watch"
	"ralph-xpert/internal/whatsapp"
	"ralph-xpert/internal/ws"
)

func main() {
	cfg := config.LoadConfig()

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to open storage", zap.Error(err))
	}
	defer st.Close()

	hub := ws.NewHub(logger, api.OriginChecker(cfg.AllowedOrigins))

	whatsappClient := whatsapp.NewClient(cfg.GraphAPIBase, cfg.WhatsAppToken, cfg.PhoneNumberID)
	whatsappNotifier := &leads.WhatsAppNotifier{
		Sender:           whatsappClient,
		WelcomeMessage:   cfg.WelcomeMessage,
		WelcomeTemplate:  cfg.WelcomeTemplate,
		TemplateLanguage: cfg.TemplateLanguage,
		AdminNumber:      cfg.AdminWhatsApp,
		Logger:           logger,
	}
	if !cfg.WhatsAppEnabled() {
		logger.Info("WhatsApp notifications disabled (WHATSAPP_TOKEN or PHONE_NUMBER_ID missing)")
	}

	svc := leads.NewService(st,
		leads.WithNotifier(leads.MultiNotifier{leads.HubNotifier{Hub: hub}, whatsappNotifier}),
		leads.WithLocation(cfg.Location()),
		leads.WithMemberGoal(cfg.MemberGoal),
		leads.WithLogger(logger),
	)
	authenticator := auth.NewAuthenticator(st, cfg.JWTSecret, cfg.TokenTTL, logger)

	router := api.NewRouter(cfg, api.Deps{
		Leads:  svc,
		Auth:   authenticator,
		Hub:    hub,
		Logger: logger,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})

	if cfg.WatchDataDir && (cfg.StorageDriver == "" || cfg.StorageDriver == config.DriverJSON) {
		watcher, err := watch.New(cfg.DataDir, hub, logger)
		if err != nil {
			logger.Warn("Data directory watcher disabled", zap.Error(err))
		} else {
			g.Go(func() error { return watcher.Run(gctx) })
		}
	}

	g.Go(func() error {
		logger.Info("Server starting", zap.String("port", cfg.Port), zap.String("storage", cfg.StorageDriver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server stopped with error", zap.Error(err))
	}
	whatsappNotifier.Wait()
	logger.Info("Server stopped")
}
