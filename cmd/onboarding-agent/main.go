// cmd/onboarding-agent/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"provider-onboarding/internal/backend"
	"provider-onboarding/internal/common/config"
	"provider-onboarding/internal/common/database"
	"provider-onboarding/internal/common/logger"
	"provider-onboarding/internal/docrules"
	"provider-onboarding/internal/leads"
	"provider-onboarding/internal/models"
	"provider-onboarding/internal/otp"
	"provider-onboarding/internal/resolution"
	"provider-onboarding/internal/session"
	"provider-onboarding/internal/workflow"
)

func main() {
	bootLog := logger.New("info", "console")
	bootLog.Info("Starting onboarding agent...")

	cfg, err := config.Load()
	if err != nil {
		bootLog.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// --- Document rule table ---
	rules := docrules.Default()
	if cfg.Onboarding.DocRulesPath != "" {
		rules, err = docrules.Load(cfg.Onboarding.DocRulesPath)
		if err != nil {
			zapLog.Fatal("doc rules load failed", zap.Error(err))
		}
		zapLog.Info("Document rules loaded", zap.String("path", cfg.Onboarding.DocRulesPath))
	}

	// --- Backend client ---
	client, err := backend.NewClient(cfg.Backend, log)
	if err != nil {
		zapLog.Fatal("backend client init failed", zap.Error(err))
	}
	zapLog.Info("Backend client initialized", zap.String("baseUrl", cfg.Backend.BaseURL))

	// --- OTP store: Redis when configured, in-memory otherwise ---
	var codeStore otp.CodeStore
	if cfg.Redis.Address != "" {
		redisClient, redisErr := database.NewRedis(cfg.Redis)
		if redisErr == nil {
			redisErr = redisClient.Ping(ctx)
		}
		if redisErr != nil {
			zapLog.Warn("redis unavailable, falling back to in-memory OTP store", zap.Error(redisErr))
		} else {
			defer redisClient.Close()
			codeStore = otp.NewRedisStore(redisClient)
			zapLog.Info("Redis connected successfully", zap.String("address", cfg.Redis.Address))
		}
	}

	otpService, err := otp.NewService(&otp.Config{
		Length:      cfg.Onboarding.OTPLength,
		TTL:         time.Duration(cfg.Onboarding.OTPTTLMinutes) * time.Minute,
		MaxAttempts: cfg.Onboarding.OTPMaxAttempts,
		TestCode:    cfg.Onboarding.OTPTestCode,
	}, codeStore, log)
	if err != nil {
		zapLog.Fatal("otp service init failed", zap.Error(err))
	}

	// Delivery is out of scope; the code is shown on the terminal the way
	// the test backend would send it.
	deliver := func(_ context.Context, phone, code string) {
		fmt.Printf("  [sms to %s] Your verification code is %s\n", phone, code)
	}

	resolver := resolution.NewResolver(client, rules, log)
	engine := workflow.NewEngine(otpService, resolver, client, rules, deliver, log)
	holder := session.NewHolder()

	// --- Metrics Server ---
	if cfg.Metrics.Enabled {
		go func() {
			mux := http.NewServeMux()
			mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusOK)
				json.NewEncoder(w).Encode(map[string]string{
					"status": "healthy",
					"time":   time.Now().Format(time.RFC3339),
				})
			})
			mux.Handle("/metrics", promhttp.Handler())
			zapLog.Info("Health/Metrics server listening", zap.String("address", cfg.Metrics.Address))
			if err := http.ListenAndServe(cfg.Metrics.Address, mux); err != nil {
				zapLog.Error("Health/Metrics server failed", zap.Error(err))
			}
		}()
	}

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		zapLog.Info("Shutdown signal received")
		cancel()
	}()

	// --- Onboarding wizard ---
	w := newWizard(engine, rules, os.Stdin, os.Stdout)
	if err := w.run(ctx); err != nil {
		zapLog.Fatal("onboarding aborted", zap.Error(err))
	}

	sess, ok := engine.Session()
	if !ok {
		zapLog.Info("Onboarding not completed, exiting")
		return
	}
	holder.Set(sess)
	tech := sess.Technician()
	zapLog.Info("Session established",
		zap.Int64("technicianId", tech.ID),
		zap.String("category", tech.Category),
	)

	// Push token registration is a thin pass-through; the token itself
	// comes from the device layer.
	if token := os.Getenv("PUSH_TOKEN"); token != "" {
		id := tech.ID
		if err := client.RegisterPushToken(ctx, &id, token); err != nil {
			zapLog.Warn("push token registration failed", zap.Error(err))
		}
	}

	// --- Leads ---
	category, err := models.ParseCategory(tech.Category)
	if err != nil {
		category, err = models.ParseCategory(cfg.Leads.Category)
		if err != nil {
			zapLog.Fatal("no usable leads category", zap.Error(err))
		}
	}

	poller := leads.NewPoller(client, category, tech.ID, config.GetDuration(cfg.Leads.PollInterval), log)
	go poller.Run(ctx)

	if err := w.tailLeads(ctx, poller); err != nil && ctx.Err() == nil {
		zapLog.Error("leads loop failed", zap.Error(err))
	}

	holder.Clear()
	zapLog.Info("Onboarding agent stopped gracefully")
}
