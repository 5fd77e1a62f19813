package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"roi_advisor/pkg/api/advisor"
	"roi_advisor/pkg/api/config"
	apiROI "roi_advisor/pkg/api/roi"
	"roi_advisor/pkg/core/agent"
	appconfig "roi_advisor/pkg/core/config"
	"roi_advisor/pkg/core/logging"
	"roi_advisor/pkg/core/metrics"
	"roi_advisor/pkg/core/narrative"
	"roi_advisor/pkg/core/prompt"
	"roi_advisor/pkg/core/ratelimit"
	"roi_advisor/pkg/core/store"
)

func main() {
	// Load environment variables
	_ = godotenv.Load()

	cfg, err := appconfig.Load(os.Getenv("ROI_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "[FATAL] %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.App.LogLevel, false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[FATAL] %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *appconfig.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Prompt library (relative to working directory, then executable)
	resourcesPath := cfg.App.ResourcesDir
	if _, err := os.Stat(resourcesPath); os.IsNotExist(err) {
		exePath, _ := os.Executable()
		resourcesPath = filepath.Join(filepath.Dir(exePath), "resources")
	}
	if err := prompt.LoadFromDirectory(resourcesPath); err != nil {
		logger.Warn("prompt library not loaded, using built-in prompts", zap.Error(err))
	} else {
		logger.Info("prompt library loaded", zap.Int("prompts", prompt.Get().Count()), zap.String("path", resourcesPath))
	}

	agentCfg, err := agent.LoadConfig(cfg.App.ModelsFile)
	if err != nil {
		return err
	}
	agentMgr := agent.NewManager(agentCfg, logger.Named("agent"))

	var cache narrative.Cache
	if cfg.Narrative.CacheEnabled {
		if cfg.Database.URL != "" {
			if err := store.InitDB(ctx, cfg.Database.URL); err != nil {
				logger.Warn("database unavailable, falling back to file cache", zap.Error(err))
			}
			defer store.Close()
		}
		nc, err := store.NewNarrativeCache(store.GetPool(), cfg.Narrative.CacheDir, cfg.Narrative.CacheTTL)
		if err != nil {
			logger.Warn("narrative cache disabled", zap.Error(err))
		} else {
			cache = nc
		}
	}

	m := metrics.New()
	adv := narrative.NewAdvisor(agentMgr, cache, logger.Named("narrative"))

	mux := http.NewServeMux()

	configHandler := config.NewHandler(agentMgr)
	mux.HandleFunc("/api/config", configHandler.HandleConfig)
	mux.HandleFunc("/api/config/switch", configHandler.HandleSwitch)

	roiHandler := apiROI.NewHandler(m, cfg.App.SensitivitySwing, logger.Named("roi"))
	mux.HandleFunc("/api/roi/calculate", roiHandler.HandleCalculate)

	advisorHandler := advisor.NewHandler(adv, m, logger.Named("advisor"), cfg.App.SensitivitySwing, cfg.Narrative.Timeout)
	var analysis http.Handler = http.HandlerFunc(advisorHandler.HandleAnalysis)
	if cfg.RateLimit.RequestsPerMinute > 0 {
		limiter := ratelimit.NewKeyed(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst, 10*time.Minute)
		if err := limiter.TrustProxies(cfg.RateLimit.TrustedProxies...); err != nil {
			logger.Fatal("Invalid rate_limit.trusted_proxies", zap.Error(err))
		}
		analysis = limiter.Middleware(analysis, func(r *http.Request) {
			m.ObserveNarrative(metrics.OutcomeLimited, 0)
		})
		go sweep(ctx, limiter)
	}
	mux.Handle("/api/roi/analysis", analysis)

	mux.Handle("/metrics", m.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      mux,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("API server starting",
			zap.String("addr", cfg.Server.Addr),
			zap.String("provider", agentMgr.GetActiveProvider()),
			zap.Bool("cache", cache != nil))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func sweep(ctx context.Context, limiter *ratelimit.KeyedLimiter) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			limiter.Sweep()
		}
	}
}
