package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/mr-tron/base58"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/cannedoxygen/trench-transparency-terminal/internal/analyzer"
	"github.com/cannedoxygen/trench-transparency-terminal/internal/cache"
	"github.com/cannedoxygen/trench-transparency-terminal/internal/config"
	"github.com/cannedoxygen/trench-transparency-terminal/internal/live"
	"github.com/cannedoxygen/trench-transparency-terminal/internal/observability"
	"github.com/cannedoxygen/trench-transparency-terminal/internal/provider"
	"github.com/cannedoxygen/trench-transparency-terminal/internal/summary"
)

const solanaAddressBytes = 32

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMicro
	log.Logger = zerolog.New(os.Stdout).With().
		Timestamp().
		Str("service", "ttt-api").
		Logger()

	log.Info().Msg("Trench Transparency Terminal - Starting")

	configPath := os.Getenv("TTT_CONFIG")
	if configPath == "" {
		configPath = "config/config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if level, err := zerolog.ParseLevel(cfg.General.LogLevel); err == nil && cfg.General.LogLevel != "" {
		zerolog.SetGlobalLevel(level)
	}

	log.Info().
		Str("instance_id", cfg.General.InstanceID).
		Str("environment", cfg.General.Environment).
		Str("listen_addr", cfg.Server.ListenAddr).
		Bool("cache", cfg.Cache.Enabled).
		Bool("live", cfg.Live.Enabled).
		Msg("Configuration loaded")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Warn().Str("signal", sig.String()).Msg("Shutdown signal received")
		cancel()
	}()

	client := provider.NewHTTPClient(cfg.Provider)

	var store cache.Store
	if cfg.Cache.Enabled {
		redisStore, err := cache.NewRedisStore(ctx, cfg.Cache)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to cache")
		}
		store = redisStore
	} else {
		log.Info().Msg("Cache disabled, using in-process store")
		store = cache.NewMemory()
	}
	defer store.Close()

	service := analyzer.New(client, store, summary.New(cfg.Summary, log.Logger), log.Logger)

	monitor := live.NewMonitor(client, cfg.Live.SweepInterval, cfg.Live.WindowSeconds, log.Logger)
	if cfg.Live.Enabled {
		if err := monitor.Start(); err != nil {
			log.Fatal().Err(err).Msg("Failed to start live monitor")
		}
		defer monitor.Stop()
	}

	metrics := observability.ServiceMetrics()
	health := observability.NewChecker()
	health.Register("cache", cacheHealthCheck(store))

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/healthz", func(c *gin.Context) {
		report := health.Check(c.Request.Context())
		status := http.StatusOK
		if report.Status == observability.StatusUnhealthy {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, report)
	})
	router.GET("/metrics", gin.WrapH(observability.NewPrometheusExporter(metrics)))
	router.GET("/analyze/:mint", handleAnalyze(service, monitor, metrics, cfg.Live.Enabled))
	router.GET("/reputation/:address", handleReputation(service, metrics))
	router.GET("/live/:mint", handleLiveStream(monitor, metrics))

	srv := &http.Server{Addr: cfg.Server.ListenAddr, Handler: router}
	go func() {
		log.Info().Str("addr", cfg.Server.ListenAddr).Msg("API listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("API server failed")
			cancel()
		}
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown failed")
	}
	log.Info().Msg("Trench Transparency Terminal - Shutdown complete")
}

// validAddress checks that the input decodes as a 32-byte base58 key.
func validAddress(address string) bool {
	decoded, err := base58.Decode(address)
	return err == nil && len(decoded) == solanaAddressBytes
}

// cacheHealthCheck probes the cache store with a read of a key that is
// never written. A transport error marks the component unhealthy.
func cacheHealthCheck(store cache.Store) observability.HealthCheck {
	return func(ctx context.Context) observability.ComponentHealth {
		if _, _, err := store.Get(ctx, "healthz:probe"); err != nil {
			return observability.ComponentHealth{
				Status:  observability.StatusUnhealthy,
				Message: err.Error(),
			}
		}
		return observability.ComponentHealth{Status: observability.StatusHealthy}
	}
}

func handleAnalyze(service *analyzer.Service, monitor *live.Monitor, metrics *observability.Registry, liveEnabled bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		mint := c.Param("mint")
		if !validAddress(mint) {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid mint address"})
			return
		}

		start := time.Now()
		report, cached, err := service.Analyze(c.Request.Context(), mint)
		if err != nil {
			metrics.GetCounter(observability.MetricAnalysisFailures).Inc()
			log.Error().Err(err).Str("mint", mint).Msg("Analysis failed")
			c.JSON(http.StatusBadGateway, gin.H{"success": false, "error": "analysis failed"})
			return
		}
		metrics.GetCounter(observability.MetricAnalysesTotal).Inc()
		metrics.GetHistogram(observability.MetricAnalysisDuration).Observe(float64(time.Since(start).Milliseconds()))
		if cached {
			metrics.GetCounter(observability.MetricAnalysisCacheHit).Inc()
		}

		if liveEnabled && !cached {
			var holderAddrs []string
			if report.Holders != nil {
				for _, h := range report.Holders.TopHolders {
					holderAddrs = append(holderAddrs, h.Address)
				}
			}
			monitor.Watch(mint, report.Deployer.Address, holderAddrs, report.RiskScore.Score)
			metrics.GetGauge(observability.MetricWatchedMints).Inc()
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "data": report, "cached": cached})
	}
}

func handleReputation(service *analyzer.Service, metrics *observability.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		address := c.Param("address")
		if !validAddress(address) {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid wallet address"})
			return
		}
		metrics.GetCounter(observability.MetricReputationTotal).Inc()
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"data":    service.Reputation(c.Request.Context(), address),
		})
	}
}

// handleLiveStream upgrades to a websocket and pushes live risk updates
// for one mint until the client disconnects.
func handleLiveStream(monitor *live.Monitor, metrics *observability.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		mint := c.Param("mint")
		if !validAddress(mint) {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid mint address"})
			return
		}
		if _, ok := monitor.State(mint); !ok {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "mint is not being monitored"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Debug().Err(err).Msg("Websocket upgrade failed")
			return
		}
		defer conn.Close()

		updates, unsubscribe := monitor.Subscribe()
		defer unsubscribe()

		// Drain client frames so close/ping handling works.
		done := make(chan struct{})
		go func() {
			defer close(done)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		if state, ok := monitor.State(mint); ok {
			if err := conn.WriteJSON(live.Update{Mint: mint, State: state}); err != nil {
				return
			}
		}

		for {
			select {
			case <-done:
				return
			case update, ok := <-updates:
				if !ok {
					return
				}
				if update.Mint != mint {
					continue
				}
				if err := conn.WriteJSON(update); err != nil {
					return
				}
				metrics.GetCounter(observability.MetricLiveUpdatesTotal).Inc()
			}
		}
	}
}
