package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"crypto-lens/internal/bot"
	"crypto-lens/internal/cache"
	"crypto-lens/internal/classifier"
	"crypto-lens/internal/config"
	"crypto-lens/internal/domain"
	"crypto-lens/internal/handler"
	"crypto-lens/internal/job"
	"crypto-lens/internal/provider"
	"crypto-lens/internal/service"
	"crypto-lens/pkg/logging"
	"crypto-lens/pkg/metrics"
	"crypto-lens/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/trace"
)

var (
	loadEnvFunc              = godotenv.Load
	loadConfigFunc           = config.Load
	initLoggingFunc          = logging.Init
	initRedisFunc            = cache.InitRedis
	initTracerFunc           = tracing.InitTracer
	newMarketFeedFunc        = newMarketFeed
	newClassifierBackendFunc = newClassifierBackend
	newFileSourceFunc        = func(tracer trace.Tracer, timeout time.Duration) service.FileOpener {
		return provider.NewFileSource(tracer, timeout)
	}
	startWarmerFunc        = func(w *job.CacheWarmer, ctx context.Context) { go w.Start(ctx) }
	startTelegramBotFunc   = bot.StartTelegramBot
	newRouterFunc          = gin.Default
	setupSignalNotify      = signal.Notify
	waitForSignalFunc      = func(quit <-chan os.Signal) { <-quit }
	startHTTPServerFunc    = func(srv *http.Server) error { return srv.ListenAndServe() }
	shutdownHTTPServerFunc = func(srv *http.Server, ctx context.Context) error { return srv.Shutdown(ctx) }
)

// @title           crypto-lens API
// @version         1.0
// @description     Crypto prices, headlines and message sentiment for the dashboard.

// @host      localhost:8080
// @BasePath  /
func main() {
	_ = loadEnvFunc()

	cfg := loadConfigFunc()
	if err := initLoggingFunc(cfg.LogLevel, cfg.LogFormat); err != nil {
		log.Fatal().Err(err).Msg("failed to configure logging")
	}
	if err := domain.ValidateAssets(domain.SupportedAssets); err != nil {
		log.Fatal().Err(err).Msg("invalid asset table")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tp, tracer, err := initTracerFunc(ctx, cfg.TracingEnabled, cfg.OTLPEndpoint)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize tracer")
	}
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			log.Error().Err(err).Msg("error shutting down tracer provider")
		}
	}()

	var redisTier cache.RedisClient
	rdb, err := initRedisFunc(ctx, cfg.RedisURL)
	switch {
	case err != nil:
		log.Warn().Err(err).Msg("redis unavailable, caching in-process only")
	case rdb != nil:
		redisTier = rdb
		defer rdb.Close()
	}
	store := cache.New(redisTier, time.Duration(cfg.CacheTTLSecs)*time.Second)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	rec := metrics.New(reg)

	sourceTimeout := time.Duration(cfg.SourceTimeoutSecs) * time.Second
	files := newFileSourceFunc(tracer, sourceTimeout)

	priceService := service.NewPriceService(
		tracer, files, newMarketFeedFunc(cfg, tracer, sourceTimeout), store, rec,
		cfg.HistoricalDataBase, cfg.RecentDays,
	)

	var primaryNews, fallbackNews service.NewsSource
	if cfg.NewsAPIKey != "" {
		primaryNews = provider.NewNewsAPIProvider(tracer, cfg.NewsAPIKey, cfg.NewsAPIBaseURL, sourceTimeout)
	}
	if len(cfg.NewsFallbackFeeds) > 0 {
		fallbackNews = provider.NewRSSProvider(tracer, cfg.NewsFallbackFeeds, sourceTimeout)
	}
	newsService := service.NewNewsService(tracer, primaryNews, fallbackNews, cfg.NewsLimit, rec)

	adapter := classifier.NewAdapter(
		tracer, newClassifierBackendFunc(cfg, tracer),
		cfg.ClassifierMaxTokens, time.Duration(cfg.ClassifierTimeoutSecs)*time.Second, rec,
	)
	sentimentService := service.NewSentimentService(tracer, files, cfg.CorpusFiles, store, adapter, rec)
	dashboardService := service.NewDashboardService(tracer, priceService, newsService, sentimentService)

	if cfg.CacheWarmSecs > 0 {
		startWarmerFunc(job.NewCacheWarmer(
			tracer, priceService, sentimentService,
			cfg.CacheWarmSecs, time.Duration(cfg.CacheTTLSecs)*time.Second,
		), ctx)
	}

	if err := startTelegramBotFunc(ctx, cfg.TelegramBotToken, priceService, newsService, sentimentService); err != nil {
		log.Error().Err(err).Msg("telegram bot disabled")
	}

	h := handler.New(tracer, priceService, newsService, sentimentService, dashboardService)

	r := newRouterFunc()
	r.Use(otelgin.Middleware(tracing.ServiceName), rec.GinMiddleware())
	h.RegisterRoutes(r, cfg.APIKey)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("http server listening")
		if err := startHTTPServerFunc(srv); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("listen")
		}
	}()

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	log.Info().Msg("shutting down server")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := shutdownHTTPServerFunc(srv, shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		return
	}
	log.Info().Msg("server exiting")
}

func newMarketFeed(cfg *config.Config, tracer trace.Tracer, timeout time.Duration) service.RecentFeed {
	if cfg.MarketFeed == "yahoo" {
		return provider.NewYahooProvider(tracer, timeout)
	}
	return provider.NewCoinGeckoProvider(tracer, timeout)
}

// newClassifierBackend returns nil when the selected backend is not
// configured; the adapter then reports classification as unavailable.
func newClassifierBackend(cfg *config.Config, tracer trace.Tracer) classifier.Backend {
	switch cfg.ClassifierBackend {
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			return nil
		}
		return classifier.NewOpenAIBackend(tracer, classifier.NewOpenAIClient(cfg.OpenAIAPIKey), cfg.OpenAIModel)
	default:
		return classifier.NewHuggingFaceBackend(tracer, cfg.HFAPIToken, cfg.HFModel)
	}
}
