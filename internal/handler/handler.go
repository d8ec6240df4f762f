package handler

import (
	"context"

	"crypto-lens/internal/domain"
	"crypto-lens/internal/service"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
)

type PriceReader interface {
	Series(ctx context.Context, symbol string, q domain.PriceQuery) (service.PriceResult, error)
}

type NewsReader interface {
	Headlines(ctx context.Context, query, category string) (service.NewsResult, error)
}

type SentimentReader interface {
	Messages(ctx context.Context, criteria domain.FilterCriteria) ([]domain.SentimentMessage, error)
	Distribution(ctx context.Context, criteria domain.FilterCriteria) (domain.SentimentDistribution, error)
	Channels(ctx context.Context) ([]string, error)
	Classify(ctx context.Context, text string) (domain.Label, error)
}

type DashboardReader interface {
	Snapshot(ctx context.Context, symbol, newsQuery, category string) (service.Snapshot, error)
}

type Handler struct {
	tracer    trace.Tracer
	prices    PriceReader
	news      NewsReader
	sentiment SentimentReader
	dashboard DashboardReader
}

func New(tracer trace.Tracer, prices PriceReader, news NewsReader, sentiment SentimentReader, dashboard DashboardReader) *Handler {
	return &Handler{
		tracer:    tracer,
		prices:    prices,
		news:      news,
		sentiment: sentiment,
		dashboard: dashboard,
	}
}

// RegisterRoutes mounts the API. apiKey, when set, is required on /api.
func (h *Handler) RegisterRoutes(r *gin.Engine, apiKey string) {
	r.GET("/health", h.Health)

	api := r.Group("/api", APIKeyAuth(apiKey))
	api.GET("/assets", h.ListAssets)
	api.GET("/prices/:symbol", h.GetPrices)
	api.GET("/news", h.GetNews)
	api.GET("/sentiment/channels", h.GetChannels)
	api.GET("/sentiment/messages", h.GetMessages)
	api.GET("/sentiment/distribution", h.GetDistribution)
	api.POST("/sentiment/classify", h.Classify)
	api.GET("/dashboard/:symbol", h.GetDashboard)
}
