package handler

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"crypto-lens/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
)

type priceQueryParams struct {
	From     string `form:"from"`
	To       string `form:"to"`
	MinPrice string `form:"min_price"`
	MaxPrice string `form:"max_price"`
}

// GetPrices godoc
// @Summary      Merged price series for a crypto asset
// @Description  Historical export merged with the recent market feed; the recent value wins on equal timestamps
// @Tags         prices
// @Produce      json
// @Param        symbol     path   string  true   "Asset symbol (e.g., BTC, ETH)"
// @Param        from       query  string  false  "Start (RFC3339 or YYYY-MM-DD), inclusive"
// @Param        to         query  string  false  "End (RFC3339 or YYYY-MM-DD), inclusive"
// @Param        min_price  query  string  false  "Minimum price, inclusive"
// @Param        max_price  query  string  false  "Maximum price, inclusive"
// @Success      200  {object}  service.PriceResult
// @Failure      400  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /api/prices/{symbol} [get]
func (h *Handler) GetPrices(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-prices")
	defer span.End()

	symbol := strings.ToUpper(c.Param("symbol"))
	span.SetAttributes(attribute.String("symbol", symbol))

	var params priceQueryParams
	if err := c.ShouldBindQuery(&params); err != nil {
		badRequest(c, err.Error())
		return
	}
	q, err := params.toQuery()
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	result, err := h.prices.Series(ctx, symbol, q)
	if err != nil {
		span.RecordError(err)
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (p priceQueryParams) toQuery() (domain.PriceQuery, error) {
	var q domain.PriceQuery
	var err error
	if q.From, err = parseBound(p.From, false); err != nil {
		return q, fmt.Errorf("invalid from: %w", err)
	}
	if q.To, err = parseBound(p.To, true); err != nil {
		return q, fmt.Errorf("invalid to: %w", err)
	}
	if q.From != nil && q.To != nil && q.From.After(*q.To) {
		return q, fmt.Errorf("from must not be after to")
	}
	if q.MinPrice, err = parsePrice(p.MinPrice); err != nil {
		return q, fmt.Errorf("invalid min_price: %w", err)
	}
	if q.MaxPrice, err = parsePrice(p.MaxPrice); err != nil {
		return q, fmt.Errorf("invalid max_price: %w", err)
	}
	if q.MinPrice != nil && q.MaxPrice != nil && q.MinPrice.GreaterThan(*q.MaxPrice) {
		return q, fmt.Errorf("min_price must not exceed max_price")
	}
	return q, nil
}

// parseBound reads an RFC3339 instant or a calendar date. A date used as an
// upper bound covers the whole day.
func parseBound(raw string, upper bool) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		t = t.UTC()
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, fmt.Errorf("%q is neither RFC3339 nor YYYY-MM-DD", raw)
	}
	if upper {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}

func parsePrice(raw string) (*decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, err
	}
	if d.IsNegative() {
		return nil, fmt.Errorf("price must not be negative")
	}
	return &d, nil
}
