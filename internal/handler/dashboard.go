package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// GetDashboard godoc
// @Summary      Dashboard snapshot for an asset
// @Description  Prices, headlines and corpus sentiment; a failed stage is reported under errors while the rest still renders
// @Tags         dashboard
// @Produce      json
// @Param        symbol    path   string  true   "Asset symbol"
// @Param        q         query  string  false  "News query (defaults to the asset name)"
// @Param        category  query  string  false  "News category"
// @Success      200  {object}  service.Snapshot
// @Failure      400  {object}  map[string]string
// @Router       /api/dashboard/{symbol} [get]
func (h *Handler) GetDashboard(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-dashboard")
	defer span.End()

	symbol := strings.ToUpper(c.Param("symbol"))
	span.SetAttributes(attribute.String("symbol", symbol))

	snap, err := h.dashboard.Snapshot(ctx, symbol, c.Query("q"), c.Query("category"))
	if err != nil {
		span.RecordError(err)
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}
