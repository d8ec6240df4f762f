package handler

import (
	"net/http"

	"crypto-lens/internal/domain"

	"github.com/gin-gonic/gin"
)

// Health godoc
// @Summary      Health check
// @Description  Returns the health status of the service
// @Tags         health
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// ListAssets godoc
// @Summary      List supported assets
// @Tags         prices
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /api/assets [get]
func (h *Handler) ListAssets(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"assets": domain.SupportedAssets})
}
