package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

type newsQueryParams struct {
	Query    string `form:"q" binding:"max=200"`
	Category string `form:"category" binding:"omitempty,oneof=business entertainment general health science sports technology"`
}

// GetNews godoc
// @Summary      Search crypto headlines
// @Description  Searches the news API, falling back to RSS feeds when it is unavailable
// @Tags         news
// @Produce      json
// @Param        q         query  string  false  "Free-text query"
// @Param        category  query  string  false  "News category"
// @Success      200  {object}  service.NewsResult
// @Failure      400  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /api/news [get]
func (h *Handler) GetNews(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-news")
	defer span.End()

	var params newsQueryParams
	if err := c.ShouldBindQuery(&params); err != nil {
		badRequest(c, err.Error())
		return
	}
	span.SetAttributes(attribute.String("query", params.Query), attribute.String("category", params.Category))

	result, err := h.news.Headlines(ctx, params.Query, params.Category)
	if err != nil {
		span.RecordError(err)
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
