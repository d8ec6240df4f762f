package handler

import (
	"net/http"

	"crypto-lens/internal/domain"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

type classifyRequest struct {
	Text string `json:"text" binding:"required,max=20000"`
}

// GetChannels godoc
// @Summary      List corpus channels
// @Tags         sentiment
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /api/sentiment/channels [get]
func (h *Handler) GetChannels(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-channels")
	defer span.End()

	channels, err := h.sentiment.Channels(ctx)
	if err != nil {
		span.RecordError(err)
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"channels": channels})
}

// GetMessages godoc
// @Summary      Filter the labeled corpus
// @Description  Facets combine conjunctively; repeated values within a facet are alternatives
// @Tags         sentiment
// @Produce      json
// @Param        channel  query  []string  false  "Channel (repeatable)"
// @Param        label    query  []string  false  "POSITIVE, NEUTRAL or NEGATIVE (repeatable)"
// @Param        keyword  query  string    false  "Case-insensitive substring of the text"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Router       /api/sentiment/messages [get]
func (h *Handler) GetMessages(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-messages")
	defer span.End()

	criteria, ok := bindCriteria(c)
	if !ok {
		return
	}
	messages, err := h.sentiment.Messages(ctx, criteria)
	if err != nil {
		span.RecordError(err)
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": messages, "count": len(messages)})
}

// GetDistribution godoc
// @Summary      Label counts over the filtered corpus
// @Tags         sentiment
// @Produce      json
// @Param        channel  query  []string  false  "Channel (repeatable)"
// @Param        label    query  []string  false  "Label (repeatable)"
// @Param        keyword  query  string    false  "Keyword"
// @Success      200  {object}  domain.SentimentDistribution
// @Failure      400  {object}  map[string]string
// @Router       /api/sentiment/distribution [get]
func (h *Handler) GetDistribution(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-distribution")
	defer span.End()

	criteria, ok := bindCriteria(c)
	if !ok {
		return
	}
	dist, err := h.sentiment.Distribution(ctx, criteria)
	if err != nil {
		span.RecordError(err)
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dist)
}

// Classify godoc
// @Summary      Classify free text
// @Description  Labels text with the pretrained sentiment model; no default label on failure
// @Tags         sentiment
// @Accept       json
// @Produce      json
// @Param        request  body  classifyRequest  true  "Text to classify"
// @Success      200  {object}  map[string]string
// @Failure      400  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Failure      504  {object}  map[string]string
// @Router       /api/sentiment/classify [post]
func (h *Handler) Classify(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.classify")
	defer span.End()

	var req classifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request: "+err.Error())
		return
	}

	label, err := h.sentiment.Classify(ctx, req.Text)
	if err != nil {
		span.RecordError(err)
		writeError(c, err)
		return
	}
	span.SetAttributes(attribute.String("sentiment.label", string(label)))
	c.JSON(http.StatusOK, gin.H{"label": label})
}

func bindCriteria(c *gin.Context) (domain.FilterCriteria, bool) {
	criteria, err := domain.NewFilterCriteria(c.QueryArray("channel"), c.QueryArray("label"), c.Query("keyword"))
	if err != nil {
		badRequest(c, err.Error())
		return domain.FilterCriteria{}, false
	}
	return criteria, true
}
