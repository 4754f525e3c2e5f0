package http

import (
	"errors"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/pantrypal/backend/internal/domain"
	"github.com/pantrypal/backend/internal/usecase"
)

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	resolver usecase.Resolver
	flows    *usecase.Registry
	history  domain.HistoryRepository
}

// NewHandler creates a new HTTP handler.
func NewHandler(resolver usecase.Resolver, flows *usecase.Registry, history domain.HistoryRepository) *Handler {
	return &Handler{resolver: resolver, flows: flows, history: history}
}

// HealthCheck returns the health status of the API.
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "pantrypal-scan-backend",
		"version": "1.0.0",
	})
}

type resolveRequest struct {
	Barcode string `json:"barcode"`
}

// ResolveProduct resolves a barcode to a canonical product record. The only
// client error is a blank barcode; lookup misses and failures come back as
// a 200 with the outcome in the record.
func (h *Handler) ResolveProduct(c *gin.Context) {
	if h.resolver == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "product resolver not configured"})
		return
	}

	var req resolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	product, err := h.resolver.Resolve(c.Request.Context(), req.Barcode)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidBarcode) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "resolution failed"})
		return
	}

	c.JSON(http.StatusOK, product)
}

// ScanHistory returns recent resolution outcomes, newest first.
func (h *Handler) ScanHistory(c *gin.Context) {
	if h.history == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "scan history not configured"})
		return
	}

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = parsed
	}

	entries, err := h.history.Recent(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load history"})
		return
	}
	if entries == nil {
		entries = []domain.ResolutionEntry{}
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

// CreateFlow starts a new acquisition flow in the SCANNING state.
func (h *Handler) CreateFlow(c *gin.Context) {
	flow := h.flows.Create()
	c.JSON(http.StatusCreated, gin.H{
		"flowId": flow.ID(),
		"state":  flow.State(),
	})
}

// GetFlow reports a flow's state and, once in review, its draft record.
func (h *Handler) GetFlow(c *gin.Context) {
	flow, ok := h.lookupFlow(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, flowView(flow))
}

// BeginCamera starts camera acquisition on a flow. When the device is
// unavailable the response prescribes manual entry as the fallback.
func (h *Handler) BeginCamera(c *gin.Context) {
	flow, ok := h.lookupFlow(c)
	if !ok {
		return
	}

	if err := flow.BeginCameraAcquisition(c.Request.Context()); err != nil {
		switch {
		case errors.Is(err, domain.ErrDeviceUnavailable):
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"error":    "camera unavailable",
				"fallback": "manual",
			})
		case errors.Is(err, domain.ErrFlowState):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to start scan session"})
		}
		return
	}
	c.JSON(http.StatusOK, flowView(flow))
}

// maxFrameBytes bounds a single pushed frame. Camera stills at scan
// resolution stay well under this.
const maxFrameBytes = 8 << 20

// PushFrame feeds one video frame (a JPEG or PNG body) into the flow's scan
// session. Dropped frames are normal and reported, not errored.
func (h *Handler) PushFrame(c *gin.Context) {
	flow, ok := h.lookupFlow(c)
	if !ok {
		return
	}

	body := http.MaxBytesReader(c.Writer, c.Request.Body, maxFrameBytes)
	img, _, err := image.Decode(body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "body must be a decodable image no larger than 8MB"})
		return
	}

	delivered := flow.PushFrame(img)
	c.JSON(http.StatusAccepted, gin.H{
		"delivered": delivered,
		"state":     flow.State(),
	})
}

type manualRequest struct {
	Barcode string `json:"barcode"`
}

// SubmitManual is the typed-barcode edge into lookup.
func (h *Handler) SubmitManual(c *gin.Context) {
	flow, ok := h.lookupFlow(c)
	if !ok {
		return
	}

	var req manualRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := flow.SubmitManualCode(c.Request.Context(), req.Barcode); err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidBarcode):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, domain.ErrFlowState):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "manual submit failed"})
		}
		return
	}
	c.JSON(http.StatusOK, flowView(flow))
}

// ConfirmFlow accepts the review form and submits the enriched item.
func (h *Handler) ConfirmFlow(c *gin.Context) {
	flow, ok := h.lookupFlow(c)
	if !ok {
		return
	}

	var edits domain.ReviewEdits
	if err := c.ShouldBindJSON(&edits); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	item, err := flow.Confirm(c.Request.Context(), edits)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrFlowState):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, domain.ErrInventoryFailure):
			c.JSON(http.StatusBadGateway, gin.H{"error": "inventory backend rejected the item"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "confirmation failed"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": flow.State(), "item": item})
}

// RescanFlow returns a flow from review to scanning.
func (h *Handler) RescanFlow(c *gin.Context) {
	flow, ok := h.lookupFlow(c)
	if !ok {
		return
	}
	if err := flow.ScanAgain(); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, flowView(flow))
}

// CancelFlow aborts in-progress work on a flow.
func (h *Handler) CancelFlow(c *gin.Context) {
	flow, ok := h.lookupFlow(c)
	if !ok {
		return
	}
	flow.Cancel()
	c.JSON(http.StatusOK, flowView(flow))
}

// DeleteFlow tears a flow down and forgets it.
func (h *Handler) DeleteFlow(c *gin.Context) {
	if err := h.flows.Remove(c.Param("id")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "flow not found"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) lookupFlow(c *gin.Context) (*usecase.Flow, bool) {
	flow, err := h.flows.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "flow not found"})
		return nil, false
	}
	return flow, true
}

func flowView(flow *usecase.Flow) gin.H {
	view := gin.H{
		"flowId": flow.ID(),
		"state":  flow.State(),
	}
	if draft := flow.Draft(); draft != nil {
		view["draft"] = draft
	}
	return view
}
