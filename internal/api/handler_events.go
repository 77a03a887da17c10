package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"bandsync/internal/model"
	"bandsync/internal/store"
	"bandsync/internal/validate"
)

type createEventRequest struct {
	Title     string          `json:"title"`
	Kind      model.EventKind `json:"kind"`
	Start     time.Time       `json:"start"`
	End       time.Time       `json:"end"`
	CreatedBy string          `json:"createdBy"`
	RequestID string          `json:"requestId"`
}

// GetEvents handles GET /events?start=&end=.
func (h *Handler) GetEvents(c *gin.Context) {
	start, end, ok := parseRange(c)
	if !ok {
		return
	}

	events, err := h.store.ListEvents(c.Request.Context(), start, end)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve events"})
		return
	}
	if events == nil {
		events = []model.Event{}
	}
	c.JSON(http.StatusOK, events)
}

// PostEvent handles POST /events. The server is the validation authority: it
// runs the same checks the client ran before sending.
func (h *Handler) PostEvent(c *gin.Context) {
	var req createEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := validate.Event(req.Title, req.Kind, req.Start, req.End, req.CreatedBy, time.Now()); err != nil {
		var verr *validate.Error
		if errors.As(err, &verr) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": verr.Error(), "reason": verr.Reason})
			return
		}
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	created, err := h.store.CreateEvent(c.Request.Context(), model.Event{
		Title:     req.Title,
		Kind:      req.Kind,
		Start:     req.Start,
		End:       req.End,
		CreatedBy: req.CreatedBy,
		RequestID: req.RequestID,
	})
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to create event"})
		return
	}

	h.flushReadCache()
	c.JSON(http.StatusCreated, gin.H{"id": created.ID})
}

// DeleteEvent handles DELETE /events/{id}. Only the creator or the configured
// admin may delete an event; the acting member comes from the X-Actor header.
func (h *Handler) DeleteEvent(c *gin.Context) {
	actor := c.GetHeader("X-Actor")
	if actor == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "X-Actor header is required"})
		return
	}

	err := h.store.DeleteEvent(c.Request.Context(), c.Param("id"), actor, h.adminName)
	switch {
	case errors.Is(err, store.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Event not found"})
	case errors.Is(err, store.ErrForbidden):
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Only the creator or admin may delete this event"})
	case err != nil:
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete event"})
	default:
		h.flushReadCache()
		c.Status(http.StatusNoContent)
	}
}
