package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"bandsync/internal/model"
	"bandsync/internal/validate"
)

type upsertAvailabilityRequest struct {
	MemberName string                   `json:"memberName"`
	Start      time.Time                `json:"start"`
	End        time.Time                `json:"end"`
	Status     model.AvailabilityStatus `json:"status"`
}

// GetAvailability handles GET /availability?start=&end=.
func (h *Handler) GetAvailability(c *gin.Context) {
	start, end, ok := parseRange(c)
	if !ok {
		return
	}

	records, err := h.store.ListAvailability(c.Request.Context(), start, end)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve availability"})
		return
	}
	if records == nil {
		records = []model.Availability{}
	}
	c.JSON(http.StatusOK, records)
}

// PostAvailability handles POST /availability. The write is an upsert: every
// stored interval of the member that overlaps the submitted one is replaced.
func (h *Handler) PostAvailability(c *gin.Context) {
	var req upsertAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := validate.Availability(req.MemberName, req.Start, req.End, req.Status, time.Now()); err != nil {
		var verr *validate.Error
		if errors.As(err, &verr) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": verr.Error(), "reason": verr.Reason})
			return
		}
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	record, err := h.store.UpsertAvailability(c.Request.Context(), req.MemberName, req.Start, req.End, req.Status)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to store availability"})
		return
	}

	h.flushReadCache()
	c.JSON(http.StatusCreated, record)
}
