package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"driveschool/services/booking"
	"driveschool/services/broadcast"
	"driveschool/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ScheduleHandler serves slot reads and the live SSE feed.
type ScheduleHandler struct {
	Service booking.BookingService
	Hub     *broadcast.Hub
	Logger  *zap.Logger
}

// NewScheduleHandler creates a ScheduleHandler.
func NewScheduleHandler(svc booking.BookingService, hub *broadcast.Hub, logger *zap.Logger) *ScheduleHandler {
	return &ScheduleHandler{Service: svc, Hub: hub, Logger: logger}
}

// GetDaySlots handles GET /api/schedule/:instructorId/:kind/:date.
// Responses are cached briefly in Redis to absorb read bursts; live
// correctness comes from the SSE feed, not from this endpoint.
func (h *ScheduleHandler) GetDaySlots(c *gin.Context) {
	instructorID := c.Param("instructorId")
	kind := c.Param("kind")
	date := c.Param("date")

	cacheKey := utils.ScheduleCachePrefix + instructorID + ":" + kind + ":" + date
	cache := utils.GetCacheClient()
	ctx := c.Request.Context()

	if cached, err := cache.Get(ctx, cacheKey).Result(); err == nil && cached != "" {
		c.Data(http.StatusOK, "application/json", []byte(cached))
		return
	}

	slots, err := h.Service.GetDaySlots(ctx, instructorID, kind, date)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	body, err := json.Marshal(gin.H{"instructorId": instructorID, "kind": kind, "date": date, "slots": slots})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to encode slots"})
		return
	}
	_ = cache.Set(ctx, cacheKey, body, utils.ScheduleCacheTTL).Err()
	c.Data(http.StatusOK, "application/json", body)
}

// LiveSlots handles GET /api/schedule/:instructorId/:kind/:date/live as a
// server-sent-events stream: one initial full snapshot, then a snapshot
// per change, until the client disconnects.
func (h *ScheduleHandler) LiveSlots(c *gin.Context) {
	instructorID := c.Param("instructorId")
	kind := c.Param("kind")
	date := c.Param("date")

	sub, err := h.Hub.Subscribe(c.Request.Context(), instructorID, kind, date)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	defer h.Hub.Unsubscribe(sub)

	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	clientGone := c.Request.Context().Done()
	keepalive := time.NewTicker(25 * time.Second)
	defer keepalive.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-clientGone:
			return false
		case snapshot, ok := <-sub.C:
			if !ok {
				return false
			}
			c.SSEvent("slots", snapshot)
			return true
		case <-keepalive.C:
			// Comment event keeps intermediaries from closing idle streams.
			c.SSEvent("ping", time.Now().Unix())
			return true
		}
	})
}

// invalidateScheduleCache drops the cached day snapshot after a change so
// polling readers converge quickly. Best effort.
func invalidateScheduleCache(ctx context.Context, instructorID, kind, date string) {
	cacheKey := utils.ScheduleCachePrefix + instructorID + ":" + kind + ":" + date
	_ = utils.GetCacheClient().Del(ctx, cacheKey).Err()
}
