package main

import (
	"net/http"
	"time"

	"bitbucket.org/mmdatafocus/production_backend/models"
	"bitbucket.org/mmdatafocus/production_backend/utils"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type outboxReplayRequest struct {
	EventId int `json:"event_id" validate:"gt=0"`
}

// replayTransferEvent requeues a DEAD/FAILED transfer_events row for the outbox dispatcher.
func (h *productionHandlers) replayTransferEvent(c *gin.Context) {
	var req outboxReplayRequest
	if !bindJSON(c, &req) {
		return
	}
	now := time.Now().UTC()
	if err := h.deps.Load().requeue(c.Request.Context(), req.EventId, now); err != nil {
		h.respondError(c, err)
		return
	}

	cid, _ := utils.GetCorrelationIdFromContext(c.Request.Context())
	user, _ := utils.GetUserNameFromContext(c.Request.Context())
	h.logger.WithFields(logrus.Fields{
		"field":          "OutboxReplay",
		"event_id":       req.EventId,
		"requested_by":   user,
		"correlation_id": cid,
	}).Info("transfer event requeued for publishing")

	c.JSON(http.StatusOK, gin.H{
		"event_id":        req.EventId,
		"publish_status":  models.OutboxPublishStatusFailed,
		"next_attempt_at": now.Format(time.RFC3339Nano),
		"correlation_id":  cid,
	})
}
