package main

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"bitbucket.org/mmdatafocus/production_backend/config"
	"bitbucket.org/mmdatafocus/production_backend/models"
	"bitbucket.org/mmdatafocus/production_backend/utils"
	"bitbucket.org/mmdatafocus/production_backend/workflow"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type handlerDeps struct {
	lifecycle *workflow.ArticleLifecycle
	sequences models.SequenceResolver
	ledger    func(ctx context.Context, articleId int) ([]models.TransferEvent, error)
	requeue   func(ctx context.Context, eventId int, now time.Time) error
}

// productionHandlers serves the floor endpoints. Dependencies are attached once the
// database is connected; until then the readiness gate answers 503.
type productionHandlers struct {
	deps      atomic.Pointer[handlerDeps]
	overrides *config.FloorSequenceOverrides
	logger    *logrus.Logger
}

func newProductionHandlers(overrides *config.FloorSequenceOverrides, logger *logrus.Logger) *productionHandlers {
	return &productionHandlers{overrides: overrides, logger: logger}
}

func (h *productionHandlers) attach(db *gorm.DB) {
	provider := models.NewProductFloorSequenceProvider(db, h.overrides)
	lifecycle := workflow.NewArticleLifecycle(
		models.NewGormArticleStore(db),
		provider,
		models.NewTransferEventSink(db),
		workflow.WithLocker(workflow.NewRedisArticleLocker()),
		workflow.WithTracer(tracer),
	)
	h.deps.Store(&handlerDeps{
		lifecycle: lifecycle,
		sequences: provider,
		ledger: func(ctx context.Context, articleId int) ([]models.TransferEvent, error) {
			return models.ListArticleTransferEvents(ctx, db, articleId)
		},
		requeue: func(ctx context.Context, eventId int, now time.Time) error {
			return models.RequeueTransferEvent(ctx, db, eventId, now)
		},
	})
}

func (h *productionHandlers) ready() bool {
	return h.deps.Load() != nil
}

func (h *productionHandlers) register(r gin.IRoutes) {
	r.POST("/products", h.createProduct)
	r.POST("/orders", h.createOrder)
	r.GET("/orders/:id", h.getOrder)
	r.GET("/articles/:id", h.getArticle)
	r.DELETE("/articles/:id", h.deleteArticle)
	r.GET("/articles/:id/transfers", h.listTransfers)
	r.POST("/articles/:id/progress", h.updateProgress)
	r.POST("/articles/:id/transfer", h.transferFloor)
	r.POST("/articles/:id/quality-inspection", h.qualityInspect)
	r.POST("/articles/:id/sweep", h.sweepBacklog)
	r.POST("/floors/:floor/articles/:id/repair", h.repairTransfer)
	r.POST("/progress/bulk", h.bulkProgress)
	r.POST("/internal/ops/outbox/replay", h.replayTransferEvent)
}

type progressRequest struct {
	Floor    string `json:"floor" validate:"required"`
	Quantity int    `json:"quantity"`
	workflow.ProgressMetadata
}

type transferRequest struct {
	Floor string `json:"floor" validate:"required"`
	workflow.TransferMetadata
}

type bulkProgressRequest struct {
	Items []workflow.ProgressItem `json:"items" validate:"required,min=1,dive"`
}

type sweepRequest struct {
	Actor string `json:"actor"`
}

func (h *productionHandlers) createProduct(c *gin.Context) {
	var req models.NewProduct
	if !bindJSON(c, &req) {
		return
	}
	product, err := models.CreateProduct(c.Request.Context(), &req)
	h.respond(c, "product", product, err)
}

func (h *productionHandlers) createOrder(c *gin.Context) {
	var req models.NewProductionOrder
	if !bindJSON(c, &req) {
		return
	}
	order, err := models.CreateProductionOrder(c.Request.Context(), &req, h.deps.Load().sequences)
	h.respond(c, "order", order, err)
}

func (h *productionHandlers) getOrder(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	order, err := models.GetProductionOrder(c.Request.Context(), id)
	h.respond(c, "order", order, err)
}

func (h *productionHandlers) getArticle(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	article, err := h.deps.Load().lifecycle.GetArticle(c.Request.Context(), id)
	h.respond(c, "article", article, err)
}

func (h *productionHandlers) deleteArticle(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	if err := h.deps.Load().lifecycle.DeleteArticle(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *productionHandlers) listTransfers(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	events, err := h.deps.Load().ledger(c.Request.Context(), id)
	h.respond(c, "transfers", events, err)
}

func (h *productionHandlers) updateProgress(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	var req progressRequest
	if !bindJSON(c, &req) {
		return
	}
	floor, err := models.NormalizeFloor(req.Floor)
	if err != nil {
		h.respondError(c, err)
		return
	}
	article, err := h.deps.Load().lifecycle.UpdateProgress(c.Request.Context(), id, floor, req.Quantity, req.ProgressMetadata)
	h.respond(c, "article", article, err)
}

func (h *productionHandlers) bulkProgress(c *gin.Context) {
	var req bulkProgressRequest
	if !bindJSON(c, &req) {
		return
	}
	for i := range req.Items {
		floor, err := models.NormalizeFloor(string(req.Items[i].Floor))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "items[" + strconv.Itoa(i) + "]: " + err.Error()})
			return
		}
		req.Items[i].Floor = floor
	}
	results := h.deps.Load().lifecycle.BulkUpdateProgress(c.Request.Context(), req.Items)
	for _, res := range results {
		if res.Err != nil && !workflow.IsAuditWarning(res.Err) && errorStatus(res.Err) == http.StatusInternalServerError {
			_ = c.Error(res.Err)
		}
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}

func (h *productionHandlers) transferFloor(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	var req transferRequest
	if !bindJSON(c, &req) {
		return
	}
	floor, err := models.NormalizeFloor(req.Floor)
	if err != nil {
		h.respondError(c, err)
		return
	}
	summary, err := h.deps.Load().lifecycle.TransferFloor(c.Request.Context(), id, floor, req.TransferMetadata)
	h.respond(c, "transfer", summary, err)
}

func (h *productionHandlers) qualityInspect(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	var req workflow.InspectionInput
	if !bindJSON(c, &req) {
		return
	}
	if strings.TrimSpace(string(req.Floor)) != "" {
		floor, err := models.NormalizeFloor(string(req.Floor))
		if err != nil {
			h.respondError(c, err)
			return
		}
		req.Floor = floor
	} else {
		req.Floor = ""
	}
	article, err := h.deps.Load().lifecycle.QualityInspect(c.Request.Context(), id, req)
	h.respond(c, "article", article, err)
}

func (h *productionHandlers) repairTransfer(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	source, err := models.NormalizeFloor(c.Param("floor"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	var req workflow.RepairInput
	if !bindJSON(c, &req) {
		return
	}
	if strings.TrimSpace(string(req.TargetFloor)) != "" {
		target, err := models.NormalizeFloor(string(req.TargetFloor))
		if err != nil {
			h.respondError(c, err)
			return
		}
		req.TargetFloor = target
	} else {
		req.TargetFloor = ""
	}
	summary, err := h.deps.Load().lifecycle.RepairTransfer(c.Request.Context(), source, id, req)
	h.respond(c, "repair", summary, err)
}

func (h *productionHandlers) sweepBacklog(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	var req sweepRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}
	article, err := h.deps.Load().lifecycle.SweepBacklog(c.Request.Context(), id, req.Actor)
	h.respond(c, "article", article, err)
}

// respond writes payload under key. An audit warning still returns 200 with a warning field.
func (h *productionHandlers) respond(c *gin.Context, key string, payload any, err error) {
	if err != nil && !workflow.IsAuditWarning(err) {
		h.respondError(c, err)
		return
	}
	body := gin.H{key: payload}
	if err != nil {
		body["warning"] = err.Error()
	}
	c.JSON(http.StatusOK, body)
}

func (h *productionHandlers) respondError(c *gin.Context, err error) {
	status := errorStatus(err)
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		c.JSON(status, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, workflow.ErrArticleNotFound), errors.Is(err, utils.ErrorRecordNotFound):
		return http.StatusNotFound
	case errors.Is(err, workflow.ErrConcurrentModification),
		errors.Is(err, models.ErrDuplicateArticleNo),
		errors.Is(err, models.ErrDuplicateOrderNumber),
		errors.Is(err, models.ErrDuplicateProductCode):
		return http.StatusConflict
	case workflow.IsValidationError(err),
		errors.Is(err, utils.ErrInvalidInput),
		errors.Is(err, models.ErrDuplicateFloor):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// bindJSON decodes and validates the body, answering 400 on failure.
func bindJSON(c *gin.Context, dest any) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return false
	}
	if err := utils.ValidateStruct(dest); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return false
	}
	return true
}

func pathId(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}
