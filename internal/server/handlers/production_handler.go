package handlers

import (
	"bytes"
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/breadlog/internal/service/export"
	"github.com/mamadbah2/breadlog/internal/service/production"
	"github.com/mamadbah2/breadlog/internal/service/reporting"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Workspace is the draft-editing surface behind the form routes.
type Workspace interface {
	Draft(ctx context.Context, date string) (reporting.DayReport, error)
	AddBatch(ctx context.Context, date string) (reporting.DayReport, error)
	UpdateBatch(ctx context.Context, date string, seq int, patch production.BatchPatch) (reporting.DayReport, error)
	UpdateMeta(ctx context.Context, date string, patch production.MetaPatch) (reporting.DayReport, error)
	Reset(ctx context.Context, date string, confirm bool) (reporting.DayReport, error)
	Save(ctx context.Context, date string) (reporting.DayReport, error)
	Delete(ctx context.Context, date string, confirm bool) error
}

// ProductionHandler serves the daily form: batches, metadata, save, reset,
// delete and the downloads.
type ProductionHandler struct {
	svc    Workspace
	logger *zap.Logger
}

// NewProductionHandler constructs the HTTP handler adapter.
func NewProductionHandler(svc Workspace, logger *zap.Logger) *ProductionHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProductionHandler{svc: svc, logger: logger}
}

// Get returns the working view of a day.
func (h *ProductionHandler) Get(c *gin.Context) {
	report, err := h.svc.Draft(c.Request.Context(), c.Param("date"))
	if err != nil {
		respondError(c, h.logger, "load ledger", err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// UpdateMeta edits day label, temperature and promotion.
func (h *ProductionHandler) UpdateMeta(c *gin.Context) {
	var patch production.MetaPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		h.logger.Warn("invalid meta payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	report, err := h.svc.UpdateMeta(c.Request.Context(), c.Param("date"), patch)
	if err != nil {
		respondError(c, h.logger, "update metadata", err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// AddBatch appends a new empty batch.
func (h *ProductionHandler) AddBatch(c *gin.Context) {
	report, err := h.svc.AddBatch(c.Request.Context(), c.Param("date"))
	if err != nil {
		respondError(c, h.logger, "add batch", err)
		return
	}
	c.JSON(http.StatusCreated, report)
}

// UpdateBatch patches one batch addressed by its number.
func (h *ProductionHandler) UpdateBatch(c *gin.Context) {
	seq, err := strconv.Atoi(c.Param("seq"))
	if err != nil || seq < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid batch number"})
		return
	}

	var patch production.BatchPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		h.logger.Warn("invalid batch payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	report, err := h.svc.UpdateBatch(c.Request.Context(), c.Param("date"), seq, patch)
	if err != nil {
		respondError(c, h.logger, "update batch", err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// Reset clears the form after confirmation.
func (h *ProductionHandler) Reset(c *gin.Context) {
	report, err := h.svc.Reset(c.Request.Context(), c.Param("date"), confirmed(c))
	if err != nil {
		respondError(c, h.logger, "reset ledger", err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// Save persists the working copy.
func (h *ProductionHandler) Save(c *gin.Context) {
	report, err := h.svc.Save(c.Request.Context(), c.Param("date"))
	if err != nil {
		respondError(c, h.logger, "save ledger", err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// Delete removes a stored day after confirmation.
func (h *ProductionHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("date"), confirmed(c)); err != nil {
		respondError(c, h.logger, "delete ledger", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ExportXLSX downloads the working copy as a workbook.
func (h *ProductionHandler) ExportXLSX(c *gin.Context) {
	report, err := h.svc.Draft(c.Request.Context(), c.Param("date"))
	if err != nil {
		respondError(c, h.logger, "export workbook", err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteXLSX(&buf, report); err != nil {
		respondError(c, h.logger, "export workbook", err)
		return
	}
	attachment(c, export.FileName(report.Ledger.Date, "xlsx"))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// ExportText downloads the printable report.
func (h *ProductionHandler) ExportText(c *gin.Context) {
	report, err := h.svc.Draft(c.Request.Context(), c.Param("date"))
	if err != nil {
		respondError(c, h.logger, "export report", err)
		return
	}
	attachment(c, export.FileName(report.Ledger.Date, "txt"))
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(export.Text(report)))
}

func confirmed(c *gin.Context) bool {
	ok, _ := strconv.ParseBool(c.Query("confirm"))
	return ok
}

func attachment(c *gin.Context, name string) {
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
}
