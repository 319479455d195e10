package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/fiddyhq/autopublisher/pkg/api/errors"
	"github.com/fiddyhq/autopublisher/pkg/export"
	"github.com/fiddyhq/autopublisher/pkg/metrics"
)

// ExportHandler serves publish-history reports. Reports are built
// synchronously and streamed back; nothing is stored server-side.
type ExportHandler struct {
	exportService *export.Service
	metrics       *metrics.Metrics
}

// NewExportHandler creates a new export handler
func NewExportHandler(svc *export.Service, m *metrics.Metrics) *ExportHandler {
	return &ExportHandler{
		exportService: svc,
		metrics:       m,
	}
}

// Download handles GET /api/v1/export/publish-history?format=csv|excel.
// Routed with query-token auth so a browser can download the file directly.
func (h *ExportHandler) Download(c echo.Context) error {
	userID, ok := currentUserID(c)
	if !ok {
		return errors.UnauthorizedError(c)
	}

	format := c.QueryParam("format")
	if format == "" {
		format = export.FormatCSV
	}
	if format != export.FormatCSV && format != export.FormatExcel {
		return errors.BadRequestError(c, "Format must be csv or excel")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 30*time.Second)
	defer cancel()

	filename, data, err := h.exportService.PublishHistory(ctx, userID, format)
	if err != nil {
		return errors.InternalError(c, err)
	}
	h.metrics.RecordExportCreated()

	contentType := "text/csv"
	if format == export.FormatExcel {
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}

	c.Response().Header().Set("Content-Disposition", "attachment; filename="+filename)
	return c.Blob(http.StatusOK, contentType, data)
}
