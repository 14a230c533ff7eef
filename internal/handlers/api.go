package handlers

import (
	stderrors "errors"
	"log/slog"
	"net/http"
	"time"

	"insight-dashboard/internal/config"
	"insight-dashboard/internal/errors"
	"insight-dashboard/internal/ingest"
	"insight-dashboard/internal/middleware"
	"insight-dashboard/internal/observability"
	"insight-dashboard/internal/services"
)

const (
	uploadField     = "file"
	multipartMemory = 8 << 20
)

type APIHandlers struct {
	analytics *services.Analytics
	logger    *slog.Logger
	upload    config.UploadConfig
}

func NewAPIHandlers(analytics *services.Analytics, logger *slog.Logger, upload config.UploadConfig) *APIHandlers {
	return &APIHandlers{
		analytics: analytics,
		logger:    logger,
		upload:    upload,
	}
}

// HandleUpload accepts a multipart "file" field, analyses it and returns the
// new session including its KPIs, charts and column classification.
func (h *APIHandlers) HandleUpload(w http.ResponseWriter, r *http.Request) {
	requestID := observability.GetRequestID(r.Context())

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			errors.WriteError(w, h.logger, errors.PayloadTooLarge(middleware.TooLargeMessage(h.upload.MaxFileBytes)), requestID)
			return
		}
		errors.WriteError(w, h.logger, errors.BadRequestWrap(err, "Expected a multipart form upload."), requestID)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile(uploadField)
	if err != nil {
		errors.WriteError(w, h.logger, errors.BadRequestWrap(err, "No file provided."), requestID)
		return
	}
	defer file.Close()

	if header.Size > h.upload.MaxFileBytes {
		errors.WriteError(w, h.logger, errors.PayloadTooLarge(middleware.TooLargeMessage(h.upload.MaxFileBytes)), requestID)
		return
	}

	filename := ingest.SanitizeFilename(header.Filename, h.upload.MaxFilenameLength)
	if err := ingest.CheckExtension(filename, h.upload.AllowedExtensions); err != nil {
		errors.WriteError(w, h.logger, err, requestID)
		return
	}

	session, err := h.analytics.Upload(r.Context(), filename, file)
	if err != nil {
		errors.WriteError(w, h.logger, err, requestID)
		return
	}

	errors.WriteSuccess(w, session)
}

func (h *APIHandlers) HandleAnalysis(w http.ResponseWriter, r *http.Request) {
	session, err := h.analytics.Get(r.PathValue("id"))
	if err != nil {
		errors.WriteError(w, h.logger, err, observability.GetRequestID(r.Context()))
		return
	}

	errors.WriteSuccessWithHeaders(w, session.Analysis, map[string]string{
		"Cache-Control": "private, max-age=300",
	})
}

func (h *APIHandlers) HandleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.analytics.Summary(r.PathValue("id"))
	if err != nil {
		errors.WriteError(w, h.logger, err, observability.GetRequestID(r.Context()))
		return
	}

	errors.WriteSuccessWithHeaders(w, summary, map[string]string{
		"Cache-Control": "private, max-age=300",
	})
}

// HandleLatest returns the most recent upload so a reloaded dashboard can
// restore its state.
func (h *APIHandlers) HandleLatest(w http.ResponseWriter, r *http.Request) {
	session, err := h.analytics.Latest()
	if err != nil {
		errors.WriteError(w, h.logger, err, observability.GetRequestID(r.Context()))
		return
	}

	errors.WriteSuccessWithHeaders(w, session, map[string]string{
		"Cache-Control": "no-cache",
	})
}

func (h *APIHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	healthData := map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   Version,
	}

	errors.WriteSuccessWithHeaders(w, healthData, map[string]string{
		"Cache-Control": "no-cache",
	})
}

func (h *APIHandlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	errors.WriteSuccess(w, h.analytics.Stats())
}

// Version is reported by the health endpoint.
var Version = "1.0.0"
