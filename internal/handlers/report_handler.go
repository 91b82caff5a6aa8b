// File: internal/handlers/report_handler.go
package handlers

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/iyunix/go-medreport/internal/domain"
	"github.com/iyunix/go-medreport/internal/dtos"
	"github.com/iyunix/go-medreport/internal/worker"
)

// multipart overhead allowed on top of the image itself
const uploadSlack = 1 << 20

// Upload form fields, in lookup order.
var uploadFields = []string{"uploaded_file", "file"}

type ReportSubmitter interface {
	Submit(ctx context.Context, image []byte, contentType, userID string) (*domain.Report, *worker.Job, error)
}

type ReportQuerier interface {
	List(ctx context.Context, userID string) ([]domain.Report, error)
	Get(ctx context.Context, id string) (*domain.Report, error)
	Search(ctx context.Context, userID, query string) ([]domain.Report, error)
	Delete(ctx context.Context, id, userID string) (bool, error)
}

type ReportHandler struct {
	pipeline       ReportSubmitter
	reports        ReportQuerier
	maxUploadBytes int64
	logger         Logger
}

func NewReportHandler(pipeline ReportSubmitter, reports ReportQuerier, maxUploadBytes int64, logger Logger) *ReportHandler {
	return &ReportHandler{pipeline: pipeline, reports: reports, maxUploadBytes: maxUploadBytes, logger: logger}
}

// Upload handles POST /report/upload?user_id=. The image is read from the
// "uploaded_file" multipart field, or "file" when that is absent.
func (h *ReportHandler) Upload(w http.ResponseWriter, r *http.Request) {
	userID, ok := resolveUserID(w, r, r.URL.Query().Get("user_id"), true)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+uploadSlack)
	file, header, err := formFile(r, uploadFields...)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, "uploaded file is too large", http.StatusRequestEntityTooLarge)
			return
		}
		writeError(w, "a JPEG file is required in the \"uploaded_file\" form field", http.StatusBadRequest)
		return
	}
	defer file.Close()

	image, err := io.ReadAll(io.LimitReader(file, h.maxUploadBytes+1))
	if err != nil {
		writeError(w, "could not read uploaded file", http.StatusBadRequest)
		return
	}

	created, _, err := h.pipeline.Submit(r.Context(), image, header.Header.Get("Content-Type"), userID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeData(w, http.StatusCreated, dtos.FromReport(*created))
}

// formFile returns the first of fields present in the multipart form.
func formFile(r *http.Request, fields ...string) (multipart.File, *multipart.FileHeader, error) {
	for _, field := range fields {
		file, header, err := r.FormFile(field)
		if errors.Is(err, http.ErrMissingFile) {
			continue
		}
		return file, header, err
	}
	return nil, nil, http.ErrMissingFile
}

// List handles GET /report?user_id=.
func (h *ReportHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := resolveUserID(w, r, r.URL.Query().Get("user_id"), true)
	if !ok {
		return
	}
	reports, err := h.reports.List(r.Context(), userID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeData(w, http.StatusOK, dtos.FromReports(reports))
}

// Search handles GET /report/search?q=&user_id=.
func (h *ReportHandler) Search(w http.ResponseWriter, r *http.Request) {
	userID, ok := resolveUserID(w, r, r.URL.Query().Get("user_id"), true)
	if !ok {
		return
	}
	reports, err := h.reports.Search(r.Context(), userID, r.URL.Query().Get("q"))
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeData(w, http.StatusOK, dtos.FromReports(reports))
}

// Get handles GET /report/{report_id}; a missing report is {"data": null}.
func (h *ReportHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := resolveUserID(w, r, r.URL.Query().Get("user_id"), false)
	if !ok {
		return
	}
	rep, err := h.reports.Get(r.Context(), mux.Vars(r)["report_id"])
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	if rep == nil || (userID != "" && rep.UserID != userID) {
		writeData(w, http.StatusOK, nil)
		return
	}
	writeData(w, http.StatusOK, dtos.FromReport(*rep))
}

// Delete handles DELETE /report/{report_id}.
func (h *ReportHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := resolveUserID(w, r, r.URL.Query().Get("user_id"), false)
	if !ok {
		return
	}
	deleted, err := h.reports.Delete(r.Context(), mux.Vars(r)["report_id"], userID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeData(w, http.StatusOK, deleted)
}
