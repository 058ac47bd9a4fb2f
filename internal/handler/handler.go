// Package handler exposes worksheet generation, submission and recap over a
// JSON HTTP API.
package handler

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/eduai/lkpd/internal/i18n"
	"github.com/eduai/lkpd/internal/model"
	"github.com/eduai/lkpd/internal/recap"
)

// Worksheets generates and serves worksheets.
type Worksheets interface {
	Generate(ctx context.Context, theme, level string) (model.Worksheet, error)
	Get(id string) (model.Worksheet, error)
	IDs() ([]string, error)
}

// Submissions scores and stores student answers.
type Submissions interface {
	Submit(ctx context.Context, worksheetID, studentName string, answers []model.SubmittedAnswer) (model.EvaluationResult, error)
}

// Recaps projects answer logs.
type Recaps interface {
	Project(worksheetID string, labels recap.Labels) []model.RecapRow
}

// ModelLister reports the models offered by the text model endpoint.
type ModelLister interface {
	ListModels(ctx context.Context) ([]string, error)
}

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	worksheets  Worksheets
	submissions Submissions
	recaps      Recaps
	models      ModelLister
}

// New creates a new Handler. models may be nil.
func New(ws Worksheets, subs Submissions, recaps Recaps, models ModelLister) *Handler {
	return &Handler{worksheets: ws, submissions: subs, recaps: recaps, models: models}
}

// Routes registers the API routes; mount them under /api.
func (h *Handler) Routes(r chi.Router) {
	r.Use(i18n.Middleware)
	r.Post("/generate", h.handleGenerate)
	r.Get("/lkpd/{id}", h.handleWorksheet)
	r.Post("/submit", h.handleSubmit)
	r.Get("/answers/{id}", h.handleAnswers)
	r.Get("/export/{id}", h.handleExportCSV)
	r.Get("/export-xlsx/{id}", h.handleExportXLSX)
	r.Get("/all-ids", h.handleAllIDs)
	r.Get("/models", h.handleModels)
}

func (h *Handler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	raw, err := decodeBody(r)
	if err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, ErrInvalidBody, map[string]string{"detail": err.Error()})
		return
	}
	req := parseGenerate(raw)
	if err := validate.Struct(req); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, ErrValidation, validationFields(err))
		return
	}

	ws, err := h.worksheets.Generate(r.Context(), req.Theme, req.Level)
	if err != nil {
		fail(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, ws)
}

func (h *Handler) handleWorksheet(w http.ResponseWriter, r *http.Request) {
	ws, err := h.worksheets.Get(chi.URLParam(r, "id"))
	if err != nil {
		fail(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, ws)
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	raw, err := decodeBody(r)
	if err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, ErrInvalidBody, map[string]string{"detail": err.Error()})
		return
	}
	req := parseSubmit(raw)
	if err := validate.Struct(req); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, ErrValidation, validationFields(err))
		return
	}

	res, err := h.submissions.Submit(r.Context(), req.WorksheetID, req.Name, req.Answers)
	if err != nil {
		fail(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": i18n.T(r.Context(), "SubmitSaved"),
		"result":  res,
	})
}

func (h *Handler) labels(ctx context.Context) recap.Labels {
	return recap.LocalizedLabels(i18n.Translator(ctx))
}

func (h *Handler) handleAnswers(w http.ResponseWriter, r *http.Request) {
	rows := h.recaps.Project(chi.URLParam(r, "id"), h.labels(r.Context()))
	writeJSON(w, http.StatusOK, rows)
}

func (h *Handler) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	h.export(w, r, "csv", recap.ContentTypeCSV, recap.WriteCSV)
}

func (h *Handler) handleExportXLSX(w http.ResponseWriter, r *http.Request) {
	h.export(w, r, "xlsx", recap.ContentTypeXLSX, recap.WriteXLSX)
}

type writeFunc func(w io.Writer, rows []model.RecapRow, labels recap.Labels) error

// export renders into a buffer first so that a failed render still yields a
// clean error response.
func (h *Handler) export(w http.ResponseWriter, r *http.Request, ext, contentType string, write writeFunc) {
	id := chi.URLParam(r, "id")
	labels := h.labels(r.Context())
	rows := h.recaps.Project(id, labels)
	if len(rows) == 0 {
		writeError(r.Context(), w, http.StatusNotFound, ErrNoSubmissions, nil)
		return
	}

	var buf bytes.Buffer
	if err := write(&buf, rows, labels); err != nil {
		fail(r.Context(), w, fmt.Errorf("render %s recap: %w", ext, err))
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=rekap_%s.%s", id, ext))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (h *Handler) handleAllIDs(w http.ResponseWriter, r *http.Request) {
	ids, err := h.worksheets.IDs()
	if err != nil {
		fail(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"ids": ids})
}

// handleModels is diagnostic and always answers 200, reporting failures inline.
func (h *Handler) handleModels(w http.ResponseWriter, r *http.Request) {
	if h.models == nil {
		writeJSON(w, http.StatusOK, map[string]any{"ok": false, "error": "no text model configured"})
		return
	}
	names, err := h.models.ListModels(r.Context())
	if err != nil {
		writeJSON(w, http.StatusOK, map[string]any{"ok": false, "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "models": names})
}
