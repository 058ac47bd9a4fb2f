package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/eduai/lkpd/internal/i18n"
	"github.com/eduai/lkpd/internal/llm"
	"github.com/eduai/lkpd/internal/model"
	"github.com/eduai/lkpd/internal/worksheet"
)

// ErrCode identifies an API error independently of its localized message.
type ErrCode string

const (
	ErrValidation    ErrCode = "VALIDATION_ERROR"
	ErrInvalidBody   ErrCode = "INVALID_PAYLOAD"
	ErrNotFound      ErrCode = "NOT_FOUND"
	ErrNoSubmissions ErrCode = "NO_SUBMISSIONS"
	ErrGeneration    ErrCode = "GENERATION_FAILED"
	ErrInternal      ErrCode = "INTERNAL_ERROR"
)

var messageIDs = map[ErrCode]string{
	ErrValidation:    "ErrInvalidInput",
	ErrInvalidBody:   "ErrInvalidInput",
	ErrNotFound:      "ErrNotFound",
	ErrNoSubmissions: "ErrNoSubmissions",
	ErrGeneration:    "ErrGeneration",
	ErrInternal:      "ErrInternal",
}

type errorBody struct {
	Code    ErrCode           `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

func writeError(ctx context.Context, w http.ResponseWriter, status int, code ErrCode, fields map[string]string) {
	writeJSON(w, status, map[string]errorBody{
		"error": {Code: code, Message: i18n.T(ctx, messageIDs[code]), Fields: fields},
	})
}

// fail maps a domain error onto a status code and error envelope.
func fail(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, model.ErrInvalidInput):
		writeError(ctx, w, http.StatusBadRequest, ErrValidation, map[string]string{"detail": err.Error()})
	case errors.Is(err, model.ErrNotFound):
		writeError(ctx, w, http.StatusNotFound, ErrNotFound, nil)
	case errors.Is(err, llm.ErrTransport), errors.Is(err, worksheet.ErrMalformedOutput):
		slog.Error("generation failed", "error", err)
		writeError(ctx, w, http.StatusBadGateway, ErrGeneration, nil)
	default:
		slog.Error("request failed", "error", err)
		writeError(ctx, w, http.StatusInternalServerError, ErrInternal, nil)
	}
}
