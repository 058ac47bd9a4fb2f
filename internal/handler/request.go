package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/eduai/lkpd/internal/model"
)

const maxBodyBytes = 1 << 20

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

type generateRequest struct {
	Theme string `json:"theme" validate:"required,max=200"`
	Level string `json:"level" validate:"required,max=100"`
}

type submitRequest struct {
	WorksheetID string                  `json:"lkpd_id" validate:"required,max=64"`
	Name        string                  `json:"name" validate:"required,max=200"`
	Answers     []model.SubmittedAnswer `json:"answers"`
}

// decodeBody reads a JSON object into a generic map so that field aliases can
// be resolved before strict validation.
func decodeBody(r *http.Request) (map[string]any, error) {
	var raw map[string]any
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return map[string]any{}, nil
		}
		return nil, err
	}
	if raw == nil {
		raw = map[string]any{}
	}
	return raw, nil
}

func parseGenerate(raw map[string]any) generateRequest {
	return generateRequest{
		Theme: pick(raw, "theme", "tema"),
		Level: pick(raw, "level", "tingkat", "difficulty"),
	}
}

func parseSubmit(raw map[string]any) submitRequest {
	req := submitRequest{
		WorksheetID: pick(raw, "lkpd_id", "id"),
		Name:        pick(raw, "name", "nama"),
		Answers:     []model.SubmittedAnswer{},
	}
	items, ok := raw["answers"].([]any)
	if !ok {
		items, _ = raw["jawaban"].([]any)
	}
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		req.Answers = append(req.Answers, model.SubmittedAnswer{
			QuestionID: text(m["id"]),
			Response:   pick(m, "response", "jawaban", "answer"),
		})
	}
	return req
}

// pick returns the first non-empty alias value, trimmed.
func pick(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s := strings.TrimSpace(text(m[k])); s != "" {
			return s
		}
	}
	return ""
}

// text accepts strings and JSON numbers, so {"id": 1} and {"id": "1"} agree.
func text(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case nil:
		return ""
	default:
		return fmt.Sprint(t)
	}
}

// validationFields flattens validator errors into field -> failed rule.
func validationFields(err error) map[string]string {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return map[string]string{"detail": err.Error()}
	}
	fields := make(map[string]string, len(ve))
	for _, fe := range ve {
		fields[fe.Field()] = fe.Tag()
	}
	return fields
}
