package store

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/eduai/lkpd/internal/model"
)

var (
	// ErrPersistence wraps any failure to durably write a document.
	ErrPersistence = errors.New("persistence failure")
	// ErrCorruptDocument is returned by Load when stored bytes do not decode.
	ErrCorruptDocument = errors.New("corrupt document")
)

// Documents is a keyed collection of JSON documents.
//
// Write replaces the whole document at key atomically: readers observe either
// the previous complete document or the new one. Load decodes the document
// into v and returns an error wrapping model.ErrNotFound or ErrCorruptDocument
// when it cannot.
type Documents interface {
	Write(key string, doc any) error
	Load(key string, v any) error
	Keys() ([]string, error)
}

// Read loads key into v and reports whether a well-formed document exists.
//
// It applies the CorruptAsAbsent policy: a document that is missing, cannot
// be read, or does not decode into v is reported as absent. Read never fails.
func Read(d Documents, key string, v any) bool {
	err := d.Load(key, v)
	switch {
	case err == nil:
		return true
	case errors.Is(err, model.ErrNotFound):
		return false
	case errors.Is(err, ErrCorruptDocument):
		slog.Warn("corrupt document treated as absent", "key", key, "error", err)
		return false
	default:
		slog.Warn("unreadable document treated as absent", "key", key, "error", err)
		return false
	}
}

// Append reads the list stored at key (empty when absent or corrupt), appends
// item and writes the list back.
//
// Concurrent appends to the same key race: both may read the same list and
// the later write drops the earlier item.
func Append[T any](d Documents, key string, item T) error {
	var items []T
	if !Read(d, key, &items) {
		items = nil
	}
	items = append(items, item)
	return d.Write(key, items)
}

// validKey reports whether key can be used as a document name: non-empty,
// no path separators, no parent references.
func validKey(key string) bool {
	if key == "" || key == "." || key == ".." {
		return false
	}
	if strings.ContainsAny(key, `/\`) || strings.ContainsRune(key, 0) {
		return false
	}
	return !strings.HasPrefix(key, ".")
}

func invalidKey(key string) error {
	return fmt.Errorf("%w: document key %q", model.ErrInvalidInput, key)
}

func persistErr(op, key string, err error) error {
	return fmt.Errorf("%w: %s %s: %w", ErrPersistence, op, key, err)
}
