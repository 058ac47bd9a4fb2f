package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/eduai/lkpd/internal/model"
)

const docExt = ".json"

// rename is swapped in tests to simulate a failing replace.
var rename = os.Rename

// syncDir is swapped in tests.
var syncDir = syncDirEntry

// syncDirEntry flushes a directory so a completed rename survives power loss.
func syncDirEntry(dir string) error {
	f, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Sync()
}

// FileDocuments stores one `<key>.json` file per document in a directory.
type FileDocuments struct {
	dir string
}

// NewFileDocuments creates dir if needed and returns a collection rooted there.
func NewFileDocuments(dir string) (*FileDocuments, error) {
	if dir == "" {
		return nil, errors.New("empty document directory")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create %s: %w", dir, err)
	}
	return &FileDocuments{dir: dir}, nil
}

// Dir returns the directory backing the collection.
func (d *FileDocuments) Dir() string { return d.dir }

func (d *FileDocuments) path(key string) string {
	return filepath.Join(d.dir, key+docExt)
}

// Write encodes doc into a temporary file next to the target and renames it
// over the target. On failure the temporary file is removed and the target is
// left untouched.
func (d *FileDocuments) Write(key string, doc any) (err error) {
	if !validKey(key) {
		return invalidKey(key)
	}

	// The leading dot keeps in-flight files out of Keys.
	tmp, err := os.CreateTemp(d.dir, "."+key+".*.tmp")
	if err != nil {
		return persistErr("create temp for", key, err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	enc := json.NewEncoder(tmp)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err = enc.Encode(doc); err != nil {
		return persistErr("encode", key, err)
	}
	if err = tmp.Sync(); err != nil {
		return persistErr("sync", key, err)
	}
	if err = tmp.Close(); err != nil {
		return persistErr("close", key, err)
	}
	if err = rename(tmp.Name(), d.path(key)); err != nil {
		return persistErr("replace", key, err)
	}
	// The new document is in place; only its durability is at stake now.
	if serr := syncDir(d.dir); serr != nil {
		return persistErr("sync dir for", key, serr)
	}
	return nil
}

// Load decodes the document stored at key into v.
func (d *FileDocuments) Load(key string, v any) error {
	if !validKey(key) {
		return fmt.Errorf("document %q: %w", key, model.ErrNotFound)
	}
	data, err := os.ReadFile(d.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("document %q: %w", key, model.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("read document %q: %w", key, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrCorruptDocument, key, err)
	}
	return nil
}

// Keys lists the stored document keys in lexical order.
func (d *FileDocuments) Keys() ([]string, error) {
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", d.dir, err)
	}
	keys := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, docExt) {
			continue
		}
		keys = append(keys, strings.TrimSuffix(name, docExt))
	}
	sort.Strings(keys)
	return keys, nil
}
