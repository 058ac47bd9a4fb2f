package main

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestWriteOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rekap.csv")
	err := writeOutput(path, func(w io.Writer) error {
		_, err := io.WriteString(w, "Nama,Nilai (%)\n")
		return err
	})
	if err != nil {
		t.Fatalf("writeOutput: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != "Nama,Nilai (%)\n" {
		t.Errorf("file = %q", data)
	}
}

func TestWriteOutputRemovesPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rekap.xlsx")
	cause := errors.New("render failed")
	err := writeOutput(path, func(w io.Writer) error {
		_, _ = io.WriteString(w, "partial")
		return cause
	})
	if !errors.Is(err, cause) {
		t.Fatalf("writeOutput error = %v, want cause", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("partial file left behind: stat error = %v", err)
	}
}
