package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"nutriscraper/internal/model"
)

// SaveURLMap writes m as indented JSON. Keys come out sorted, so the same map
// always produces the same bytes. The file is replaced atomically.
func SaveURLMap(path string, m model.CategoryURLMap) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(m); err != nil {
		return fmt.Errorf("failed to encode url map: %w", err)
	}
	return writeAtomic(path, buf.Bytes())
}

// LoadURLMap reads the URL map written by SaveURLMap. The file must hold
// exactly the given categories; anything else is an *model.InputMissingError.
func LoadURLMap(path string, categories []string) (model.CategoryURLMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &model.InputMissingError{Path: path, Err: err}
	}

	var m model.CategoryURLMap
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, &model.InputMissingError{Path: path, Err: err}
	}
	if m == nil {
		return nil, &model.InputMissingError{Path: path, Err: fmt.Errorf("file holds no object")}
	}

	want := make(map[string]bool, len(categories))
	for _, c := range categories {
		want[c] = true
		if _, ok := m[c]; !ok {
			return nil, &model.InputMissingError{Path: path, Err: fmt.Errorf("category %q not found", c)}
		}
	}
	var unknown []string
	for k, v := range m {
		if !want[k] {
			unknown = append(unknown, k)
		}
		if v == nil {
			m[k] = []string{}
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, &model.InputMissingError{Path: path, Err: fmt.Errorf("unknown categories %q", unknown)}
	}
	return m, nil
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to chmod %s: %w", tmp.Name(), err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move url map into place: %w", err)
	}
	return nil
}
