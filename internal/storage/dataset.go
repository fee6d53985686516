package storage

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"time"

	"nutriscraper/internal/model"
)

// TimestampLayout formats collection_timestamp.
const TimestampLayout = time.DateTime

var DatasetHeader = []string{
	"name", "url", "portion",
	"calories", "carbs", "protein", "fat", "saturated_fat", "fiber", "sugars", "sodium",
	"collection_timestamp", "category",
}

const (
	colName      = 0
	colURL       = 1
	colPortion   = 2
	colNutrients = 3
	colTimestamp = 11
	colCategory  = 12
)

// Dataset appends product records to the CSV file. Each row is flushed as it
// is written, so an interrupted run leaves a readable file.
type Dataset struct {
	path string
	f    *os.File
	w    *csv.Writer
}

// CreateDataset truncates path and writes the header.
func CreateDataset(path string) (*Dataset, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", filepath.Dir(path), err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create dataset: %w", err)
	}
	d := &Dataset{path: path, f: f, w: csv.NewWriter(f)}
	if err := d.write(DatasetHeader); err != nil {
		f.Close()
		return nil, err
	}
	return d, nil
}

// AppendDataset reopens an existing dataset for appending and returns the
// URLs it already holds. A missing file is created as by CreateDataset. A row
// left unfinished by an interrupted run is cut off before anything is appended.
func AppendDataset(path string) (*Dataset, map[string]bool, error) {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) || (err == nil && info.Size() == 0) {
		d, err := CreateDataset(path)
		return d, map[string]bool{}, err
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to stat dataset: %w", err)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open dataset: %w", err)
	}
	size, err := dropPartialRow(f)
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	if size == 0 {
		f.Close()
		d, err := CreateDataset(path)
		return d, map[string]bool{}, err
	}

	records, err := ReadDataset(path)
	if err != nil {
		f.Close()
		return nil, nil, err
	}

	done := make(map[string]bool, len(records))
	for _, r := range records {
		done[r.URL] = true
	}
	return &Dataset{path: path, f: f, w: csv.NewWriter(f)}, done, nil
}

func (d *Dataset) Append(_ context.Context, r model.ProductRecord) error {
	return d.write(recordRow(r))
}

func (d *Dataset) Close() error {
	d.w.Flush()
	werr := d.w.Error()
	if err := d.f.Close(); err != nil {
		return fmt.Errorf("failed to close dataset: %w", err)
	}
	return werr
}

func (d *Dataset) write(row []string) error {
	if err := d.w.Write(row); err != nil {
		return fmt.Errorf("failed to write %s: %w", d.path, err)
	}
	d.w.Flush()
	if err := d.w.Error(); err != nil {
		return fmt.Errorf("failed to write %s: %w", d.path, err)
	}
	return nil
}

// ReadDataset loads every well-formed row of the dataset. Rows with the wrong
// number of fields, such as a line cut short by a crash, are logged and dropped.
func ReadDataset(path string) ([]model.ProductRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset header: %w", err)
	}
	if !slices.Equal(header, DatasetHeader) {
		return nil, fmt.Errorf("dataset %s has unexpected header %q", path, header)
	}

	var records []model.ProductRecord
	for line := 2; ; line++ {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			slog.Warn("linha inválida no dataset", slog.String("path", path), slog.Int("line", line), slog.Any("error", err))
			continue
		}
		rec, err := parseRow(row)
		if err != nil {
			slog.Warn("linha inválida no dataset", slog.String("path", path), slog.Int("line", line), slog.Any("error", err))
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

func recordRow(r model.ProductRecord) []string {
	row := make([]string, 0, len(DatasetHeader))
	row = append(row, r.Name, r.URL, r.Portion)
	for _, n := range model.Nutrients {
		row = append(row, strconv.FormatFloat(r.Get(n), 'f', -1, 64))
	}
	return append(row, r.CollectedAt.Format(TimestampLayout), r.Category)
}

func parseRow(row []string) (model.ProductRecord, error) {
	if len(row) != len(DatasetHeader) {
		return model.ProductRecord{}, fmt.Errorf("expected %d fields, got %d", len(DatasetHeader), len(row))
	}
	rec := model.ProductRecord{
		Name:     row[colName],
		URL:      row[colURL],
		Category: row[colCategory],
	}
	rec.Portion = row[colPortion]
	for i, n := range model.Nutrients {
		v, err := strconv.ParseFloat(row[colNutrients+i], 64)
		if err != nil {
			return model.ProductRecord{}, fmt.Errorf("column %s: %w", n, err)
		}
		rec.Set(n, v)
	}
	ts, err := time.ParseInLocation(TimestampLayout, row[colTimestamp], time.Local)
	if err != nil {
		return model.ProductRecord{}, fmt.Errorf("column collection_timestamp: %w", err)
	}
	rec.CollectedAt = ts
	return rec, nil
}

// dropPartialRow truncates f after its last newline and returns the new size.
// Every row is written with a trailing newline, so anything past the last one
// is a row cut short, possibly inside an open quote.
func dropPartialRow(f *os.File) (int64, error) {
	data, err := io.ReadAll(f)
	if err != nil {
		return 0, fmt.Errorf("failed to read dataset: %w", err)
	}
	size := int64(bytes.LastIndexByte(data, '\n') + 1)
	if size == int64(len(data)) {
		return size, nil
	}
	slog.Warn("linha incompleta removida do dataset",
		slog.String("path", f.Name()),
		slog.Int("bytes", len(data)-int(size)))
	if err := f.Truncate(size); err != nil {
		return 0, fmt.Errorf("failed to truncate dataset: %w", err)
	}
	return size, nil
}
