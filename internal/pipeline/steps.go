package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"nutriscraper/internal/crawler"
	"nutriscraper/internal/storage"
)

// Summarizer is implemented by steps that report per-item outcomes.
type Summarizer interface {
	Summary() crawler.Summary
}

// CollectStep discovers product URLs and writes the URL map.
type CollectStep struct {
	Collector  *crawler.Collector
	URLMapPath string

	summary crawler.Summary
}

func (s *CollectStep) Name() string { return crawler.StageCollect }

func (s *CollectStep) Run(ctx context.Context) error {
	urls, sum := s.Collector.Collect(ctx)
	s.summary = sum
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := storage.SaveURLMap(s.URLMapPath, urls); err != nil {
		return err
	}
	slog.Info("URLs salvas",
		slog.String("path", s.URLMapPath),
		slog.Int("total", urls.Total()))
	return nil
}

func (s *CollectStep) Summary() crawler.Summary { return s.summary }

// ExtractStep reads the URL map and writes the dataset. With Resume the
// existing dataset is kept and URLs already in it are not fetched again.
type ExtractStep struct {
	Extractor   *crawler.Extractor
	Categories  []string
	URLMapPath  string
	DatasetPath string
	Resume      bool
	// Sinks receive every record after the dataset.
	Sinks []crawler.RecordSink

	summary crawler.Summary
}

func (s *ExtractStep) Name() string { return crawler.StageExtract }

func (s *ExtractStep) Run(ctx context.Context) (err error) {
	urls, err := storage.LoadURLMap(s.URLMapPath, s.Categories)
	if err != nil {
		return err
	}

	var (
		dataset *storage.Dataset
		done    map[string]bool
	)
	if s.Resume {
		dataset, done, err = storage.AppendDataset(s.DatasetPath)
	} else {
		dataset, err = storage.CreateDataset(s.DatasetPath)
	}
	if err != nil {
		return err
	}
	defer func() {
		if cerr := dataset.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	if len(done) > 0 {
		slog.Info("retomando extração", slog.Int("already_extracted", len(done)))
	}

	sinks := append([]crawler.RecordSink{dataset}, s.Sinks...)
	s.summary, err = s.Extractor.Extract(ctx, urls, done, sinks...)
	if err != nil {
		return fmt.Errorf("extraction stopped: %w", err)
	}
	slog.Info("dataset salvo", slog.String("path", s.DatasetPath), slog.Int("rows", s.summary.Succeeded))
	return nil
}

func (s *ExtractStep) Summary() crawler.Summary { return s.summary }

var (
	_ Summarizer         = (*CollectStep)(nil)
	_ Summarizer         = (*ExtractStep)(nil)
	_ crawler.RecordSink = (*storage.Dataset)(nil)
)
