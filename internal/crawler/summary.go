package crawler

import (
	"errors"

	"nutriscraper/internal/model"
)

const (
	StageCollect = "collect"
	StageExtract = "extract"
)

// Failure is one category or product a stage gave up on.
type Failure struct {
	Stage    string
	Category string
	URL      string
	Err      error
}

// Summary counts what a stage did. Collect counts categories, extract counts
// product URLs.
type Summary struct {
	Stage     string
	Total     int
	Succeeded int
	Skipped   int
	Failed    int
	Resumed   int
	Warnings  int
	Failures  []Failure
}

func (s *Summary) fail(f Failure) {
	s.Failed++
	s.Failures = append(s.Failures, f)
}

func (s *Summary) skip(f Failure) {
	s.Skipped++
	s.Failures = append(s.Failures, f)
}

// SuccessRate is Succeeded over the items actually attempted, in percent.
func (s Summary) SuccessRate() float64 {
	attempted := s.Total - s.Resumed
	if attempted <= 0 {
		return 0
	}
	return float64(s.Succeeded) / float64(attempted) * 100
}

func failedURL(err error) string {
	var fetchErr *model.FetchError
	if errors.As(err, &fetchErr) {
		return fetchErr.URL
	}
	var structErr *model.ParseStructureError
	if errors.As(err, &structErr) {
		return structErr.URL
	}
	return ""
}
