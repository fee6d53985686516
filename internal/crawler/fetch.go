package crawler

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/temoto/robotstxt"
	"golang.org/x/net/html/charset"

	"nutriscraper/internal/config"
	"nutriscraper/internal/model"
	"nutriscraper/internal/observability"
)

// Fetcher is the only component that talks to the scraped site. It issues one
// request at a time and sleeps between consecutive requests; retries with
// backoff are delegated to resty.
//
// A Fetcher is not safe for concurrent use.
type Fetcher struct {
	http      *resty.Client
	userAgent string
	delay     time.Duration
	jitter    time.Duration
	robots    bool
	groups    map[string]*robotstxt.Group
	last      time.Time
}

func NewFetcher(cfg *config.Config) *Fetcher {
	client := resty.New().
		SetTimeout(cfg.HTTPTimeout).
		SetHeaders(map[string]string{
			"User-Agent":      cfg.UserAgent,
			"Accept":          cfg.Accept,
			"Accept-Language": cfg.AcceptLanguage,
		}).
		SetRetryCount(cfg.Retry.MaxAttempts - 1).
		SetRetryWaitTime(cfg.Retry.InitialBackoff).
		SetRetryMaxWaitTime(cfg.Retry.MaxBackoff).
		AddRetryCondition(retryable).
		SetLogger(restyLogger{})

	return &Fetcher{
		http:      client,
		userAgent: cfg.UserAgent,
		delay:     cfg.RequestDelay,
		jitter:    cfg.DelayJitter,
		robots:    cfg.RespectRobots,
		groups:    make(map[string]*robotstxt.Group),
	}
}

// retryable: network errors, 429 and 5xx. Other statuses will not change on retry.
func retryable(r *resty.Response, err error) bool {
	if err != nil {
		return true
	}
	code := r.StatusCode()
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

// Fetch returns the body of rawURL decoded to UTF-8. Failures after the last
// retry are returned as *model.FetchError.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	if f.robots {
		if err := f.checkRobots(ctx, rawURL); err != nil {
			return nil, err
		}
	}

	resp, err := f.get(ctx, rawURL)
	attempts := 1
	if resp != nil && resp.Request != nil && resp.Request.Attempt > 0 {
		attempts = resp.Request.Attempt
	}
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		observability.FetchesTotal.WithLabelValues("network_error").Inc()
		return nil, &model.FetchError{URL: rawURL, Attempts: attempts, Err: err}
	}
	if !resp.IsSuccess() {
		observability.FetchesTotal.WithLabelValues("http_error").Inc()
		return nil, &model.FetchError{URL: rawURL, StatusCode: resp.StatusCode(), Attempts: attempts}
	}
	observability.FetchesTotal.WithLabelValues("ok").Inc()

	body, err := decodeBody(resp.Body(), resp.Header().Get("Content-Type"))
	if err != nil {
		return nil, fmt.Errorf("failed to decode body of %s: %w", rawURL, err)
	}
	return body, nil
}

func (f *Fetcher) get(ctx context.Context, rawURL string) (*resty.Response, error) {
	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	slog.Info("acessando", slog.String("url", rawURL))
	resp, err := f.http.R().SetContext(ctx).Get(rawURL)
	f.last = time.Now()
	return resp, err
}

// wait blocks until the politeness delay since the previous request elapsed.
func (f *Fetcher) wait(ctx context.Context) error {
	if f.last.IsZero() {
		return nil
	}
	d := f.delay
	if f.jitter > 0 {
		d += time.Duration(rand.Int63n(int64(f.jitter)))
	}
	remaining := d - time.Since(f.last)
	if remaining <= 0 {
		return nil
	}
	t := time.NewTimer(remaining)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *Fetcher) checkRobots(ctx context.Context, rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return &model.FetchError{URL: rawURL, Err: err}
	}
	group, ok := f.groups[u.Host]
	if !ok {
		group = f.loadRobots(ctx, u)
		f.groups[u.Host] = group
	}
	if group != nil && !group.Test(u.EscapedPath()) {
		return &model.FetchError{URL: rawURL, Err: model.ErrDisallowed}
	}
	return nil
}

// loadRobots returns nil (allow all) when robots.txt cannot be read.
func (f *Fetcher) loadRobots(ctx context.Context, u *url.URL) *robotstxt.Group {
	robotsURL := u.Scheme + "://" + u.Host + "/robots.txt"
	resp, err := f.get(ctx, robotsURL)
	if err != nil {
		slog.Warn("erro ao carregar robots.txt, ignorando", slog.String("url", robotsURL), slog.Any("error", err))
		return nil
	}
	data, err := robotstxt.FromStatusAndBytes(resp.StatusCode(), resp.Body())
	if err != nil {
		slog.Warn("erro ao interpretar robots.txt, ignorando", slog.String("url", robotsURL), slog.Any("error", err))
		return nil
	}
	return data.FindGroup(f.userAgent)
}

func decodeBody(body []byte, contentType string) ([]byte, error) {
	r, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		return body, nil
	}
	return io.ReadAll(r)
}

type restyLogger struct{}

func (restyLogger) Errorf(format string, v ...interface{}) {
	slog.Error(fmt.Sprintf(format, v...), slog.String("component", "resty"))
}

func (restyLogger) Warnf(format string, v ...interface{}) {
	slog.Warn(fmt.Sprintf(format, v...), slog.String("component", "resty"))
}

func (restyLogger) Debugf(format string, v ...interface{}) {
	slog.Debug(fmt.Sprintf(format, v...), slog.String("component", "resty"))
}
