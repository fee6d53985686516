package crawler

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/PuerkitoBio/goquery"
)

// PageSource returns the HTML body of a page.
type PageSource interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

type PageCache interface {
	Get(ctx context.Context, url string) ([]byte, bool)
	Set(ctx context.Context, url string, body []byte)
}

// CachedSource serves pages from Cache before falling back to Next. A cache
// hit issues no request, so no politeness delay applies to it.
type CachedSource struct {
	Next  PageSource
	Cache PageCache
}

func (s CachedSource) Fetch(ctx context.Context, pageURL string) ([]byte, error) {
	if body, ok := s.Cache.Get(ctx, pageURL); ok {
		slog.Debug("página servida do cache", slog.String("url", pageURL))
		return body, nil
	}
	body, err := s.Next.Fetch(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	s.Cache.Set(ctx, pageURL, body)
	return body, nil
}

func document(ctx context.Context, src PageSource, pageURL string) (*goquery.Document, error) {
	body, err := src.Fetch(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse html from %s: %w", pageURL, err)
	}
	doc.Url, _ = url.Parse(pageURL)
	return doc, nil
}
