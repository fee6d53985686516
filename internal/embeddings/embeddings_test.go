package embeddings

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nutriscraper/internal/model"
)

func TestChunk(t *testing.T) {
	tests := []struct {
		name string
		text string
		size int
		want []string
	}{
		{"empty", "", 10, nil},
		{"fits", "Whey\n", 10, []string{"Whey\n"}},
		{"keeps lines whole", "aaaa\nbbbb\ncc", 10, []string{"aaaa\nbbbb\n", "cc"}},
		{"splits long line by rune", "ççççç", 2, []string{"çç", "çç", "ç"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Chunk(tt.text, tt.size))
		})
	}
}

func TestChunkNeverBreaksRunes(t *testing.T) {
	text := strings.Repeat("Sódio (mg): 85\nPorção: 30 g\n", 50)
	chunks := Chunk(text, 37)
	assert.Equal(t, text, strings.Join(chunks, ""))
	for _, c := range chunks {
		assert.True(t, utf8.ValidString(c))
		assert.LessOrEqual(t, utf8.RuneCountInString(c), 37)
	}
}

type fakeEmbedder struct {
	fail string
}

func (f fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if f.fail != "" && strings.Contains(text, f.fail) {
		return nil, errors.New("rate limited")
	}
	return []float32{float32(len(text))}, nil
}

type memoryStore struct {
	mu      sync.Mutex
	deleted []string
	saved   map[string][]string
}

func (m *memoryStore) DeleteByURL(_ context.Context, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, url)
	delete(m.saved, url)
	return nil
}

func (m *memoryStore) Save(_ context.Context, url, _, _, content string, _ []float32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved[url] = append(m.saved[url], content)
	return nil
}

func TestRunWorkers(t *testing.T) {
	records := []model.ProductRecord{
		{Name: "Whey", URL: "u1", Category: "proteinas"},
		{Name: "Barra", URL: "u2", Category: "snacks"},
		{Name: "Panic", URL: "u3", Category: "pre-treino"},
	}
	store := &memoryStore{saved: map[string][]string{}}

	res := RunWorkers(context.Background(), records, fakeEmbedder{fail: "Panic"}, store, 2)

	assert.Equal(t, Result{Indexed: 2, Failed: 1}, res)
	assert.ElementsMatch(t, []string{"u1", "u2", "u3"}, store.deleted)
	require.Contains(t, store.saved, "u1")
	assert.Contains(t, store.saved["u1"][0], "Whey")
	assert.NotContains(t, store.saved, "u3")
}

func TestRunWorkersCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	store := &memoryStore{saved: map[string][]string{}}

	res := RunWorkers(ctx, []model.ProductRecord{{URL: "u1"}, {URL: "u2"}}, fakeEmbedder{}, store, 0)
	assert.LessOrEqual(t, res.Indexed+res.Failed, 2)
}
