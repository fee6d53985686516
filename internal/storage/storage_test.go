package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nutriscraper/internal/model"
)

var categories = []string{"pre-treino", "snacks", "proteinas", "creatinas"}

func TestURLMapRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "json", "produtos_urls.json")
	m := model.CategoryURLMap{
		"pre-treino": {"https://adaptogen.com.br/produto/panic/"},
		"snacks":     {},
		"proteinas":  {"https://adaptogen.com.br/produto/whey/?a=1&b=2", "https://adaptogen.com.br/produto/iso/"},
		"creatinas":  {"https://adaptogen.com.br/produto/creatina/"},
	}

	require.NoError(t, SaveURLMap(path, m))
	got, err := LoadURLMap(path, categories)
	require.NoError(t, err)
	assert.Equal(t, m, got)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "?a=1&b=2")

	require.NoError(t, SaveURLMap(path, got))
	again, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, data, again)
}

func TestLoadURLMapErrors(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
		return p
	}

	tests := []struct {
		name string
		path string
		msg  string
	}{
		{"missing file", filepath.Join(dir, "nope.json"), "no such file"},
		{"invalid json", write("bad.json", "{not json"), "invalid"},
		{"missing category", write("partial.json", `{"pre-treino":[],"snacks":[],"proteinas":[]}`), `"creatinas"`},
		{"unknown category", write("extra.json", `{"pre-treino":[],"snacks":[],"proteinas":[],"creatinas":[],"vitaminas":[]}`), "vitaminas"},
		{"null document", write("null.json", "null"), "no object"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadURLMap(tt.path, categories)
			var missing *model.InputMissingError
			require.True(t, errors.As(err, &missing))
			assert.Equal(t, tt.path, missing.Path)
			assert.Contains(t, err.Error(), tt.msg)
			assert.Contains(t, err.Error(), "crawler collect")
		})
	}
}

func TestLoadURLMapNullCategory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "m.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"pre-treino":null,"snacks":[],"proteinas":[],"creatinas":[]}`), 0o644))

	m, err := LoadURLMap(path, categories)
	require.NoError(t, err)
	assert.NotNil(t, m["pre-treino"])
	assert.Empty(t, m["pre-treino"])
}

func sampleRecord(url string) model.ProductRecord {
	return model.ProductRecord{
		Name: `Whey "Isolado", baunilha`,
		URL:  url,
		Nutrition: model.Nutrition{
			Portion:  "30 g (1 scoop)",
			Calories: 120,
			Carbs:    2.5,
			Protein:  24,
			Sodium:   85,
		},
		CollectedAt: time.Date(2024, 5, 1, 10, 30, 15, 0, time.Local),
		Category:    "proteinas",
	}
}

func TestDatasetWriteAndRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dados", "produtos.csv")

	d, err := CreateDataset(path)
	require.NoError(t, err)
	rec := sampleRecord("https://adaptogen.com.br/produto/whey/")
	require.NoError(t, d.Append(context.Background(), rec))
	require.NoError(t, d.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "name,url,portion,calories,carbs,protein,fat,saturated_fat,fiber,sugars,sodium,collection_timestamp,category", lines[0])
	assert.Equal(t, `"Whey ""Isolado"", baunilha",https://adaptogen.com.br/produto/whey/,30 g (1 scoop),120,2.5,24,0,0,0,0,85,2024-05-01 10:30:15,proteinas`, lines[1])

	got, err := ReadDataset(path)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, rec.Name, got[0].Name)
	assert.Equal(t, rec.Nutrition, got[0].Nutrition)
	assert.True(t, rec.CollectedAt.Equal(got[0].CollectedAt))
}

func TestCreateDatasetTruncates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "p.csv")
	require.NoError(t, os.WriteFile(path, []byte("lixo\n"), 0o644))

	d, err := CreateDataset(path)
	require.NoError(t, err)
	require.NoError(t, d.Close())

	got, err := ReadDataset(path)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestAppendDatasetResumes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "p.csv")

	d, err := CreateDataset(path)
	require.NoError(t, err)
	require.NoError(t, d.Append(context.Background(), sampleRecord("https://x/produto/a/")))
	require.NoError(t, d.Close())

	// simulate a row cut short by a crash
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString(`Barra,https://x/produto/b/,10 g`)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	d, done, err := AppendDataset(path)
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"https://x/produto/a/": true}, done)
	require.NoError(t, d.Append(context.Background(), sampleRecord("https://x/produto/c/")))
	require.NoError(t, d.Close())

	got, err := ReadDataset(path)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "https://x/produto/a/", got[0].URL)
	assert.Equal(t, "https://x/produto/c/", got[1].URL)
}

func TestAppendDatasetDropsRowCutInsideQuotes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "p.csv")

	d, err := CreateDataset(path)
	require.NoError(t, err)
	require.NoError(t, d.Append(context.Background(), sampleRecord("https://x/produto/a/")))
	require.NoError(t, d.Close())

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString(`"Whey, baun`)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	d, done, err := AppendDataset(path)
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"https://x/produto/a/": true}, done)
	require.NoError(t, d.Append(context.Background(), sampleRecord("https://x/produto/c/")))
	require.NoError(t, d.Append(context.Background(), sampleRecord("https://x/produto/d/")))
	require.NoError(t, d.Close())

	got, err := ReadDataset(path)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "https://x/produto/a/", got[0].URL)
	assert.Equal(t, "https://x/produto/c/", got[1].URL)
	assert.Equal(t, "https://x/produto/d/", got[2].URL)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "baun\n")
}

func TestAppendDatasetHeaderCutShort(t *testing.T) {
	path := filepath.Join(t.TempDir(), "p.csv")
	require.NoError(t, os.WriteFile(path, []byte("name,url,por"), 0o644))

	d, done, err := AppendDataset(path)
	require.NoError(t, err)
	assert.Empty(t, done)
	require.NoError(t, d.Append(context.Background(), sampleRecord("https://x/produto/a/")))
	require.NoError(t, d.Close())

	got, err := ReadDataset(path)
	require.NoError(t, err)
	require.Len(t, got, 1)
}

func TestAppendDatasetCreatesMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "novo", "p.csv")

	d, done, err := AppendDataset(path)
	require.NoError(t, err)
	assert.Empty(t, done)
	require.NoError(t, d.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "name,url,"))
}

func TestReadDatasetRejectsForeignHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "p.csv")
	require.NoError(t, os.WriteFile(path, []byte("id,nome\n1,x\n"), 0o644))

	_, err := ReadDataset(path)
	assert.ErrorContains(t, err, "unexpected header")
}
