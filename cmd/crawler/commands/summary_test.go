package commands

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"nutriscraper/internal/crawler"
	"nutriscraper/internal/pipeline"
)

type fixedStep struct {
	sum crawler.Summary
}

func (s fixedStep) Name() string              { return s.sum.Stage }
func (s fixedStep) Run(context.Context) error { return nil }
func (s fixedStep) Summary() crawler.Summary  { return s.sum }

func TestPrintSummaries(t *testing.T) {
	var buf bytes.Buffer
	printSummaries(&buf, []pipeline.Step{
		fixedStep{crawler.Summary{Stage: crawler.StageExtract, Total: 4, Succeeded: 3, Failed: 1, Failures: []crawler.Failure{
			{Stage: crawler.StageExtract, Category: "creatinas", URL: "https://adaptogen.com.br/produto/sumiu/", Err: errors.New("HTTP 404")},
		}}},
	})

	out := buf.String()
	assert.Contains(t, out, "Taxa de sucesso")
	assert.Contains(t, out, "Categoria")
	assert.NotContains(t, out, "TAXA DE SUCESSO")
	assert.Contains(t, out, "75.0%")
	assert.Contains(t, out, "https://adaptogen.com.br/produto/sumiu/")
	assert.Contains(t, out, "HTTP 404")
}

func TestPrintSummariesSkipsStepsThatDidNotRun(t *testing.T) {
	var buf bytes.Buffer
	printSummaries(&buf, []pipeline.Step{fixedStep{}})
	assert.Empty(t, buf.String())
}
