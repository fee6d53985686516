package commands

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"nutriscraper/internal/crawler"
	"nutriscraper/internal/pipeline"
)

func printSummaries(w io.Writer, steps []pipeline.Step) {
	var sums []crawler.Summary
	for _, s := range steps {
		if sz, ok := s.(pipeline.Summarizer); ok && sz.Summary().Stage != "" {
			sums = append(sums, sz.Summary())
		}
	}
	if len(sums) == 0 {
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Etapa", "Total", "Sucesso", "Ignorados", "Falhas", "Retomados", "Avisos", "Taxa de sucesso"})
	for _, s := range sums {
		t.AppendRow(table.Row{
			s.Stage, s.Total, s.Succeeded, s.Skipped, s.Failed, s.Resumed, s.Warnings,
			fmt.Sprintf("%.1f%%", s.SuccessRate()),
		})
	}
	t.SetStyle(table.StyleRounded)
	t.Style().Format.Header = text.FormatDefault
	t.Render()

	var failures []crawler.Failure
	for _, s := range sums {
		failures = append(failures, s.Failures...)
	}
	if len(failures) == 0 {
		return
	}

	f := table.NewWriter()
	f.SetOutputMirror(w)
	f.AppendHeader(table.Row{"Etapa", "Categoria", "URL", "Erro"})
	for _, fail := range failures {
		f.AppendRow(table.Row{fail.Stage, fail.Category, fail.URL, fail.Err})
	}
	f.SetStyle(table.StyleRounded)
	f.Style().Format.Header = text.FormatDefault
	f.Render()
}
