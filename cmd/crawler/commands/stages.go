package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"nutriscraper/internal/pipeline"
)

var (
	resume   bool
	fromStep string
)

func init() {
	extractCmd.Flags().BoolVar(&resume, "resume", false, "Mantém o dataset existente e pula URLs já extraídas.")
	runCmd.Flags().BoolVar(&resume, "resume", false, "Mantém o dataset existente e pula URLs já extraídas.")
	runCmd.Flags().StringVar(&fromStep, "from", "collect", "Etapa inicial: collect ou extract.")
	rootCmd.AddCommand(collectCmd, extractCmd, runCmd)
}

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Coleta as URLs de produto de cada categoria e grava o mapa de URLs.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a := newApp(cfg)
		defer a.close()
		return runSteps(cmd, pipeline.NewPipeline(a.collectStep()), 0)
	},
}

var extractCmd = &cobra.Command{
	Use:   "extract [--resume]",
	Short: "Lê o mapa de URLs e extrai a tabela nutricional de cada produto para o CSV.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a := newApp(cfg)
		defer a.close()
		return runSteps(cmd, pipeline.NewPipeline(a.extractStep(cmd.Context(), resume)), 0)
	},
}

var runCmd = &cobra.Command{
	Use:   "run [--from collect|extract] [--resume]",
	Short: "Executa coleta e extração em sequência.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a := newApp(cfg)
		defer a.close()
		p := pipeline.NewPipeline(a.collectStep(), a.extractStep(cmd.Context(), resume))
		start := p.FindIndex(fromStep)
		if start < 0 {
			return fmt.Errorf("unknown step %q", fromStep)
		}
		return runSteps(cmd, p, start)
	},
}

func runSteps(cmd *cobra.Command, p *pipeline.Pipeline, start int) error {
	err := p.RunFrom(cmd.Context(), start)
	printSummaries(os.Stdout, p.Steps()[start:])
	return err
}
