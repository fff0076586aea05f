package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"fieldpulse/internal/exporter"
)

var (
	templateOut  string
	templateFrom string
)

var templateCmd = &cobra.Command{
	Use:   "template",
	Short: "Salva o modelo de planilha em branco",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := exporter.NewExporter(templateFrom).Template()
		if err != nil {
			return err
		}
		defer f.Close()
		if err := f.SaveAs(templateOut); err != nil {
			return fmt.Errorf("save template: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Modelo salvo em %s\n", templateOut)
		return nil
	},
}

func addTemplateFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&templateOut, "out", "o", "modelo_dados.xlsx", "arquivo de saída")
	cmd.Flags().StringVar(&templateFrom, "from", "", "modelo personalizado a copiar")
}
