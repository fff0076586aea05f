package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"fieldpulse/internal/analysis"
	"fieldpulse/internal/dashboard"
	"fieldpulse/internal/importer"
	"fieldpulse/internal/model"
	"fieldpulse/internal/session"
)

var (
	reportTeamSize int
	reportOvertime []string
	reportFormat   string
	reportOut      string
	reportModel    string
)

var reportCmd = &cobra.Command{
	Use:   "report FILE",
	Short: "Gera o relatório de produtividade de uma planilha",
	Long: `Lê uma planilha (.xlsx ou .csv) e imprime o relatório.

Exemplo:
  fieldpulse report producao.xlsx --team-size 12 --overtime "Ana Souza=4" --format text`,
	Args: cobra.ExactArgs(1),
	RunE: runReport,
}

func addReportFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&reportTeamSize, "team-size", 0, "tamanho da equipe (padrão: técnicos na planilha)")
	cmd.Flags().StringArrayVar(&reportOvertime, "overtime", nil, "horas extras semanais no formato nome=horas (repetível)")
	cmd.Flags().StringVar(&reportFormat, "format", "text", "formato de saída: text ou json")
	cmd.Flags().StringVarP(&reportOut, "out", "o", "", "arquivo de saída (padrão: stdout)")
	cmd.Flags().StringVar(&reportModel, "model", string(model.ForecastMovingAverage), "modelo de previsão: moving_average ou regression")
}

func runReport(cmd *cobra.Command, args []string) error {
	if reportFormat != "text" && reportFormat != "json" {
		return fmt.Errorf("invalid --format %q (want text or json)", reportFormat)
	}
	overtime, err := parseOvertime(reportOvertime)
	if err != nil {
		return err
	}
	inputs := model.ManualInputs{TeamSize: reportTeamSize, Overtime: overtime}
	if err := session.ValidateInputs(inputs); err != nil {
		return err
	}

	// 报表结果依赖目标与节假日，配置有误时直接失败
	cfg, _, err := readConfig()
	if err != nil {
		return err
	}
	opts, err := dashboard.OptionsFromConfig(cfg)
	if err != nil {
		return err
	}
	opts.ForecastModel = analysis.ParseForecastModel(reportModel)

	coord := importer.NewCoordinator(nil, cfg.Columns, 0, logger.Named("importer"))
	res, err := coord.ImportFile(cmd.Context(), args[0], nil)
	if err != nil {
		return err
	}
	for _, re := range res.Dataset.RowErrors {
		logger.Debug("row rejected", zap.Int("row", re.RowNo), zap.String("reason", re.Reason))
	}

	board := dashboard.Build(res.Dataset, inputs, opts)

	var out io.Writer = cmd.OutOrStdout()
	if reportOut != "" {
		f, err := os.Create(reportOut)
		if err != nil {
			return fmt.Errorf("create %s: %w", reportOut, err)
		}
		defer f.Close()
		out = f
	}

	if reportFormat == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(board)
	}
	return board.WriteText(out, opts.TopN)
}

// parseOvertime 解析 "nome=horas" 列表
func parseOvertime(values []string) (map[string]float64, error) {
	out := make(map[string]float64, len(values))
	for _, v := range values {
		name, raw, ok := strings.Cut(v, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid --overtime %q (want name=hours)", v)
		}
		hours, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(raw), ",", "."), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid hours in --overtime %q: %w", v, err)
		}
		out[name] += hours
	}
	return out, nil
}
