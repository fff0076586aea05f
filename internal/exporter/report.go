package exporter

import (
	"fmt"
	"math"

	"github.com/xuri/excelize/v2"

	"fieldpulse/internal/dashboard"
	"fieldpulse/internal/model"
)

// 报表 Sheet 名称
const (
	SheetRanking     = "Ranking"
	SheetWeekly      = "Semanal"
	SheetAlerts      = "Alertas"
	SheetPatterns    = "Padrões"
	SheetSupervisors = "Supervisores"
	SheetStreaks     = "Sequências"
)

var severityLabels = map[model.Severity]string{
	model.SeverityHigh:   "Alta",
	model.SeverityMedium: "Média",
	model.SeverityLow:    "Baixa",
}

var patternLabels = map[model.PatternKind]string{
	model.PatternDeclining:   "Queda",
	model.PatternOscillating: "Oscilação",
	model.PatternGrowing:     "Crescimento",
	model.PatternNeverMet:    "Nunca atingiu",
}

type sheetWriter struct {
	f         *excelize.File
	dateStyle int
}

// Report 将看板写为多 Sheet 报表
func (e *Exporter) Report(d *dashboard.Dashboard) (*excelize.File, error) {
	f := excelize.NewFile()
	w := &sheetWriter{f: f}

	dateFmt := "dd/mm/yyyy"
	style, err := f.NewStyle(&excelize.Style{CustomNumFmt: &dateFmt})
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("create date style: %w", err)
	}
	w.dateStyle = style

	steps := []struct {
		sheet string
		fill  func(*sheetWriter, *dashboard.Dashboard) error
	}{
		{SheetRanking, fillRanking},
		{SheetWeekly, fillWeekly},
		{SheetAlerts, fillAlerts},
		{SheetPatterns, fillPatterns},
		{SheetSupervisors, fillSupervisors},
		{SheetStreaks, fillStreaks},
	}
	for _, step := range steps {
		if _, err := f.NewSheet(step.sheet); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("create sheet %s: %w", step.sheet, err)
		}
		if err := step.fill(w, d); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("write sheet %s: %w", step.sheet, err)
		}
	}

	if err := f.DeleteSheet(defaultSheet); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("delete default sheet: %w", err)
	}
	f.SetActiveSheet(0)
	return f, nil
}

// ReportBytes 报表的 xlsx 字节
func (e *Exporter) ReportBytes(d *dashboard.Dashboard) ([]byte, error) {
	f, err := e.Report(d)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return writeBytes(f)
}

func (w *sheetWriter) table(sheet string, headers []any, rows [][]any) error {
	if err := writeHeader(w.f, sheet, headers); err != nil {
		return err
	}
	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := w.f.SetSheetRow(sheet, cell, &rows[i]); err != nil {
			return err
		}
	}
	last, err := excelize.ColumnNumberToName(len(headers))
	if err != nil {
		return err
	}
	return w.f.SetColWidth(sheet, "A", last, 16)
}

// dateColumn 为日期列设置显示格式
func (w *sheetWriter) dateColumn(sheet string, col, rows int) error {
	if rows == 0 {
		return nil
	}
	first, _ := excelize.CoordinatesToCellName(col, 2)
	last, _ := excelize.CoordinatesToCellName(col, rows+1)
	return w.f.SetCellStyle(sheet, first, last, w.dateStyle)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func fillRanking(w *sheetWriter, d *dashboard.Dashboard) error {
	rows := make([][]any, 0, len(d.Ranking))
	for _, e := range d.Ranking {
		rows = append(rows, []any{
			e.Position, e.Technician, e.Supervisor, e.Weeks, e.WeeksMet,
			round2(e.MetPercent), round2(e.MeanScore), round2(e.StdDev), round2(e.ConsistencyScore),
		})
	}
	return w.table(SheetRanking, []any{
		"Posição", "Técnico", "Supervisor", "Semanas", "Semanas na meta",
		"% na meta", "Média semanal", "Desvio padrão", "Consistência",
	}, rows)
}

func fillWeekly(w *sheetWriter, d *dashboard.Dashboard) error {
	rows := make([][]any, 0, len(d.Summary.Weekly))
	for _, s := range d.Summary.Weekly {
		met := "Não"
		if s.GoalMet {
			met = "Sim"
		}
		rows = append(rows, []any{
			s.WeekStart, s.Technician, s.Supervisor, s.Days, round2(s.Score),
			s.Protocols, round2(s.Goal), round2(s.OvertimeHours), round2(s.Ratio * 100), met,
		})
	}
	if err := w.table(SheetWeekly, []any{
		"Semana", "Técnico", "Supervisor", "Dias", "Produtividade",
		"Protocolos", "Meta", "Horas extras", "% da meta", "Meta atingida",
	}, rows); err != nil {
		return err
	}
	return w.dateColumn(SheetWeekly, 1, len(rows))
}

func fillAlerts(w *sheetWriter, d *dashboard.Dashboard) error {
	rows := make([][]any, 0, len(d.Alerts))
	for _, a := range d.Alerts {
		rows = append(rows, []any{severityLabels[a.Severity], string(a.Kind), a.Subject(), a.Message})
	}
	if err := w.table(SheetAlerts, []any{"Severidade", "Tipo", "Alvo", "Mensagem"}, rows); err != nil {
		return err
	}
	return w.f.SetColWidth(SheetAlerts, "D", "D", 80)
}

func fillPatterns(w *sheetWriter, d *dashboard.Dashboard) error {
	rows := make([][]any, 0, len(d.Patterns))
	for _, p := range d.Patterns {
		rows = append(rows, []any{
			patternLabels[p.Kind], p.Technician, p.Weeks, p.Changes, round2(p.Delta), round2(p.MeanScore),
		})
	}
	return w.table(SheetPatterns, []any{
		"Padrão", "Técnico", "Semanas", "Mudanças", "Variação", "Média semanal",
	}, rows)
}

func fillSupervisors(w *sheetWriter, d *dashboard.Dashboard) error {
	rows := make([][]any, 0, len(d.Supervisors))
	for _, s := range d.Supervisors {
		rows = append(rows, []any{
			s.Supervisor, s.Technicians, s.Weeks, s.WeeksMet, round2(s.MetPercent), round2(s.MeanScore),
		})
	}
	return w.table(SheetSupervisors, []any{
		"Supervisor", "Técnicos", "Semanas", "Semanas na meta", "% na meta", "Média semanal",
	}, rows)
}

func fillStreaks(w *sheetWriter, d *dashboard.Dashboard) error {
	rows := make([][]any, 0, len(d.Streaks))
	for _, s := range d.Streaks {
		rows = append(rows, []any{
			s.Technician, s.Weeks, s.LongestMet, s.LongestMissed, s.CurrentMet, s.CurrentMissed,
		})
	}
	return w.table(SheetStreaks, []any{
		"Técnico", "Semanas", "Maior sequência na meta", "Maior sequência abaixo",
		"Sequência atual na meta", "Sequência atual abaixo",
	}, rows)
}
