package dashboard

import (
	"fmt"
	"io"
	"text/tabwriter"

	"fieldpulse/internal/analysis"
	"fieldpulse/internal/model"
	"fieldpulse/internal/util"
)

var patternTitles = map[model.PatternKind]string{
	model.PatternDeclining:   "Em queda",
	model.PatternOscillating: "Oscilantes",
	model.PatternGrowing:     "Em crescimento",
	model.PatternNeverMet:    "Sem bater meta",
}

var severityTitles = map[model.Severity]string{
	model.SeverityHigh:   "ALTA",
	model.SeverityMedium: "MÉDIA",
	model.SeverityLow:    "BAIXA",
}

// WriteText 输出纯文本报告
func (d *Dashboard) WriteText(w io.Writer, topN int) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	o := d.Overview

	fmt.Fprintf(tw, "Arquivo:\t%s (%s)\n", o.Filename, o.SheetName)
	fmt.Fprintf(tw, "Período:\t%s a %s\n", util.FormatWeek(o.FirstDate), util.FormatWeek(o.LastDate))
	fmt.Fprintf(tw, "Registros:\t%d (%d rejeitados)\n", o.Records, o.RejectedRows)
	fmt.Fprintf(tw, "Técnicos / semanas:\t%d / %d\n", o.Technicians, o.Weeks)
	fmt.Fprintf(tw, "Meta semanal:\t%s\n", util.FormatScore(o.WeeklyGoal))
	fmt.Fprintf(tw, "Média de metas batidas:\t%s\n", util.FormatPercent(o.MeanMetPercent))

	fmt.Fprintln(tw, "\nRANKING DE CONSISTÊNCIA")
	fmt.Fprintln(tw, "#\tTécnico\tSupervisor\tSemanas\t% Meta\tMédia\tConsistência")
	for _, e := range analysis.TopN(d.Ranking, topN) {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d/%d\t%s\t%s\t%s\n",
			e.Position, e.Technician, e.Supervisor, e.WeeksMet, e.Weeks,
			util.FormatPercent(e.MetPercent), util.FormatScore(e.MeanScore), util.FormatScore(e.ConsistencyScore))
	}

	fmt.Fprintln(tw, "\nALERTAS")
	if len(d.Alerts) == 0 {
		fmt.Fprintln(tw, "Nenhum alerta identificado")
	}
	for _, a := range d.Alerts {
		fmt.Fprintf(tw, "[%s]\t%s\n", severityTitles[a.Severity], a.Message)
	}

	fmt.Fprintln(tw, "\nPADRÕES DE DESEMPENHO")
	for _, kind := range []model.PatternKind{
		model.PatternDeclining, model.PatternOscillating, model.PatternGrowing, model.PatternNeverMet,
	} {
		matched := analysis.FilterPatterns(d.Patterns, kind)
		fmt.Fprintf(tw, "%s:\t%d\n", patternTitles[kind], len(matched))
		for _, p := range matched {
			fmt.Fprintf(tw, "  %s\tsemanas %d\tmédia %s\tvariação %s\n",
				p.Technician, p.Weeks, util.FormatScore(p.MeanScore), util.FormatDelta(p.Delta))
		}
	}

	if len(d.Variations) > 0 {
		v := d.Variations[0]
		fmt.Fprintf(tw, "\nVARIAÇÃO %s -> %s\n", util.FormatWeek(v.FromWeek), util.FormatWeek(v.ToWeek))
		for _, g := range d.Growth {
			fmt.Fprintf(tw, "  ↑ %s\t%s\n", g.Technician, util.FormatDelta(g.Delta))
		}
		for _, dr := range d.Drops {
			fmt.Fprintf(tw, "  ↓ %s\t%s\n", dr.Technician, util.FormatDelta(dr.Delta))
		}
	}

	fmt.Fprintln(tw, "\nPREVISÃO PRÓXIMA SEMANA")
	fmt.Fprintln(tw, "Técnico\tPrevisão\tMeta\tDiferença")
	for _, f := range d.Forecasts {
		if f.Status != model.StatusOK {
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			f.Technician, util.FormatScore(f.Value), util.FormatScore(f.LastGoal), util.FormatDelta(f.Difference))
	}

	fmt.Fprintln(tw, "\nSUPERVISORES")
	fmt.Fprintln(tw, "Supervisor\tTécnicos\t% Meta\tMédia")
	for _, s := range d.Supervisors {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n",
			s.Supervisor, s.Technicians, util.FormatPercent(s.MetPercent), util.FormatScore(s.MeanScore))
	}

	return tw.Flush()
}
