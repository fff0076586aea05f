package analysis

import (
	"fmt"
	"sort"

	"fieldpulse/internal/model"
)

// Alerts 生成告警（按级别、对象名称排序）
//
// 高：最近 DropWindow 周由达标转为连续未达标
// 中：主管团队或街区达标率低于 LowSuccessRate
// 低：达标状态频繁波动；非上升趋势且预测低于目标
func Alerts(summary *model.Summary, trends []model.TrendAnalysis, opts Options) []model.Alert {
	var alerts []model.Alert

	groups := groupSeries(summary.Weekly)
	for _, s := range groups {
		if isPerformanceDrop(s.weeks, opts.DropWindow) {
			alerts = append(alerts, model.Alert{
				Kind:       model.AlertPerformanceDrop,
				Severity:   model.SeverityHigh,
				Technician: s.technician,
				Supervisor: s.supervisor,
				Message:    fmt.Sprintf("%s teve queda nas últimas %d semanas", s.technician, opts.DropWindow),
			})
		}
	}

	for _, sup := range Supervisors(summary.Weekly) {
		rate := sup.MetPercent / 100
		if sup.Weeks > 0 && rate < opts.LowSuccessRate {
			alerts = append(alerts, model.Alert{
				Kind:       model.AlertLowSupervisorSuccess,
				Severity:   model.SeverityMedium,
				Supervisor: sup.Supervisor,
				Message:    fmt.Sprintf("Equipe de %s com baixa taxa de sucesso (%.0f%%)", sup.Supervisor, sup.MetPercent),
			})
		}
	}

	for _, nb := range summary.Neighborhoods {
		if nb.Days > 0 && nb.Rate < opts.LowSuccessRate {
			alerts = append(alerts, model.Alert{
				Kind:         model.AlertLowNeighborhoodSuccess,
				Severity:     model.SeverityMedium,
				Neighborhood: nb.Neighborhood,
				Message:      fmt.Sprintf("Bairro %s com baixa taxa de sucesso (%.0f%%)", nb.Neighborhood, nb.Rate*100),
			})
		}
	}

	for _, s := range groups {
		changes := goalChanges(s.weeks)
		if len(s.weeks) >= opts.OscillationMinWeeks && changes >= opts.OscillationMinChanges {
			alerts = append(alerts, model.Alert{
				Kind:       model.AlertOscillating,
				Severity:   model.SeverityLow,
				Technician: s.technician,
				Supervisor: s.supervisor,
				Message:    fmt.Sprintf("%s alterna entre bater e não bater a meta (%d mudanças)", s.technician, changes),
			})
		}
	}

	for _, tr := range trends {
		if tr.Status != model.StatusOK || tr.Direction == model.TrendUp {
			continue
		}
		if tr.Projection < tr.LastGoal {
			alerts = append(alerts, model.Alert{
				Kind:       model.AlertBelowGoalProjection,
				Severity:   model.SeverityLow,
				Technician: tr.Technician,
				Message: fmt.Sprintf("Projeção de %s (%.1f) abaixo da meta (%.1f)",
					tr.Technician, tr.Projection, tr.LastGoal),
			})
		}
	}

	SortAlerts(alerts)
	return alerts
}

// SortAlerts 按级别、对象、类型排序
func SortAlerts(alerts []model.Alert) {
	sort.SliceStable(alerts, func(i, j int) bool {
		a, b := alerts[i], alerts[j]
		if a.Severity.Rank() != b.Severity.Rank() {
			return a.Severity.Rank() < b.Severity.Rank()
		}
		if a.Subject() != b.Subject() {
			return a.Subject() < b.Subject()
		}
		return a.Kind < b.Kind
	})
}

// FilterAlerts 按级别筛选（空级别返回全部）
func FilterAlerts(alerts []model.Alert, severity model.Severity) []model.Alert {
	if severity == "" {
		return alerts
	}
	var out []model.Alert
	for _, a := range alerts {
		if a.Severity == severity {
			out = append(out, a)
		}
	}
	return out
}

// isPerformanceDrop 最近 window 周：第一周达标，其余均未达标
func isPerformanceDrop(weeks []model.WeeklySummary, window int) bool {
	if window < 2 || len(weeks) < window {
		return false
	}
	recent := weeks[len(weeks)-window:]
	if !recent[0].GoalMet {
		return false
	}
	for _, w := range recent[1:] {
		if w.GoalMet {
			return false
		}
	}
	return true
}
