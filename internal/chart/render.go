package chart

import (
	"fmt"
	"io"

	"fieldpulse/internal/analysis"
	"fieldpulse/internal/dashboard"
)

// Kinds 支持的图表类型
func Kinds() []string {
	return []string{KindRanking, KindEvolution, KindTrend, KindStreaks, KindTeam}
}

// Render 按类型渲染看板图表；trend 需要指定技术员，evolution 未指定时取排名前列
func Render(w io.Writer, kind string, d *dashboard.Dashboard, technician string, topN int) error {
	switch kind {
	case KindRanking:
		return RankingBar(w, d.Ranking, topN)
	case KindEvolution:
		techs := []string{technician}
		if technician == "" {
			techs = nil
			for _, e := range analysis.TopN(d.Ranking, maxEvolutionLines) {
				techs = append(techs, e.Technician)
			}
		}
		return Evolution(w, d.Summary.Weekly, techs, d.Overview.WeeklyGoal)
	case KindTrend:
		detail, err := d.Technician(technician)
		if err != nil {
			return err
		}
		return TrendLine(w, detail.Trend)
	case KindStreaks:
		return StreakBars(w, d.Streaks, topN)
	case KindTeam:
		return TeamBars(w, d.Summary.Team)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}
