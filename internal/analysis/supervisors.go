package analysis

import (
	"sort"

	"fieldpulse/internal/model"
)

// Supervisors 主管团队汇总（达标率降序，名称升序）
func Supervisors(weekly []model.WeeklySummary) []model.SupervisorSummary {
	index := make(map[string]int)
	technicians := make(map[string]map[string]bool)
	var out []model.SupervisorSummary
	var scores [][]float64

	for _, w := range weekly {
		i, ok := index[w.Supervisor]
		if !ok {
			i = len(out)
			index[w.Supervisor] = i
			out = append(out, model.SupervisorSummary{Supervisor: w.Supervisor})
			scores = append(scores, nil)
			technicians[w.Supervisor] = make(map[string]bool)
		}
		out[i].Weeks++
		if w.GoalMet {
			out[i].WeeksMet++
		}
		scores[i] = append(scores[i], w.Score)
		technicians[w.Supervisor][w.Technician] = true
	}

	for i := range out {
		out[i].Technicians = len(technicians[out[i].Supervisor])
		out[i].MeanScore = mean(scores[i])
		if out[i].Weeks > 0 {
			out[i].MetPercent = float64(out[i].WeeksMet) / float64(out[i].Weeks) * 100
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].MetPercent != out[j].MetPercent {
			return out[i].MetPercent > out[j].MetPercent
		}
		return out[i].Supervisor < out[j].Supervisor
	})
	return out
}
