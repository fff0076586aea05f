package analysis

import (
	"sort"

	"fieldpulse/internal/model"
)

// Streaks 连续达标/未达标周数
func Streaks(weekly []model.WeeklySummary) []model.Streak {
	groups := groupSeries(weekly)
	out := make([]model.Streak, 0, len(groups))

	for _, s := range groups {
		st := model.Streak{Technician: s.technician, Weeks: len(s.weeks)}
		met, missed := 0, 0
		for _, w := range s.weeks {
			if w.GoalMet {
				met++
				missed = 0
			} else {
				missed++
				met = 0
			}
			st.LongestMet = max(st.LongestMet, met)
			st.LongestMissed = max(st.LongestMissed, missed)
		}
		st.CurrentMet = met
		st.CurrentMissed = missed
		out = append(out, st)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].LongestMet != out[j].LongestMet {
			return out[i].LongestMet > out[j].LongestMet
		}
		return out[i].Technician < out[j].Technician
	})
	return out
}
