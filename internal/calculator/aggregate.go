package calculator

import (
	"sort"
	"time"

	"fieldpulse/internal/model"
)

type techDay struct {
	technician string
	date       time.Time
}

type techWeek struct {
	technician string
	weekStart  time.Time
}

// Aggregate 按 (技术员, 日) 与 (技术员, 周) 汇总，并计算团队与街区达成情况
func Aggregate(records []model.Record, goals *Goals, inputs model.ManualInputs) *model.Summary {
	supervisors := primarySupervisors(records)

	daily := aggregateDaily(records, goals, supervisors)
	weekly := aggregateWeekly(daily, goals, inputs, supervisors)

	summary := &model.Summary{
		Daily:         daily,
		Weekly:        weekly,
		Neighborhoods: aggregateNeighborhoods(daily),
		Technicians:   technicianNames(weekly),
		Weeks:         weekStarts(weekly),
	}
	summary.Team = TeamAttainment(summary, goals, inputs.TeamSize)
	return summary
}

// primarySupervisors 每位技术员取出现次数最多的主管（并列时按名称排序取第一个）
func primarySupervisors(records []model.Record) map[string]string {
	counts := make(map[string]map[string]int)
	for _, r := range records {
		if counts[r.Technician] == nil {
			counts[r.Technician] = make(map[string]int)
		}
		counts[r.Technician][r.Supervisor]++
	}

	out := make(map[string]string, len(counts))
	for tech, bySupervisor := range counts {
		best, bestCount := "", 0
		for sup, n := range bySupervisor {
			if n > bestCount || (n == bestCount && sup < best) {
				best, bestCount = sup, n
			}
		}
		out[tech] = best
	}
	return out
}

func aggregateDaily(records []model.Record, goals *Goals, supervisors map[string]string) []model.DailyTotal {
	index := make(map[techDay]int)
	var out []model.DailyTotal
	seen := make(map[techDay]map[string]bool)

	for _, r := range records {
		key := techDay{technician: r.Technician, date: r.Date}
		i, ok := index[key]
		if !ok {
			i = len(out)
			index[key] = i
			out = append(out, model.DailyTotal{
				Technician: r.Technician,
				Supervisor: supervisors[r.Technician],
				Date:       r.Date,
				Goal:       goals.Daily(r.Date),
			})
		}
		out[i].Score += r.Score
		if r.Protocol != "" {
			out[i].Protocols++
		}
		if r.Neighborhood != "" && !seen[key][r.Neighborhood] {
			if seen[key] == nil {
				seen[key] = make(map[string]bool)
			}
			seen[key][r.Neighborhood] = true
			out[i].Neighborhoods = append(out[i].Neighborhoods, r.Neighborhood)
		}
	}

	for i := range out {
		out[i].Ratio = GoalRatio(out[i].Score, out[i].Goal)
		out[i].GoalMet = out[i].Score >= out[i].Goal
		sort.Strings(out[i].Neighborhoods)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Technician != out[j].Technician {
			return out[i].Technician < out[j].Technician
		}
		return out[i].Date.Before(out[j].Date)
	})
	return out
}

// aggregateWeekly 周产出 = 当周各日产出之和；加班小时按周计入目标
func aggregateWeekly(daily []model.DailyTotal, goals *Goals, inputs model.ManualInputs, supervisors map[string]string) []model.WeeklySummary {
	index := make(map[techWeek]int)
	var out []model.WeeklySummary

	for _, d := range daily {
		key := techWeek{technician: d.Technician, weekStart: WeekStart(d.Date)}
		i, ok := index[key]
		if !ok {
			i = len(out)
			index[key] = i
			overtime := inputs.OvertimeFor(d.Technician)
			out = append(out, model.WeeklySummary{
				Technician:    d.Technician,
				Supervisor:    supervisors[d.Technician],
				WeekStart:     key.weekStart,
				OvertimeHours: overtime,
				Goal:          goals.WithOvertime(goals.Weekly(key.weekStart), overtime),
			})
		}
		out[i].Score += d.Score
		out[i].Protocols += d.Protocols
		out[i].Days++
	}

	for i := range out {
		out[i].Ratio = GoalRatio(out[i].Score, out[i].Goal)
		out[i].GoalMet = out[i].Score >= out[i].Goal
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Technician != out[j].Technician {
			return out[i].Technician < out[j].Technician
		}
		return out[i].WeekStart.Before(out[j].WeekStart)
	})
	return out
}

// aggregateNeighborhoods 街区达标率：以技术员当日总产出是否达成日目标计，
// 当日在多个街区作业时每个街区各计一次
func aggregateNeighborhoods(daily []model.DailyTotal) []model.NeighborhoodSummary {
	index := make(map[string]int)
	var out []model.NeighborhoodSummary

	for _, d := range daily {
		for _, nb := range d.Neighborhoods {
			i, ok := index[nb]
			if !ok {
				i = len(out)
				index[nb] = i
				out = append(out, model.NeighborhoodSummary{Neighborhood: nb})
			}
			out[i].Days++
			if d.GoalMet {
				out[i].Met++
			}
		}
	}

	for i := range out {
		out[i].Rate = float64(out[i].Met) / float64(out[i].Days)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Neighborhood < out[j].Neighborhood })
	return out
}

// TeamAttainment 团队周目标：团队人数 × 周目标（人数未填写时取技术员总数）
func TeamAttainment(summary *model.Summary, goals *Goals, teamSize int) []model.TeamAttainment {
	if teamSize <= 0 {
		teamSize = len(summary.Technicians)
	}

	index := make(map[time.Time]int)
	var out []model.TeamAttainment
	for _, w := range summary.Weekly {
		i, ok := index[w.WeekStart]
		if !ok {
			i = len(out)
			index[w.WeekStart] = i
			out = append(out, model.TeamAttainment{
				WeekStart: w.WeekStart,
				TeamSize:  teamSize,
				Goal:      float64(teamSize) * goals.Weekly(w.WeekStart),
			})
		}
		out[i].Active++
		out[i].Score += w.Score
	}

	for i := range out {
		out[i].Ratio = GoalRatio(out[i].Score, out[i].Goal)
		out[i].GoalReached = out[i].Goal > 0 && out[i].Score >= out[i].Goal
	}
	sort.Slice(out, func(i, j int) bool { return out[i].WeekStart.Before(out[j].WeekStart) })
	return out
}

// ByTechnician 按技术员分组周汇总（组内按周升序）
func ByTechnician(weekly []model.WeeklySummary) map[string][]model.WeeklySummary {
	out := make(map[string][]model.WeeklySummary)
	for _, w := range weekly {
		out[w.Technician] = append(out[w.Technician], w)
	}
	for tech := range out {
		rows := out[tech]
		sort.SliceStable(rows, func(i, j int) bool { return rows[i].WeekStart.Before(rows[j].WeekStart) })
	}
	return out
}

func technicianNames(weekly []model.WeeklySummary) []string {
	seen := make(map[string]bool)
	var names []string
	for _, w := range weekly {
		if !seen[w.Technician] {
			seen[w.Technician] = true
			names = append(names, w.Technician)
		}
	}
	sort.Strings(names)
	return names
}

func weekStarts(weekly []model.WeeklySummary) []time.Time {
	seen := make(map[time.Time]bool)
	var weeks []time.Time
	for _, w := range weekly {
		if !seen[w.WeekStart] {
			seen[w.WeekStart] = true
			weeks = append(weeks, w.WeekStart)
		}
	}
	sort.Slice(weeks, func(i, j int) bool { return weeks[i].Before(weeks[j]) })
	return weeks
}
