package analysis

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"fieldpulse/internal/model"
)

// ConsistencyRanking 一致性排名
//
// 一致性得分 = 达标率 × (1 - 变异系数)，变异系数截断到 [0,1]。
// 排序：达标率降序，平均产出降序，姓名升序。
func ConsistencyRanking(weekly []model.WeeklySummary) []model.RankingEntry {
	groups := groupSeries(weekly)
	entries := make([]model.RankingEntry, 0, len(groups))

	for _, s := range groups {
		scores := s.scores()
		avg, std := stat.PopMeanStdDev(scores, nil)

		met := 0
		for _, w := range s.weeks {
			if w.GoalMet {
				met++
			}
		}
		metPct := float64(met) / float64(len(s.weeks)) * 100

		var cv float64
		if avg > 0 {
			cv = math.Min(std/avg, 1)
		}
		consistency := math.Max(0, math.Min(100, metPct*(1-cv)))

		entries = append(entries, model.RankingEntry{
			Technician:       s.technician,
			Supervisor:       s.supervisor,
			Weeks:            len(s.weeks),
			WeeksMet:         met,
			MetPercent:       metPct,
			MeanScore:        avg,
			StdDev:           std,
			ConsistencyScore: consistency,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.MetPercent != b.MetPercent {
			return a.MetPercent > b.MetPercent
		}
		if a.MeanScore != b.MeanScore {
			return a.MeanScore > b.MeanScore
		}
		return a.Technician < b.Technician
	})
	for i := range entries {
		entries[i].Position = i + 1
	}
	return entries
}

// TopN 取排名前 n 位（n<=0 返回全部）
func TopN(ranking []model.RankingEntry, n int) []model.RankingEntry {
	if n <= 0 || n >= len(ranking) {
		return ranking
	}
	return ranking[:n]
}
