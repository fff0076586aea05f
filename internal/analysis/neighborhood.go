package analysis

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"fieldpulse/internal/model"
)

// NeighborhoodImpact 按街区统计技术员的工作日：当日总产出均值与日目标达成率
func NeighborhoodImpact(daily []model.DailyTotal, technician string) model.NeighborhoodImpact {
	result := model.NeighborhoodImpact{Technician: technician}

	index := make(map[string]int)
	var stats []model.NeighborhoodStat
	var met []int
	for _, d := range daily {
		if d.Technician != technician {
			continue
		}
		for _, nb := range d.Neighborhoods {
			i, ok := index[nb]
			if !ok {
				i = len(stats)
				index[nb] = i
				stats = append(stats, model.NeighborhoodStat{Neighborhood: nb})
				met = append(met, 0)
			}
			stats[i].Days++
			stats[i].MeanScore += d.Score
			if d.GoalMet {
				met[i]++
			}
		}
	}

	if len(stats) == 0 {
		result.Status = model.StatusInsufficient
		result.Message = "Dados de bairro não disponíveis"
		return result
	}

	means := make([]float64, len(stats))
	for i := range stats {
		stats[i].MeanScore /= float64(stats[i].Days)
		stats[i].SuccessRate = float64(met[i]) / float64(stats[i].Days)
	}
	sort.SliceStable(stats, func(i, j int) bool {
		if stats[i].MeanScore != stats[j].MeanScore {
			return stats[i].MeanScore > stats[j].MeanScore
		}
		return stats[i].Neighborhood < stats[j].Neighborhood
	})
	for i := range stats {
		means[i] = stats[i].MeanScore
	}

	result.Status = model.StatusOK
	result.Neighborhoods = stats
	best, worst := stats[0], stats[len(stats)-1]
	result.Best = &best
	result.Worst = &worst
	if len(means) > 1 {
		if v := stat.StdDev(means, nil); !math.IsNaN(v) {
			result.Variability = v
		}
	}
	return result
}
