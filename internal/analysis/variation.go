package analysis

import (
	"sort"
	"time"

	"fieldpulse/internal/model"
)

// WeekOverWeek 数据集中最后两周的产出变化（仅统计两周都有记录的技术员），按变化降序
func WeekOverWeek(weekly []model.WeeklySummary) []model.Variation {
	weeks := distinctWeeks(weekly)
	if len(weeks) < 2 {
		return nil
	}
	from, to := weeks[len(weeks)-2], weeks[len(weeks)-1]

	previous := make(map[string]float64)
	current := make(map[string]float64)
	for _, w := range weekly {
		switch {
		case w.WeekStart.Equal(from):
			previous[w.Technician] = w.Score
		case w.WeekStart.Equal(to):
			current[w.Technician] = w.Score
		}
	}

	var out []model.Variation
	for tech, cur := range current {
		prev, ok := previous[tech]
		if !ok {
			continue
		}
		out = append(out, model.Variation{
			Technician: tech,
			Previous:   prev,
			Current:    cur,
			Delta:      cur - prev,
			FromWeek:   from,
			ToWeek:     to,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Delta != out[j].Delta {
			return out[i].Delta > out[j].Delta
		}
		return out[i].Technician < out[j].Technician
	})
	return out
}

// TopGrowth 增长最多的 n 位（仅正变化）
func TopGrowth(variations []model.Variation, n int) []model.Variation {
	var out []model.Variation
	for _, v := range variations {
		if v.Delta > 0 {
			out = append(out, v)
		}
	}
	return limit(out, n)
}

// TopDrops 下降最多的 n 位（仅负变化，按变化升序）
func TopDrops(variations []model.Variation, n int) []model.Variation {
	var out []model.Variation
	for _, v := range variations {
		if v.Delta < 0 {
			out = append(out, v)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Delta != out[j].Delta {
			return out[i].Delta < out[j].Delta
		}
		return out[i].Technician < out[j].Technician
	})
	return limit(out, n)
}

func limit(v []model.Variation, n int) []model.Variation {
	if n > 0 && len(v) > n {
		return v[:n]
	}
	return v
}

func distinctWeeks(weekly []model.WeeklySummary) []time.Time {
	seen := make(map[int64]bool)
	var out []time.Time
	for _, w := range weekly {
		key := w.WeekStart.Unix()
		if !seen[key] {
			seen[key] = true
			out = append(out, w.WeekStart)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}
