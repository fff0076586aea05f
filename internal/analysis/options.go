package analysis

import (
	"sort"

	"fieldpulse/internal/config"
	"fieldpulse/internal/model"
)

// Options 分析阈值
type Options struct {
	TrendWindow           int
	TrendThreshold        float64
	ForecastWindow        int
	DropWindow            int
	OscillationMinWeeks   int
	OscillationMinChanges int
	LowSuccessRate        float64
}

// DefaultOptions 默认阈值
func DefaultOptions() Options {
	return OptionsFromConfig(config.DefaultConfig().Analysis)
}

// OptionsFromConfig 从配置读取阈值
func OptionsFromConfig(cfg config.AnalysisConfig) Options {
	return Options{
		TrendWindow:           cfg.TrendWindow,
		TrendThreshold:        cfg.TrendThreshold,
		ForecastWindow:        cfg.ForecastWindow,
		DropWindow:            cfg.DropWindow,
		OscillationMinWeeks:   cfg.OscillationMinWeeks,
		OscillationMinChanges: cfg.OscillationMinChanges,
		LowSuccessRate:        cfg.LowSuccessRate,
	}
}

// series 单个技术员按周排序的汇总
type series struct {
	technician string
	supervisor string
	weeks      []model.WeeklySummary
}

func (s series) scores() []float64 {
	out := make([]float64, len(s.weeks))
	for i, w := range s.weeks {
		out[i] = w.Score
	}
	return out
}

func (s series) last() model.WeeklySummary {
	return s.weeks[len(s.weeks)-1]
}

// groupSeries 按技术员分组（技术员按名称升序，周按时间升序）
func groupSeries(weekly []model.WeeklySummary) []series {
	index := make(map[string]int)
	var out []series
	for _, w := range weekly {
		i, ok := index[w.Technician]
		if !ok {
			i = len(out)
			index[w.Technician] = i
			out = append(out, series{technician: w.Technician, supervisor: w.Supervisor})
		}
		out[i].weeks = append(out[i].weeks, w)
	}
	for i := range out {
		weeks := out[i].weeks
		sort.SliceStable(weeks, func(a, b int) bool { return weeks[a].WeekStart.Before(weeks[b].WeekStart) })
	}
	sort.Slice(out, func(a, b int) bool { return out[a].technician < out[b].technician })
	return out
}

func findSeries(weekly []model.WeeklySummary, technician string) (series, bool) {
	for _, s := range groupSeries(weekly) {
		if s.technician == technician {
			return s, true
		}
	}
	return series{}, false
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
