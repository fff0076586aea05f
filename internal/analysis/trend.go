package analysis

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"fieldpulse/internal/model"
)

// Trend 最近 window 周产出的线性趋势
func Trend(weekly []model.WeeklySummary, technician string, window int, threshold float64) model.TrendAnalysis {
	result := model.TrendAnalysis{Technician: technician}

	s, ok := findSeries(weekly, technician)
	if window < 2 {
		window = 2
	}
	if !ok || len(s.weeks) < window {
		result.Status = model.StatusInsufficient
		result.Message = fmt.Sprintf("Dados insuficientes: são necessárias pelo menos %d semanas", window)
		return result
	}

	recent := s.weeks[len(s.weeks)-window:]
	xs := make([]float64, len(recent))
	ys := make([]float64, len(recent))
	for i, w := range recent {
		xs[i] = float64(i)
		ys[i] = w.Score
		result.Points = append(result.Points, model.Point{Week: w.WeekStart, Value: w.Score})
	}

	intercept, slope := stat.LinearRegression(xs, ys, nil, false)
	r2 := stat.RSquared(xs, ys, nil, intercept, slope)
	if math.IsNaN(r2) || math.IsInf(r2, 0) {
		// 产出恒定：直线完全拟合
		r2 = 1
	}

	last := s.last()
	result.Status = model.StatusOK
	result.Slope = slope
	result.Intercept = intercept
	result.Projection = slope*float64(window) + intercept
	result.ProjectionWeek = last.WeekStart.AddDate(0, 0, 7)
	result.Confidence = r2
	result.LastGoal = last.Goal
	result.LastGoalMet = last.GoalMet
	result.Direction = classify(slope, threshold)

	for i, w := range recent {
		result.Line = append(result.Line, model.Point{Week: w.WeekStart, Value: intercept + slope*float64(i)})
	}
	result.Line = append(result.Line, model.Point{Week: result.ProjectionWeek, Value: result.Projection})

	return result
}

func classify(slope, threshold float64) model.TrendDirection {
	switch {
	case slope > threshold:
		return model.TrendUp
	case slope < -threshold:
		return model.TrendDown
	default:
		return model.TrendStable
	}
}

// Trends 所有技术员的趋势（按姓名升序）
func Trends(weekly []model.WeeklySummary, opts Options) []model.TrendAnalysis {
	groups := groupSeries(weekly)
	out := make([]model.TrendAnalysis, 0, len(groups))
	for _, s := range groups {
		out = append(out, Trend(weekly, s.technician, opts.TrendWindow, opts.TrendThreshold))
	}
	return out
}
