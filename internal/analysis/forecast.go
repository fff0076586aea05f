package analysis

import (
	"fmt"

	"gonum.org/v1/gonum/stat"

	"fieldpulse/internal/model"
)

// Forecast 预测下周产出
//
// 移动平均取最近 window 周均值；回归对全部周做最小二乘，在下一周（索引 n）取值。
func Forecast(weekly []model.WeeklySummary, technician string, kind model.ForecastModel, window int) model.Forecast {
	result := model.Forecast{Technician: technician, Model: kind}
	if window < 1 {
		window = 1
	}

	s, ok := findSeries(weekly, technician)
	if !ok || len(s.weeks) < window {
		result.Status = model.StatusInsufficient
		result.Message = fmt.Sprintf("Dados insuficientes: são necessárias pelo menos %d semanas", window)
		return result
	}

	scores := s.scores()
	switch kind {
	case model.ForecastRegression:
		if len(scores) < 2 {
			result.Status = model.StatusInsufficient
			result.Message = "Dados insuficientes para regressão"
			return result
		}
		xs := make([]float64, len(scores))
		for i := range xs {
			xs[i] = float64(i)
		}
		intercept, slope := stat.LinearRegression(xs, scores, nil, false)
		result.Value = intercept + slope*float64(len(scores))
	default:
		result.Model = model.ForecastMovingAverage
		result.Value = mean(scores[len(scores)-window:])
	}

	result.Status = model.StatusOK
	result.LastGoal = s.last().Goal
	result.Difference = result.Value - result.LastGoal
	return result
}

// ParseForecastModel 解析模型名称（未知名称回退到移动平均）
func ParseForecastModel(name string) model.ForecastModel {
	switch model.ForecastModel(name) {
	case model.ForecastRegression, "regressao":
		return model.ForecastRegression
	default:
		return model.ForecastMovingAverage
	}
}
