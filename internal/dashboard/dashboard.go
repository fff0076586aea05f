package dashboard

import (
	"errors"
	"fmt"
	"time"

	"fieldpulse/internal/analysis"
	"fieldpulse/internal/calculator"
	"fieldpulse/internal/config"
	"fieldpulse/internal/model"
)

// ErrTechnicianNotFound 技术员不存在
var ErrTechnicianNotFound = errors.New("technician not found")

// Options 看板构建参数
type Options struct {
	Goals         *calculator.Goals
	Analysis      analysis.Options
	TopN          int
	ForecastModel model.ForecastModel
}

// OptionsFromConfig 从应用配置构建参数
func OptionsFromConfig(cfg *config.AppConfig) (Options, error) {
	goals, err := calculator.GoalsFromConfig(cfg)
	if err != nil {
		return Options{}, fmt.Errorf("build goals: %w", err)
	}
	return Options{
		Goals:         goals,
		Analysis:      analysis.OptionsFromConfig(cfg.Analysis),
		TopN:          cfg.Analysis.TopN,
		ForecastModel: model.ForecastMovingAverage,
	}, nil
}

// Overview 总览指标
type Overview struct {
	Filename       string    `json:"filename"`
	SheetName      string    `json:"sheetName"`
	Records        int       `json:"records"`
	RejectedRows   int       `json:"rejectedRows"`
	Technicians    int       `json:"technicians"`
	Supervisors    int       `json:"supervisors"`
	Weeks          int       `json:"weeks"`
	FirstDate      time.Time `json:"firstDate"`
	LastDate       time.Time `json:"lastDate"`
	TotalScore     float64   `json:"totalScore"`
	MeanMetPercent float64   `json:"meanMetPercent"` // 技术员达标率的平均值
	WeeklyGoal     float64   `json:"weeklyGoal"`
	DailyGoal      float64   `json:"dailyGoal"`
}

// Dashboard 一次上传的完整分析结果
type Dashboard struct {
	Overview    Overview                  `json:"overview"`
	Inputs      model.ManualInputs        `json:"inputs"`
	Summary     *model.Summary            `json:"summary"`
	Ranking     []model.RankingEntry      `json:"ranking"`
	Streaks     []model.Streak            `json:"streaks"`
	Patterns    []model.Pattern           `json:"patterns"`
	Alerts      []model.Alert             `json:"alerts"`
	Variations  []model.Variation         `json:"variations"`
	Growth      []model.Variation         `json:"growth"`
	Drops       []model.Variation         `json:"drops"`
	Supervisors []model.SupervisorSummary `json:"supervisors"`
	Trends      []model.TrendAnalysis     `json:"trends"`
	Forecasts   []model.Forecast          `json:"forecasts"` // 使用 Options.ForecastModel

	opts Options
}

// Build 汇总并执行全部分析
func Build(ds *model.Dataset, inputs model.ManualInputs, opts Options) *Dashboard {
	summary := calculator.Aggregate(ds.Records, opts.Goals, inputs)
	trends := analysis.Trends(summary.Weekly, opts.Analysis)
	ranking := analysis.ConsistencyRanking(summary.Weekly)
	variations := analysis.WeekOverWeek(summary.Weekly)
	supervisors := analysis.Supervisors(summary.Weekly)

	d := &Dashboard{
		Inputs:      inputs.Clone(),
		Summary:     summary,
		Ranking:     ranking,
		Streaks:     analysis.Streaks(summary.Weekly),
		Patterns:    analysis.Patterns(summary.Weekly, opts.Analysis),
		Alerts:      analysis.Alerts(summary, trends, opts.Analysis),
		Variations:  variations,
		Growth:      analysis.TopGrowth(variations, opts.TopN),
		Drops:       analysis.TopDrops(variations, opts.TopN),
		Supervisors: supervisors,
		Trends:      trends,
		opts:        opts,
	}
	d.Overview = buildOverview(ds, summary, ranking, supervisors, opts)
	for _, name := range summary.Technicians {
		d.Forecasts = append(d.Forecasts, analysis.Forecast(summary.Weekly, name, opts.ForecastModel, opts.Analysis.ForecastWindow))
	}
	return d
}

func buildOverview(ds *model.Dataset, summary *model.Summary, ranking []model.RankingEntry, supervisors []model.SupervisorSummary, opts Options) Overview {
	o := Overview{
		Filename:     ds.Filename,
		SheetName:    ds.SheetName,
		Records:      len(ds.Records),
		RejectedRows: len(ds.RowErrors),
		Technicians:  len(summary.Technicians),
		Supervisors:  len(supervisors),
		Weeks:        len(summary.Weeks),
		WeeklyGoal:   opts.Goals.BaseWeekly(),
		DailyGoal:    opts.Goals.BaseDaily(),
	}

	for _, r := range ds.Records {
		o.TotalScore += r.Score
		if o.FirstDate.IsZero() || r.Date.Before(o.FirstDate) {
			o.FirstDate = r.Date
		}
		if r.Date.After(o.LastDate) {
			o.LastDate = r.Date
		}
	}

	if len(ranking) > 0 {
		var sum float64
		for _, e := range ranking {
			sum += e.MetPercent
		}
		o.MeanMetPercent = sum / float64(len(ranking))
	}
	return o
}

// TechnicianDetail 单个技术员的详情视图
type TechnicianDetail struct {
	Technician    string                   `json:"technician"`
	Supervisor    string                   `json:"supervisor"`
	Ranking       *model.RankingEntry      `json:"ranking,omitempty"`
	Weeks         []model.WeeklySummary    `json:"weeks"`
	Daily         []model.DailyTotal       `json:"daily"`
	Trend         model.TrendAnalysis      `json:"trend"`
	Forecasts     []model.Forecast         `json:"forecasts"`
	Streak        model.Streak             `json:"streak"`
	Patterns      []model.Pattern          `json:"patterns"`
	Alerts        []model.Alert            `json:"alerts"`
	Neighborhoods model.NeighborhoodImpact `json:"neighborhoods"`
	MeanScore     float64                  `json:"meanScore"`
	TeamMeanScore float64                  `json:"teamMeanScore"`
}

// Technicians 技术员名称（升序）
func (d *Dashboard) Technicians() []string {
	return d.Summary.Technicians
}

// Technician 技术员详情
func (d *Dashboard) Technician(name string) (*TechnicianDetail, error) {
	byTech := calculator.ByTechnician(d.Summary.Weekly)
	weeks, ok := byTech[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTechnicianNotFound, name)
	}

	detail := &TechnicianDetail{
		Technician: name,
		Supervisor: weeks[0].Supervisor,
		Weeks:      weeks,
		Trend:      analysis.Trend(d.Summary.Weekly, name, d.opts.Analysis.TrendWindow, d.opts.Analysis.TrendThreshold),
		Forecasts: []model.Forecast{
			analysis.Forecast(d.Summary.Weekly, name, model.ForecastMovingAverage, d.opts.Analysis.ForecastWindow),
			analysis.Forecast(d.Summary.Weekly, name, model.ForecastRegression, d.opts.Analysis.ForecastWindow),
		},
		Neighborhoods: analysis.NeighborhoodImpact(d.Summary.Daily, name),
	}

	for _, daily := range d.Summary.Daily {
		if daily.Technician == name {
			detail.Daily = append(detail.Daily, daily)
		}
	}
	for i := range d.Ranking {
		if d.Ranking[i].Technician == name {
			entry := d.Ranking[i]
			detail.Ranking = &entry
			detail.MeanScore = entry.MeanScore
		}
	}
	for _, s := range d.Streaks {
		if s.Technician == name {
			detail.Streak = s
		}
	}
	for _, p := range d.Patterns {
		if p.Technician == name {
			detail.Patterns = append(detail.Patterns, p)
		}
	}
	for _, a := range d.Alerts {
		if a.Technician == name {
			detail.Alerts = append(detail.Alerts, a)
		}
	}

	var total float64
	for _, w := range d.Summary.Weekly {
		total += w.Score
	}
	if n := len(d.Summary.Weekly); n > 0 {
		detail.TeamMeanScore = total / float64(n)
	}
	return detail, nil
}

// Forecast 使用指定模型预测技术员下周产出
func (d *Dashboard) Forecast(name string, kind model.ForecastModel) (model.Forecast, error) {
	if _, ok := calculator.ByTechnician(d.Summary.Weekly)[name]; !ok {
		return model.Forecast{}, fmt.Errorf("%w: %s", ErrTechnicianNotFound, name)
	}
	return analysis.Forecast(d.Summary.Weekly, name, kind, d.opts.Analysis.ForecastWindow), nil
}
