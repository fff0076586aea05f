package model

import "time"

// AnalysisStatus 分析状态
type AnalysisStatus string

const (
	StatusOK           AnalysisStatus = "ok"
	StatusInsufficient AnalysisStatus = "insufficient"
)

// RankingEntry 一致性排名条目
type RankingEntry struct {
	Position         int     `json:"position"`
	Technician       string  `json:"technician"`
	Supervisor       string  `json:"supervisor"`
	Weeks            int     `json:"weeks"`
	WeeksMet         int     `json:"weeksMet"`
	MetPercent       float64 `json:"metPercent"` // 0-100
	MeanScore        float64 `json:"meanScore"`
	StdDev           float64 `json:"stdDev"`
	ConsistencyScore float64 `json:"consistencyScore"` // 0-100
}

// TrendDirection 趋势方向
type TrendDirection string

const (
	TrendUp     TrendDirection = "up"
	TrendDown   TrendDirection = "down"
	TrendStable TrendDirection = "stable"
)

// Point 时间序列点
type Point struct {
	Week  time.Time `json:"week"`
	Value float64   `json:"value"`
}

// TrendAnalysis 技术员趋势分析
type TrendAnalysis struct {
	Status         AnalysisStatus `json:"status"`
	Message        string         `json:"message,omitempty"`
	Technician     string         `json:"technician"`
	Direction      TrendDirection `json:"direction,omitempty"`
	Slope          float64        `json:"slope"`
	Intercept      float64        `json:"intercept"`
	Projection     float64        `json:"projection"`
	ProjectionWeek time.Time      `json:"projectionWeek"`
	Confidence     float64        `json:"confidence"` // R²
	LastGoal       float64        `json:"lastGoal"`
	LastGoalMet    bool           `json:"lastGoalMet"`
	Points         []Point        `json:"points,omitempty"`
	Line           []Point        `json:"line,omitempty"`
}

// ForecastModel 预测模型
type ForecastModel string

const (
	ForecastMovingAverage ForecastModel = "moving_average"
	ForecastRegression    ForecastModel = "regression"
)

// Forecast 下周产出预测
type Forecast struct {
	Status     AnalysisStatus `json:"status"`
	Message    string         `json:"message,omitempty"`
	Technician string         `json:"technician"`
	Model      ForecastModel  `json:"model"`
	Value      float64        `json:"value"`
	LastGoal   float64        `json:"lastGoal"`
	Difference float64        `json:"difference"`
}

// Streak 连续达标/未达标
type Streak struct {
	Technician    string `json:"technician"`
	LongestMet    int    `json:"longestMet"`
	LongestMissed int    `json:"longestMissed"`
	CurrentMet    int    `json:"currentMet"`
	CurrentMissed int    `json:"currentMissed"`
	Weeks         int    `json:"weeks"`
}

// PatternKind 表现模式
type PatternKind string

const (
	PatternDeclining   PatternKind = "declining"
	PatternOscillating PatternKind = "oscillating"
	PatternGrowing     PatternKind = "growing"
	PatternNeverMet    PatternKind = "never_met"
)

// Pattern 识别出的表现模式
type Pattern struct {
	Kind       PatternKind `json:"kind"`
	Technician string      `json:"technician"`
	Weeks      int         `json:"weeks"`
	Changes    int         `json:"changes,omitempty"`
	Delta      float64     `json:"delta"`
	MeanScore  float64     `json:"meanScore"`
}

// Severity 告警级别
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

// Rank 级别排序权重（越小越严重）
func (s Severity) Rank() int {
	switch s {
	case SeverityHigh:
		return 0
	case SeverityMedium:
		return 1
	default:
		return 2
	}
}

// AlertKind 告警类型
type AlertKind string

const (
	AlertPerformanceDrop        AlertKind = "performance_drop"
	AlertLowSupervisorSuccess   AlertKind = "low_supervisor_success"
	AlertLowNeighborhoodSuccess AlertKind = "low_neighborhood_success"
	AlertOscillating            AlertKind = "oscillating"
	AlertBelowGoalProjection    AlertKind = "below_goal_projection"
)

// Alert 告警
type Alert struct {
	Kind         AlertKind `json:"kind"`
	Severity     Severity  `json:"severity"`
	Technician   string    `json:"technician,omitempty"`
	Supervisor   string    `json:"supervisor,omitempty"`
	Neighborhood string    `json:"neighborhood,omitempty"`
	Message      string    `json:"message"`
}

// Subject 告警对象（技术员/主管/街区）
func (a Alert) Subject() string {
	switch {
	case a.Technician != "":
		return a.Technician
	case a.Supervisor != "":
		return a.Supervisor
	default:
		return a.Neighborhood
	}
}

// Variation 最近两周的产出变化
type Variation struct {
	Technician string    `json:"technician"`
	Previous   float64   `json:"previous"`
	Current    float64   `json:"current"`
	Delta      float64   `json:"delta"`
	FromWeek   time.Time `json:"fromWeek"`
	ToWeek     time.Time `json:"toWeek"`
}

// SupervisorSummary 主管团队汇总
type SupervisorSummary struct {
	Supervisor  string  `json:"supervisor"`
	Technicians int     `json:"technicians"`
	Weeks       int     `json:"weeks"`
	WeeksMet    int     `json:"weeksMet"`
	MetPercent  float64 `json:"metPercent"`
	MeanScore   float64 `json:"meanScore"`
}

// NeighborhoodStat 技术员在单个街区的表现
type NeighborhoodStat struct {
	Neighborhood string  `json:"neighborhood"`
	Days         int     `json:"days"`
	MeanScore    float64 `json:"meanScore"`   // 当日总产出的平均值
	SuccessRate  float64 `json:"successRate"` // 达成日目标的工作日占比 0-1
}

// NeighborhoodImpact 街区对技术员表现的影响
type NeighborhoodImpact struct {
	Status        AnalysisStatus     `json:"status"`
	Message       string             `json:"message,omitempty"`
	Technician    string             `json:"technician"`
	Best          *NeighborhoodStat  `json:"best,omitempty"`
	Worst         *NeighborhoodStat  `json:"worst,omitempty"`
	Variability   float64            `json:"variability"` // 各街区平均产出的样本标准差
	Neighborhoods []NeighborhoodStat `json:"neighborhoods,omitempty"`
}
