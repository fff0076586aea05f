package model

import "time"

// DailyTotal 技术员单日汇总
type DailyTotal struct {
	Technician string    `json:"technician"`
	Supervisor string    `json:"supervisor"`
	Date       time.Time `json:"date"`
	Score      float64   `json:"score"`
	Protocols  int       `json:"protocols"`
	Goal       float64   `json:"goal"`
	Ratio      float64   `json:"ratio"`
	GoalMet    bool      `json:"goalMet"`

	Neighborhoods []string `json:"neighborhoods,omitempty"` // 当日作业街区（去重、排序）
}

// WeeklySummary 技术员周汇总（周一为一周开始）
type WeeklySummary struct {
	Technician    string    `json:"technician"`
	Supervisor    string    `json:"supervisor"`
	WeekStart     time.Time `json:"weekStart"`
	Score         float64   `json:"score"`
	Protocols     int       `json:"protocols"`
	Days          int       `json:"days"`
	Goal          float64   `json:"goal"`
	OvertimeHours float64   `json:"overtimeHours"`
	Ratio         float64   `json:"ratio"`
	GoalMet       bool      `json:"goalMet"`
}

// TeamAttainment 团队周目标达成
type TeamAttainment struct {
	WeekStart   time.Time `json:"weekStart"`
	TeamSize    int       `json:"teamSize"`
	Active      int       `json:"active"` // 当周有记录的技术员数
	Goal        float64   `json:"goal"`
	Score       float64   `json:"score"`
	Ratio       float64   `json:"ratio"`
	GoalReached bool      `json:"goalReached"`
}

// NeighborhoodSummary 按街区统计的技术员工作日达标情况
type NeighborhoodSummary struct {
	Neighborhood string  `json:"neighborhood"`
	Days         int     `json:"days"` // 在该街区作业的 (技术员, 日) 数
	Met          int     `json:"met"`
	Rate         float64 `json:"rate"`
}

// Summary 聚合结果
type Summary struct {
	Daily         []DailyTotal          `json:"daily"`
	Weekly        []WeeklySummary       `json:"weekly"`
	Team          []TeamAttainment      `json:"team"`
	Neighborhoods []NeighborhoodSummary `json:"neighborhoods,omitempty"`
	Technicians   []string              `json:"technicians"`
	Weeks         []time.Time           `json:"weeks"`
}
