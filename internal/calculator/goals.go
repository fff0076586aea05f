package calculator

import (
	"time"

	"fieldpulse/internal/config"
)

const dateKeyLayout = "2006-01-02"

// WeekStart 返回日期所在周的周一（UTC 零点）
func WeekStart(date time.Time) time.Time {
	d := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	offset := (int(d.Weekday()) + 6) % 7 // 周一=0 ... 周日=6
	return d.AddDate(0, 0, -offset)
}

// Goals 目标计算（考虑节假日与加班）
type Goals struct {
	daily        float64
	weekly       float64
	workdayHours float64
	holidays     map[string]bool
}

// NewGoals 创建目标计算器
func NewGoals(cfg config.GoalsConfig, holidays []time.Time) *Goals {
	g := &Goals{
		daily:        cfg.Daily,
		weekly:       cfg.Weekly,
		workdayHours: cfg.WorkdayHours,
		holidays:     make(map[string]bool, len(holidays)),
	}
	for _, h := range holidays {
		g.holidays[h.Format(dateKeyLayout)] = true
	}
	return g
}

// GoalsFromConfig 从应用配置创建目标计算器
func GoalsFromConfig(cfg *config.AppConfig) (*Goals, error) {
	holidays, err := cfg.HolidayDates()
	if err != nil {
		return nil, err
	}
	return NewGoals(cfg.Goals, holidays), nil
}

// BaseDaily 未调整的日目标
func (g *Goals) BaseDaily() float64 { return g.daily }

// BaseWeekly 未调整的周目标
func (g *Goals) BaseWeekly() float64 { return g.weekly }

// IsHoliday 是否节假日
func (g *Goals) IsHoliday(date time.Time) bool {
	return g.holidays[date.Format(dateKeyLayout)]
}

// Daily 日目标：节假日为 0
func (g *Goals) Daily(date time.Time) float64 {
	if g.IsHoliday(date) {
		return 0
	}
	return g.daily
}

// HolidaysInWeek 统计 [周一, 周日] 内的节假日天数
func (g *Goals) HolidaysInWeek(weekStart time.Time) int {
	n := 0
	for i := 0; i < 7; i++ {
		if g.IsHoliday(weekStart.AddDate(0, 0, i)) {
			n++
		}
	}
	return n
}

// Weekly 周目标 = 周目标 - 日目标 × 当周节假日天数（不小于 0）
func (g *Goals) Weekly(weekStart time.Time) float64 {
	goal := g.weekly - g.daily*float64(g.HolidaysInWeek(weekStart))
	if goal < 0 {
		return 0
	}
	return goal
}

// WithOvertime 加班折算：每小时加班增加 日目标/工作时长
func (g *Goals) WithOvertime(goal, hours float64) float64 {
	if hours <= 0 || g.workdayHours <= 0 {
		return goal
	}
	return goal + hours*g.daily/g.workdayHours
}

// GoalRatio 达成率（目标或产出非正时为 0）
func GoalRatio(score, goal float64) float64 {
	if goal <= 0 || score <= 0 {
		return 0
	}
	return score / goal
}
