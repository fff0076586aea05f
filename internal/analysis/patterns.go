package analysis

import (
	"sort"

	"fieldpulse/internal/model"
)

// patternOrder 输出时各模式的先后顺序
var patternOrder = map[model.PatternKind]int{
	model.PatternDeclining:   0,
	model.PatternOscillating: 1,
	model.PatternGrowing:     2,
	model.PatternNeverMet:    3,
}

// Patterns 识别表现模式；同一技术员可同时属于多个模式
//
//   - 下滑：至少 4 周且最近 3 周均未达标，变化 = 最后一周 - 倒数第 4 周
//   - 波动：至少 OscillationMinWeeks 周且达标状态切换次数 >= OscillationMinChanges
//   - 增长：至少 3 周且最近 3 周均达标，变化 = 最后一周 - 倒数第 3 周
//   - 从未达标
func Patterns(weekly []model.WeeklySummary, opts Options) []model.Pattern {
	var out []model.Pattern

	for _, s := range groupSeries(weekly) {
		scores := s.scores()
		n := len(scores)
		avg := mean(scores)
		base := model.Pattern{Technician: s.technician, Weeks: n, MeanScore: avg}

		if n >= 4 && tailMatches(s.weeks, 3, false) {
			p := base
			p.Kind = model.PatternDeclining
			p.Delta = scores[n-1] - scores[n-4]
			out = append(out, p)
		}

		if changes := goalChanges(s.weeks); n >= opts.OscillationMinWeeks && changes >= opts.OscillationMinChanges {
			p := base
			p.Kind = model.PatternOscillating
			p.Changes = changes
			out = append(out, p)
		}

		if n >= 3 && tailMatches(s.weeks, 3, true) {
			p := base
			p.Kind = model.PatternGrowing
			p.Delta = scores[n-1] - scores[n-3]
			out = append(out, p)
		}

		if n > 0 && !anyMet(s.weeks) {
			p := base
			p.Kind = model.PatternNeverMet
			out = append(out, p)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Kind != b.Kind {
			return patternOrder[a.Kind] < patternOrder[b.Kind]
		}
		switch a.Kind {
		case model.PatternDeclining:
			if a.Delta != b.Delta {
				return a.Delta < b.Delta
			}
		case model.PatternOscillating:
			if a.Changes != b.Changes {
				return a.Changes > b.Changes
			}
		case model.PatternGrowing:
			if a.Delta != b.Delta {
				return a.Delta > b.Delta
			}
		}
		return a.Technician < b.Technician
	})
	return out
}

// FilterPatterns 按类型筛选
func FilterPatterns(patterns []model.Pattern, kind model.PatternKind) []model.Pattern {
	var out []model.Pattern
	for _, p := range patterns {
		if p.Kind == kind {
			out = append(out, p)
		}
	}
	return out
}

func tailMatches(weeks []model.WeeklySummary, n int, met bool) bool {
	if len(weeks) < n {
		return false
	}
	for _, w := range weeks[len(weeks)-n:] {
		if w.GoalMet != met {
			return false
		}
	}
	return true
}

// goalChanges 达标状态在相邻周之间的切换次数
func goalChanges(weeks []model.WeeklySummary) int {
	changes := 0
	for i := 1; i < len(weeks); i++ {
		if weeks[i].GoalMet != weeks[i-1].GoalMet {
			changes++
		}
	}
	return changes
}

func anyMet(weeks []model.WeeklySummary) bool {
	for _, w := range weeks {
		if w.GoalMet {
			return true
		}
	}
	return false
}
