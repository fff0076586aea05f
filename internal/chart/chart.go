package chart

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"sort"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"fieldpulse/internal/model"
)

var (
	ErrNoData      = errors.New("no data to plot")
	ErrUnknownKind = errors.New("unknown chart kind")
)

// 图表类型
const (
	KindRanking   = "ranking"
	KindEvolution = "evolution"
	KindTrend     = "trend"
	KindStreaks   = "streaks"
	KindTeam      = "team"
)

const (
	defaultWidth  = 10 * vg.Inch
	defaultHeight = 5 * vg.Inch

	// 趋势图中同时绘制的技术员上限
	maxEvolutionLines = 8
)

var (
	colorBar     = color.RGBA{R: 70, G: 130, B: 180, A: 255}
	colorMissed  = color.RGBA{R: 220, G: 20, B: 60, A: 255}
	colorMet     = color.RGBA{R: 34, G: 139, B: 34, A: 255}
	colorGoal    = color.RGBA{R: 200, G: 0, B: 0, A: 255}
	colorProject = color.RGBA{R: 255, G: 140, B: 0, A: 255}
)

func newPlot(title, xLabel, yLabel string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.Title.TextStyle.Font.Size = vg.Points(14)
	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel
	p.Add(plotter.NewGrid())
	return p
}

func writePNG(w io.Writer, p *plot.Plot) error {
	wt, err := p.WriterTo(defaultWidth, defaultHeight, "png")
	if err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("write chart: %w", err)
	}
	return nil
}

// goalLine 目标水平虚线
func goalLine(goal float64) *plotter.Function {
	line := plotter.NewFunction(func(float64) float64 { return goal })
	line.Color = colorGoal
	line.Dashes = []vg.Length{vg.Points(5), vg.Points(5)}
	line.Width = vg.Points(1.5)
	return line
}

func weekLabels(weeks []time.Time) []string {
	labels := make([]string, len(weeks))
	for i, w := range weeks {
		labels[i] = w.Format("02/01")
	}
	return labels
}

// RankingBar 一致性排名柱状图（达标率）
func RankingBar(w io.Writer, ranking []model.RankingEntry, topN int) error {
	if topN > 0 && len(ranking) > topN {
		ranking = ranking[:topN]
	}
	if len(ranking) == 0 {
		return ErrNoData
	}

	p := newPlot("Ranking de consistência", "", "% de metas batidas")
	values := make(plotter.Values, len(ranking))
	labels := make([]string, len(ranking))
	for i, e := range ranking {
		values[i] = e.MetPercent
		labels[i] = e.Technician
	}

	bars, err := plotter.NewBarChart(values, vg.Points(20))
	if err != nil {
		return fmt.Errorf("bar chart: %w", err)
	}
	bars.Color = colorBar
	bars.LineStyle.Width = vg.Length(0)
	p.Add(bars)
	p.NominalX(labels...)
	p.X.Tick.Label.Rotation = 0.8
	p.X.Tick.Label.XAlign = draw.XRight
	p.Y.Min, p.Y.Max = 0, 100

	return writePNG(w, p)
}

// Evolution 周产出演变（每位技术员一条线，叠加周目标）
func Evolution(w io.Writer, weekly []model.WeeklySummary, technicians []string, goal float64) error {
	if len(weekly) == 0 || len(technicians) == 0 {
		return ErrNoData
	}
	if len(technicians) > maxEvolutionLines {
		technicians = technicians[:maxEvolutionLines]
	}

	weeks := distinctWeeks(weekly)
	index := make(map[time.Time]int, len(weeks))
	for i, wk := range weeks {
		index[wk] = i
	}

	p := newPlot("Evolução da produtividade", "Semana", "Produtividade")
	for i, tech := range technicians {
		var pts plotter.XYs
		for _, row := range weekly {
			if row.Technician == tech {
				pts = append(pts, plotter.XY{X: float64(index[row.WeekStart]), Y: row.Score})
			}
		}
		if len(pts) == 0 {
			continue
		}
		line, points, err := plotter.NewLinePoints(pts)
		if err != nil {
			return fmt.Errorf("line for %s: %w", tech, err)
		}
		line.Color = plotutil.Color(i)
		line.Width = vg.Points(2)
		points.Color = plotutil.Color(i)
		p.Add(line, points)
		p.Legend.Add(tech, line, points)
	}

	if goal > 0 {
		p.Add(goalLine(goal))
		p.Legend.Add("Meta", goalLine(goal))
	}
	p.NominalX(weekLabels(weeks)...)
	p.Legend.Top = true

	return writePNG(w, p)
}

// TrendLine 技术员趋势：实际产出、拟合线与下周预测
func TrendLine(w io.Writer, trend model.TrendAnalysis) error {
	if trend.Status != model.StatusOK || len(trend.Points) == 0 {
		return ErrNoData
	}

	p := newPlot("Tendência: "+trend.Technician, "Semana", "Produtividade")

	actual := make(plotter.XYs, len(trend.Points))
	for i, pt := range trend.Points {
		actual[i] = plotter.XY{X: float64(i), Y: pt.Value}
	}
	scatter, err := plotter.NewScatter(actual)
	if err != nil {
		return fmt.Errorf("scatter: %w", err)
	}
	scatter.GlyphStyle.Color = colorBar
	scatter.GlyphStyle.Radius = vg.Points(4)
	scatter.GlyphStyle.Shape = draw.CircleGlyph{}

	fitted := make(plotter.XYs, len(trend.Line))
	weeks := make([]time.Time, len(trend.Line))
	for i, pt := range trend.Line {
		fitted[i] = plotter.XY{X: float64(i), Y: pt.Value}
		weeks[i] = pt.Week
	}
	line, err := plotter.NewLine(fitted)
	if err != nil {
		return fmt.Errorf("trend line: %w", err)
	}
	line.Color = colorProject
	line.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}

	projection, err := plotter.NewScatter(plotter.XYs{{X: float64(len(trend.Line) - 1), Y: trend.Projection}})
	if err != nil {
		return fmt.Errorf("projection: %w", err)
	}
	projection.GlyphStyle.Color = colorProject
	projection.GlyphStyle.Radius = vg.Points(6)
	projection.GlyphStyle.Shape = draw.PyramidGlyph{}

	p.Add(scatter, line, projection)
	p.Legend.Add("Produtividade", scatter)
	p.Legend.Add("Tendência", line)
	p.Legend.Add("Projeção", projection)
	if trend.LastGoal > 0 {
		p.Add(goalLine(trend.LastGoal))
		p.Legend.Add("Meta", goalLine(trend.LastGoal))
	}
	p.NominalX(weekLabels(weeks)...)
	p.Legend.Top = true

	return writePNG(w, p)
}

// StreakBars 最长连续达标/未达标周数
func StreakBars(w io.Writer, streaks []model.Streak, topN int) error {
	if topN > 0 && len(streaks) > topN {
		streaks = streaks[:topN]
	}
	if len(streaks) == 0 {
		return ErrNoData
	}

	met := make(plotter.Values, len(streaks))
	missed := make(plotter.Values, len(streaks))
	labels := make([]string, len(streaks))
	for i, s := range streaks {
		met[i] = float64(s.LongestMet)
		missed[i] = float64(s.LongestMissed)
		labels[i] = s.Technician
	}

	p := newPlot("Sequências de metas", "", "Semanas")
	width := vg.Points(12)

	metBars, err := plotter.NewBarChart(met, width)
	if err != nil {
		return fmt.Errorf("met bars: %w", err)
	}
	metBars.Color = colorMet
	metBars.LineStyle.Width = vg.Length(0)
	metBars.Offset = -width / 2

	missedBars, err := plotter.NewBarChart(missed, width)
	if err != nil {
		return fmt.Errorf("missed bars: %w", err)
	}
	missedBars.Color = colorMissed
	missedBars.LineStyle.Width = vg.Length(0)
	missedBars.Offset = width / 2

	p.Add(metBars, missedBars)
	p.Legend.Add("Maior sequência batendo meta", metBars)
	p.Legend.Add("Maior sequência sem meta", missedBars)
	p.Legend.Top = true
	p.NominalX(labels...)
	p.X.Tick.Label.Rotation = 0.8
	p.X.Tick.Label.XAlign = draw.XRight

	return writePNG(w, p)
}

// TeamBars 团队周产出与团队目标
func TeamBars(w io.Writer, team []model.TeamAttainment) error {
	if len(team) == 0 {
		return ErrNoData
	}

	scores := make(plotter.Values, len(team))
	goals := make(plotter.XYs, len(team))
	weeks := make([]time.Time, len(team))
	for i, t := range team {
		scores[i] = t.Score
		goals[i] = plotter.XY{X: float64(i), Y: t.Goal}
		weeks[i] = t.WeekStart
	}

	p := newPlot("Meta da equipe", "Semana", "Produtividade")
	bars, err := plotter.NewBarChart(scores, vg.Points(20))
	if err != nil {
		return fmt.Errorf("team bars: %w", err)
	}
	bars.Color = colorBar
	bars.LineStyle.Width = vg.Length(0)

	goalPts, err := plotter.NewLine(goals)
	if err != nil {
		return fmt.Errorf("team goal: %w", err)
	}
	goalPts.Color = colorGoal
	goalPts.Dashes = []vg.Length{vg.Points(5), vg.Points(5)}

	p.Add(bars, goalPts)
	p.Legend.Add("Produção", bars)
	p.Legend.Add("Meta", goalPts)
	p.Legend.Top = true
	p.NominalX(weekLabels(weeks)...)

	return writePNG(w, p)
}

func distinctWeeks(weekly []model.WeeklySummary) []time.Time {
	seen := make(map[time.Time]bool)
	var weeks []time.Time
	for _, w := range weekly {
		if !seen[w.WeekStart] {
			seen[w.WeekStart] = true
			weeks = append(weeks, w.WeekStart)
		}
	}
	sort.Slice(weeks, func(i, j int) bool { return weeks[i].Before(weeks[j]) })
	return weeks
}
