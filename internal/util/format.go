package util

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// FormatPercent 格式化百分比（输入为 0-100）
func FormatPercent(value float64) string {
	return decimalComma(fmt.Sprintf("%.1f", value)) + "%"
}

// FormatDelta 带符号的变化量
func FormatDelta(value float64) string {
	sign := ""
	if value > 0 {
		sign = "+"
	}
	return sign + FormatScore(value)
}

// FormatScore 格式化产出（千分位 "."，小数 ","）
func FormatScore(value float64) string {
	neg := value < 0
	s := fmt.Sprintf("%.1f", math.Abs(value))
	intPart, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}

	out := b.String() + "," + frac
	if neg && out != "0,0" {
		out = "-" + out
	}
	return out
}

// FormatWeek 周起始日期（dd/mm/yyyy）
func FormatWeek(t time.Time) string {
	return t.Format("02/01/2006")
}

func decimalComma(s string) string {
	return strings.Replace(s, ".", ",", 1)
}
