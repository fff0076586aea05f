package parser

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var spaceRe = regexp.MustCompile(`\s+`)

// FoldAccents 去除变音符号: "Técnico" -> "Tecnico"
func FoldAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// NormalizeColumnName 规范化列名：去重音、小写、压缩空白
func NormalizeColumnName(name string) string {
	name = strings.TrimPrefix(name, "\ufeff")
	name = FoldAccents(name)
	name = strings.ToLower(name)
	name = spaceRe.ReplaceAllString(name, " ")
	return strings.TrimSpace(name)
}

// ContainsAny 检查字符串是否包含任意一个关键词
func ContainsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if kw != "" && strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// MatchPattern 使用正则匹配
func MatchPattern(text, pattern string) bool {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return false
	}
	return re.MatchString(text)
}

// Excel 序列日期的合理范围（1900-01-01 ~ 9999-12-31）
const maxExcelSerial = 2958465

var dateLayouts = []string{
	"2006-01-02",
	"2006-1-2",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2/1/2006",
	"2/1/2006 15:04:05",
	"2/1/2006 15:04",
	"2-1-2006",
	"2.1.2006",
	"2006/1/2",
	"01-02-06", // excelize 默认日期格式（CSV 导出常见）
}

// ParseDate 解析日期（ISO、dd/mm/yyyy、Excel 序列值），返回 UTC 零点
func ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}

	if serial, err := strconv.ParseFloat(value, 64); err == nil {
		if math.IsNaN(serial) || serial <= 0 || serial > maxExcelSerial {
			return time.Time{}, fmt.Errorf("date serial %v out of range", serial)
		}
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid date serial %v: %w", serial, err)
		}
		return truncateDay(t), nil
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return truncateDay(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", value)
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseScore 解析数值，兼容 "1.234,5" 与 "1234.5"
func ParseScore(value string) (float64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, nil
	}
	value = strings.ReplaceAll(value, " ", "")

	lastDot := strings.LastIndex(value, ".")
	lastComma := strings.LastIndex(value, ",")
	switch {
	case lastComma >= 0 && lastDot >= 0 && lastComma > lastDot:
		// 1.234,5
		value = strings.ReplaceAll(value, ".", "")
		value = strings.Replace(value, ",", ".", 1)
	case lastComma >= 0 && lastDot >= 0:
		// 1,234.5
		value = strings.ReplaceAll(value, ",", "")
	case lastComma >= 0:
		value = strings.Replace(value, ",", ".", 1)
	}

	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", value)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("invalid number %q", value)
	}
	return f, nil
}
