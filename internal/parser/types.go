package parser

import (
	"errors"
	"fmt"
	"strings"

	"fieldpulse/internal/model"
)

// Column 逻辑列
type Column string

const (
	ColumnDate         Column = "date"
	ColumnSupervisor   Column = "supervisor"
	ColumnTechnician   Column = "technician"
	ColumnScore        Column = "score"
	ColumnProtocol     Column = "protocol"
	ColumnNeighborhood Column = "neighborhood"
)

// RequiredColumns 必填逻辑列（顺序即错误信息中的顺序）
var RequiredColumns = []Column{ColumnDate, ColumnSupervisor, ColumnTechnician, ColumnScore}

// matchOrder 关键词匹配顺序：主管先于技术员，避免 "Nome Supervisor" 被识别为技术员列
var matchOrder = []Column{
	ColumnDate,
	ColumnSupervisor,
	ColumnTechnician,
	ColumnScore,
	ColumnProtocol,
	ColumnNeighborhood,
}

var (
	// ErrNoDataRows 工作表只有表头或为空
	ErrNoDataRows = errors.New("sheet has no data rows")
	// ErrNoRecognizableSheet 工作簿中没有任何带表头的工作表
	ErrNoRecognizableSheet = errors.New("no sheet with a header row")
	// ErrNoValidRows 所有数据行都解析失败
	ErrNoValidRows = errors.New("no valid data rows")
)

// ValidationError 缺少必填列
type ValidationError struct {
	SheetName string   `json:"sheetName"`
	Missing   []Column `json:"missing"`
	Found     []string `json:"found"`
}

func (e *ValidationError) Error() string {
	missing := make([]string, len(e.Missing))
	for i, c := range e.Missing {
		missing[i] = string(c)
	}
	return fmt.Sprintf("sheet %q is missing required columns: %s (found: %s)",
		e.SheetName, strings.Join(missing, ", "), strings.Join(e.Found, ", "))
}

// RowsRejectedError 所有数据行都被拒绝，携带逐行原因
type RowsRejectedError struct {
	SheetName string           `json:"sheetName"`
	RowErrors []model.RowError `json:"rowErrors"`
}

func (e *RowsRejectedError) Error() string {
	return fmt.Sprintf("sheet %q: %v (%d rows rejected)", e.SheetName, ErrNoValidRows, len(e.RowErrors))
}

// Unwrap 兼容 errors.Is(err, ErrNoValidRows)
func (e *RowsRejectedError) Unwrap() error {
	return ErrNoValidRows
}

// ColumnMapping 逻辑列 -> 表头索引
type ColumnMapping struct {
	Indexes map[Column]int `json:"indexes"`
	Headers []string       `json:"headers"`
}

// Index 获取逻辑列所在索引
func (m ColumnMapping) Index(c Column) (int, bool) {
	idx, ok := m.Indexes[c]
	return idx, ok
}

// Has 是否识别出该列
func (m ColumnMapping) Has(c Column) bool {
	_, ok := m.Indexes[c]
	return ok
}

// Header 逻辑列对应的原始表头
func (m ColumnMapping) Header(c Column) string {
	idx, ok := m.Indexes[c]
	if !ok || idx >= len(m.Headers) {
		return ""
	}
	return m.Headers[idx]
}

// Missing 缺失的必填列
func (m ColumnMapping) Missing() []Column {
	var missing []Column
	for _, c := range RequiredColumns {
		if !m.Has(c) {
			missing = append(missing, c)
		}
	}
	return missing
}

// SheetRecognitionResult Sheet 识别结果
type SheetRecognitionResult struct {
	SheetName  string        `json:"sheetName"`
	Confidence float64       `json:"confidence"` // 置信度 0-1
	Mapping    ColumnMapping `json:"mapping"`
}

// Recognized 是否可作为数据表
func (r SheetRecognitionResult) Recognized() bool {
	return r.Confidence >= 0.5
}

// ParseResult 解析结果
type ParseResult struct {
	SheetName string           `json:"sheetName"`
	Mapping   ColumnMapping    `json:"mapping"`
	Records   []model.Record   `json:"-"`
	RowErrors []model.RowError `json:"rowErrors"`
	TotalRows int              `json:"totalRows"`
}
