package parser

import (
	"fieldpulse/internal/config"
)

// FieldMapper 字段映射器：按关键词把表头映射到逻辑列
type FieldMapper struct {
	keywords map[Column][]string
}

// NewFieldMapper 创建字段映射器
func NewFieldMapper(cols config.ColumnsConfig) *FieldMapper {
	m := &FieldMapper{keywords: make(map[Column][]string)}
	m.set(ColumnDate, cols.Date)
	m.set(ColumnSupervisor, cols.Supervisor)
	m.set(ColumnTechnician, cols.Technician)
	m.set(ColumnScore, cols.Score)
	m.set(ColumnProtocol, cols.Protocol)
	m.set(ColumnNeighborhood, cols.Neighborhood)
	return m
}

func (m *FieldMapper) set(c Column, keywords []string) {
	normalized := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		if kw = NormalizeColumnName(kw); kw != "" {
			normalized = append(normalized, kw)
		}
	}
	m.keywords[c] = normalized
}

// Map 映射表头。每个逻辑列取第一个命中的表头，每个表头只归属一个逻辑列；
// 关键词按配置顺序优先，排在前面的关键词先于后面的关键词匹配。
func (m *FieldMapper) Map(headers []string) ColumnMapping {
	mapping := ColumnMapping{
		Indexes: make(map[Column]int),
		Headers: headers,
	}

	normalized := make([]string, len(headers))
	for i, h := range headers {
		normalized[i] = NormalizeColumnName(h)
	}

	used := make(map[int]bool)
	for _, c := range matchOrder {
		if idx, ok := m.match(c, normalized, used); ok {
			mapping.Indexes[c] = idx
			used[idx] = true
		}
	}

	return mapping
}

func (m *FieldMapper) match(c Column, headers []string, used map[int]bool) (int, bool) {
	for _, kw := range m.keywords[c] {
		for idx, h := range headers {
			if h == "" || used[idx] {
				continue
			}
			if ContainsAny(h, []string{kw}) {
				return idx, true
			}
		}
	}
	return 0, false
}

// Validate 校验必填列，缺失时返回 *ValidationError
func (m ColumnMapping) Validate(sheetName string) error {
	missing := m.Missing()
	if len(missing) == 0 {
		return nil
	}
	found := make([]string, 0, len(m.Headers))
	for _, h := range m.Headers {
		if h != "" {
			found = append(found, h)
		}
	}
	return &ValidationError{
		SheetName: sheetName,
		Missing:   missing,
		Found:     found,
	}
}
