package parser

import (
	"strings"

	"fieldpulse/internal/config"
)

// SheetRecognizer Sheet 识别器
type SheetRecognizer struct {
	mapper         *FieldMapper
	preferredSheet string
}

// NewSheetRecognizer 创建识别器
func NewSheetRecognizer(cols config.ColumnsConfig) *SheetRecognizer {
	return &SheetRecognizer{
		mapper:         NewFieldMapper(cols),
		preferredSheet: NormalizeColumnName(cols.PreferredSheet),
	}
}

// Mapper 返回识别器使用的字段映射器
func (r *SheetRecognizer) Mapper() *FieldMapper {
	return r.mapper
}

// Recognize 识别单个 Sheet：置信度 = 命中的必填列 / 必填列总数
func (r *SheetRecognizer) Recognize(sheetName string, headers []string) SheetRecognitionResult {
	mapping := r.mapper.Map(headers)

	matched := 0
	for _, c := range RequiredColumns {
		if mapping.Has(c) {
			matched++
		}
	}
	confidence := float64(matched) / float64(len(RequiredColumns))

	// Sheet 名称辅助判定
	if r.preferredSheet != "" && matched > 0 &&
		strings.HasPrefix(NormalizeColumnName(sheetName), r.preferredSheet) {
		confidence += 0.2
	}

	return SheetRecognitionResult{
		SheetName:  sheetName,
		Confidence: confidence,
		Mapping:    mapping,
	}
}

// sheetHeaders 工作表名称与表头
type sheetHeaders struct {
	Name    string
	Headers []string
}

// Best 选出置信度最高的 Sheet（并列时取靠前者）
func (r *SheetRecognizer) Best(sheets []sheetHeaders) (SheetRecognitionResult, bool) {
	var (
		best  SheetRecognitionResult
		found bool
	)
	for _, s := range sheets {
		if len(s.Headers) == 0 {
			continue
		}
		res := r.Recognize(s.Name, s.Headers)
		if !found || res.Confidence > best.Confidence {
			best = res
			found = true
		}
	}
	return best, found
}
