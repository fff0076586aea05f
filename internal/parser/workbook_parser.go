package parser

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// WorkbookParser xlsx 解析器
type WorkbookParser struct {
	file       *excelize.File
	recognizer *SheetRecognizer
}

// NewWorkbookParser 创建 xlsx 解析器
func NewWorkbookParser(file *excelize.File, recognizer *SheetRecognizer) *WorkbookParser {
	return &WorkbookParser{
		file:       file,
		recognizer: recognizer,
	}
}

// Parse 选出最匹配的 Sheet 并解析
func (p *WorkbookParser) Parse() (*ParseResult, error) {
	var sheets []sheetHeaders
	for _, name := range p.file.GetSheetList() {
		headers, err := p.headers(name)
		if err != nil {
			return nil, err
		}
		sheets = append(sheets, sheetHeaders{Name: name, Headers: headers})
	}

	best, ok := p.recognizer.Best(sheets)
	if !ok {
		return nil, ErrNoRecognizableSheet
	}

	return p.ParseSheet(best.SheetName)
}

// ParseSheet 解析指定 Sheet
func (p *WorkbookParser) ParseSheet(sheetName string) (*ParseResult, error) {
	rows, err := p.rows(sheetName)
	if err != nil {
		return nil, err
	}
	return parseTable(sheetName, rows, p.recognizer.Mapper())
}

func (p *WorkbookParser) rows(sheetName string) ([][]string, error) {
	// 读取原始值：日期单元格返回 Excel 序列值，避免依赖显示格式
	rows, err := p.file.GetRows(sheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheetName, err)
	}
	return rows, nil
}

func (p *WorkbookParser) headers(sheetName string) ([]string, error) {
	rows, err := p.rows(sheetName)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// parseTable 校验表头并解析数据行（xlsx 与 csv 共用）
func parseTable(sheetName string, rows [][]string, mapper *FieldMapper) (*ParseResult, error) {
	if len(rows) == 0 {
		return nil, ErrNoRecognizableSheet
	}

	mapping := mapper.Map(rows[0])
	if err := mapping.Validate(sheetName); err != nil {
		return nil, err
	}

	records, rowErrors, total := parseRows(sheetName, rows, mapping)
	if total == 0 {
		return nil, fmt.Errorf("sheet %q: %w", sheetName, ErrNoDataRows)
	}

	if len(records) == 0 {
		return nil, &RowsRejectedError{SheetName: sheetName, RowErrors: rowErrors}
	}
	return &ParseResult{
		SheetName: sheetName,
		Mapping:   mapping,
		Records:   records,
		RowErrors: rowErrors,
		TotalRows: total,
	}, nil
}
