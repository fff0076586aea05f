package parser

import (
	"strings"

	"fieldpulse/internal/model"
)

// parseRows 解析数据行（rows[0] 为表头），返回有效记录与行级错误
func parseRows(sheetName string, rows [][]string, mapping ColumnMapping) ([]model.Record, []model.RowError, int) {
	var (
		records   []model.Record
		rowErrors []model.RowError
		total     int
	)

	for rowIdx := 1; rowIdx < len(rows); rowIdx++ {
		row := rows[rowIdx]
		if isBlankRow(row) {
			continue
		}
		total++

		rowNo := rowIdx + 1
		record, rowErr := parseRow(sheetName, rowNo, row, mapping)
		if rowErr != nil {
			rowErrors = append(rowErrors, *rowErr)
			continue
		}
		records = append(records, record)
	}

	return records, rowErrors, total
}

func parseRow(sheetName string, rowNo int, row []string, mapping ColumnMapping) (model.Record, *model.RowError) {
	record := model.Record{
		SourceSheet: sheetName,
		RowNo:       rowNo,
	}

	fail := func(c Column, value, reason string) *model.RowError {
		return &model.RowError{
			SheetName: sheetName,
			RowNo:     rowNo,
			Column:    mapping.Header(c),
			Value:     value,
			Reason:    reason,
		}
	}

	rawDate := cell(row, mapping, ColumnDate)
	date, err := ParseDate(rawDate)
	if err != nil {
		return record, fail(ColumnDate, rawDate, "data inválida: "+err.Error())
	}
	record.Date = date

	record.Technician = cell(row, mapping, ColumnTechnician)
	if record.Technician == "" {
		return record, fail(ColumnTechnician, "", "nome do colaborador vazio")
	}

	record.Supervisor = cell(row, mapping, ColumnSupervisor)
	if record.Supervisor == "" {
		return record, fail(ColumnSupervisor, "", "supervisor vazio")
	}

	rawScore := cell(row, mapping, ColumnScore)
	score, err := ParseScore(rawScore)
	if err != nil {
		return record, fail(ColumnScore, rawScore, "produtividade inválida: "+err.Error())
	}
	record.Score = score

	record.Protocol = cell(row, mapping, ColumnProtocol)
	record.Neighborhood = cell(row, mapping, ColumnNeighborhood)

	return record, nil
}

// cell 读取逻辑列的值（列不存在或越界返回空串）
func cell(row []string, mapping ColumnMapping, c Column) string {
	idx, ok := mapping.Index(c)
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.Join(strings.Fields(row[idx]), " ")
}

func isBlankRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
