package parser

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
)

// CSVSheetName csv 输入的虚拟 Sheet 名
const CSVSheetName = "csv"

// ParseCSV 解析 csv（自动识别 , 或 ; 分隔符）
func ParseCSV(r io.Reader, mapper *FieldMapper) (*ParseResult, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = detectDelimiter(data)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse csv: %w", err)
	}

	return parseTable(CSVSheetName, rows, mapper)
}

// detectDelimiter 根据表头行判断分隔符
func detectDelimiter(data []byte) rune {
	line, _ := bufio.NewReader(bytes.NewReader(data)).ReadString('\n')
	if bytes.Count([]byte(line), []byte(";")) > bytes.Count([]byte(line), []byte(",")) {
		return ';'
	}
	return ','
}
