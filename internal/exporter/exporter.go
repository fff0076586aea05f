package exporter

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/xuri/excelize/v2"
)

const (
	// TemplateSheet 模板数据表名称（上传时优先识别该 Sheet）
	TemplateSheet = "1. ANALÍTICO"
	defaultSheet  = "Sheet1"
)

// TemplateHeaders 模板列头：前四列必填，后两列可选
var TemplateHeaders = []string{
	"Data",
	"Supervisor",
	"Nome Colaborador",
	"Produtividade",
	"ID Protocolo",
	"Bairro",
}

// Exporter xlsx 导出器
type Exporter struct {
	templatePath string
}

// NewExporter 创建导出器；templatePath 为空时生成内置模板
func NewExporter(templatePath string) *Exporter {
	return &Exporter{templatePath: templatePath}
}

// Template 下载用的空白数据模板
func (e *Exporter) Template() (*excelize.File, error) {
	// 优先使用外部模板；未配置时生成内置模板
	if p := strings.TrimSpace(e.templatePath); p != "" {
		f, err := excelize.OpenFile(p)
		if err != nil {
			return nil, fmt.Errorf("open template %s: %w", p, err)
		}
		return f, nil
	}
	if v := strings.TrimSpace(os.Getenv("FIELDPULSE_TEMPLATE_PATH")); v != "" {
		f, err := excelize.OpenFile(v)
		if err != nil {
			return nil, fmt.Errorf("open template %s: %w", v, err)
		}
		return f, nil
	}
	return buildTemplate()
}

// TemplateBytes 模板的 xlsx 字节
func (e *Exporter) TemplateBytes() ([]byte, error) {
	f, err := e.Template()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return writeBytes(f)
}

func buildTemplate() (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName(defaultSheet, TemplateSheet); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("rename template sheet: %w", err)
	}

	headers := make([]any, len(TemplateHeaders))
	for i, h := range TemplateHeaders {
		headers[i] = h
	}
	if err := writeHeader(f, TemplateSheet, headers); err != nil {
		_ = f.Close()
		return nil, err
	}
	if err := f.SetColWidth(TemplateSheet, "A", "F", 18); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("set template widths: %w", err)
	}
	return f, nil
}

func writeHeader(f *excelize.File, sheet string, headers []any) error {
	if err := f.SetSheetRow(sheet, "A1", &headers); err != nil {
		return fmt.Errorf("write %s header: %w", sheet, err)
	}
	style, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#1F4E78"}, Pattern: 1},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}
	last, err := excelize.CoordinatesToCellName(len(headers), 1)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, "A1", last, style)
}

func writeBytes(f *excelize.File) ([]byte, error) {
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return bytes.Clone(buf.Bytes()), nil
}
