package parser

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/xuri/excelize/v2"

	"fieldpulse/internal/config"
)

var originalHeaders = []string{
	"Date (Data Fechamento Operações)",
	"Supervisor",
	"Nome Colaborador",
	"QTD. PROXXIMA | Produtivas - Fechamento Geral",
	"ID Protocolo | Proxxima",
}

func defaultColumns() config.ColumnsConfig {
	return config.DefaultConfig().Columns
}

func buildWorkbook(t *testing.T, sheets map[string][][]interface{}) *excelize.File {
	t.Helper()

	f := excelize.NewFile()
	t.Cleanup(func() { _ = f.Close() })

	first := true
	for name, rows := range sheets {
		if first {
			if err := f.SetSheetName("Sheet1", name); err != nil {
				t.Fatalf("rename sheet: %v", err)
			}
			first = false
		} else if _, err := f.NewSheet(name); err != nil {
			t.Fatalf("new sheet: %v", err)
		}
		for i := range rows {
			cellName, _ := excelize.CoordinatesToCellName(1, i+1)
			row := rows[i]
			if err := f.SetSheetRow(name, cellName, &row); err != nil {
				t.Fatalf("SetSheetRow failed: %v", err)
			}
		}
	}
	return f
}

func headerRow(headers []string) []interface{} {
	row := make([]interface{}, len(headers))
	for i, h := range headers {
		row[i] = h
	}
	return row
}

func TestFieldMapper_OriginalHeaders(t *testing.T) {
	t.Parallel()

	mapping := NewFieldMapper(defaultColumns()).Map(originalHeaders)
	want := map[Column]int{
		ColumnDate:       0,
		ColumnSupervisor: 1,
		ColumnTechnician: 2,
		ColumnScore:      3,
		ColumnProtocol:   4,
	}
	if diff := cmp.Diff(want, mapping.Indexes); diff != "" {
		t.Fatalf("mapping mismatch (-want +got):\n%s", diff)
	}
	if err := mapping.Validate("x"); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestFieldMapper_SupervisorBeforeTechnician(t *testing.T) {
	t.Parallel()

	mapping := NewFieldMapper(defaultColumns()).Map([]string{
		"Nome Supervisor", "Nome Técnico", "Dia / Data", "Pontuação", "Bairro",
	})
	if idx, _ := mapping.Index(ColumnSupervisor); idx != 0 {
		t.Fatalf("supervisor idx=%d", idx)
	}
	if idx, _ := mapping.Index(ColumnTechnician); idx != 1 {
		t.Fatalf("technician idx=%d", idx)
	}
	if idx, _ := mapping.Index(ColumnNeighborhood); idx != 4 {
		t.Fatalf("neighborhood idx=%d", idx)
	}
}

func TestValidate_MissingColumnsIsDeterministic(t *testing.T) {
	t.Parallel()

	headers := []string{"Nome Colaborador", "Produtividade"}
	mapper := NewFieldMapper(defaultColumns())

	var first string
	for i := 0; i < 5; i++ {
		err := mapper.Map(headers).Validate("Plan1")
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		if diff := cmp.Diff([]Column{ColumnDate, ColumnSupervisor}, vErr.Missing); diff != "" {
			t.Fatalf("missing mismatch (-want +got):\n%s", diff)
		}
		if i == 0 {
			first = err.Error()
		} else if err.Error() != first {
			t.Fatalf("non-deterministic error: %q vs %q", err.Error(), first)
		}
	}
}

func TestSheetRecognizer_PrefersAnalyticSheet(t *testing.T) {
	t.Parallel()

	r := NewSheetRecognizer(defaultColumns())
	plain := r.Recognize("Resumo", originalHeaders)
	preferred := r.Recognize("1. ANALÍTICO", originalHeaders)
	if !plain.Recognized() || !preferred.Recognized() {
		t.Fatalf("expected both recognized: %v %v", plain.Confidence, preferred.Confidence)
	}
	if preferred.Confidence <= plain.Confidence {
		t.Fatalf("preferred sheet should score higher: %v <= %v", preferred.Confidence, plain.Confidence)
	}

	unknown := r.Recognize("Notas", []string{"Observação"})
	if unknown.Recognized() {
		t.Fatalf("unexpected recognition: %v", unknown.Confidence)
	}
}

func TestWorkbookParser_ParsesBestSheet(t *testing.T) {
	t.Parallel()

	wb := buildWorkbook(t, map[string][][]interface{}{
		"Notas": {
			{"Observação"},
			{"planilha gerada pelo sistema"},
		},
		"1. ANALÍTICO": {
			headerRow(originalHeaders),
			{"2024-01-01", "Carla", "Ana", 10, "P-1"},
			{time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), "Carla", "Ana", "7,5", "P-2"},
			{"03/01/2024", "Carla", "Bruno", "6", "P-3"},
			{},
			{"sem data", "Carla", "Bruno", "6", "P-4"},
		},
	})

	res, err := NewWorkbookParser(wb, NewSheetRecognizer(defaultColumns())).Parse()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if res.SheetName != "1. ANALÍTICO" {
		t.Fatalf("sheet=%q", res.SheetName)
	}
	if res.TotalRows != 4 {
		t.Fatalf("total rows=%d want 4 (blank row skipped)", res.TotalRows)
	}
	if len(res.Records) != 3 {
		t.Fatalf("records=%d want 3", len(res.Records))
	}
	if len(res.RowErrors) != 1 || res.RowErrors[0].RowNo != 6 {
		t.Fatalf("row errors=%+v", res.RowErrors)
	}

	second := res.Records[1]
	if !second.Date.Equal(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("date from time cell=%v", second.Date)
	}
	if second.Score != 7.5 || second.Technician != "Ana" || second.Supervisor != "Carla" {
		t.Fatalf("unexpected record: %+v", second)
	}
	if res.Records[2].Date.Day() != 3 {
		t.Fatalf("dd/mm/yyyy parsed as %v", res.Records[2].Date)
	}
}

func TestWorkbookParser_MissingSupervisorColumn(t *testing.T) {
	t.Parallel()

	wb := buildWorkbook(t, map[string][][]interface{}{
		"Dados": {
			{"Data", "Nome Colaborador", "Produtividade"},
			{"2024-01-01", "Ana", 10},
		},
	})

	res, err := NewWorkbookParser(wb, NewSheetRecognizer(defaultColumns())).Parse()
	if res != nil {
		t.Fatalf("expected no result, got %+v", res)
	}
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if diff := cmp.Diff([]Column{ColumnSupervisor}, vErr.Missing); diff != "" {
		t.Fatalf("missing mismatch (-want +got):\n%s", diff)
	}
}

func TestWorkbookParser_HeaderOnly(t *testing.T) {
	t.Parallel()

	wb := buildWorkbook(t, map[string][][]interface{}{
		"Dados": {headerRow(originalHeaders)},
	})
	_, err := NewWorkbookParser(wb, NewSheetRecognizer(defaultColumns())).Parse()
	if !errors.Is(err, ErrNoDataRows) {
		t.Fatalf("expected ErrNoDataRows, got %v", err)
	}
}

func TestWorkbookParser_AllRowsInvalid(t *testing.T) {
	t.Parallel()

	wb := buildWorkbook(t, map[string][][]interface{}{
		"Dados": {
			headerRow(originalHeaders),
			{"ontem", "Carla", "Ana", 10},
			{"2024-01-01", "Carla", "", 10},
		},
	})
	_, err := NewWorkbookParser(wb, NewSheetRecognizer(defaultColumns())).Parse()
	if !errors.Is(err, ErrNoValidRows) {
		t.Fatalf("expected ErrNoValidRows, got %v", err)
	}
	var rejected *RowsRejectedError
	if !errors.As(err, &rejected) {
		t.Fatalf("expected *RowsRejectedError, got %T", err)
	}
	if rejected.SheetName != "Dados" || len(rejected.RowErrors) != 2 {
		t.Fatalf("unexpected rejection: %+v", rejected)
	}
	if rejected.RowErrors[0].RowNo != 2 || rejected.RowErrors[1].RowNo != 3 {
		t.Fatalf("unexpected row numbers: %+v", rejected.RowErrors)
	}
}

func TestParseCSV_AllDatesMalformed(t *testing.T) {
	t.Parallel()

	input := "Data,Supervisor,Nome Colaborador,Produtividade\n" +
		"amanhã,Carla,Ana,10\n" +
		"ontem,Carla,Ana,5\n"
	_, err := ParseCSV(strings.NewReader(input), NewFieldMapper(defaultColumns()))
	var rejected *RowsRejectedError
	if !errors.As(err, &rejected) {
		t.Fatalf("expected *RowsRejectedError, got %v", err)
	}
	if len(rejected.RowErrors) != 2 {
		t.Fatalf("row errors=%+v", rejected.RowErrors)
	}
	for _, re := range rejected.RowErrors {
		if !strings.HasPrefix(re.Reason, "data inválida") || re.Column != "Data" {
			t.Fatalf("unexpected row error: %+v", re)
		}
	}
}

func TestParseCSV_SemicolonDelimiter(t *testing.T) {
	t.Parallel()

	input := "\xef\xbb\xbfData;Supervisor;Nome Colaborador;Produtividade;Bairro\n" +
		"2024-01-01;Carla;Ana;10,5;Centro\n" +
		"02/01/2024;Carla;Ana;8;Centro\n"

	res, err := ParseCSV(strings.NewReader(input), NewFieldMapper(defaultColumns()))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if res.SheetName != CSVSheetName || len(res.Records) != 2 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.Records[0].Score != 10.5 || res.Records[0].Neighborhood != "Centro" {
		t.Fatalf("unexpected record: %+v", res.Records[0])
	}
	if !res.Mapping.Has(ColumnNeighborhood) || res.Mapping.Has(ColumnProtocol) {
		t.Fatalf("unexpected mapping: %+v", res.Mapping.Indexes)
	}
}

func TestParseCSV_CommaDelimiterMissingDate(t *testing.T) {
	t.Parallel()

	input := "Supervisor,Nome Colaborador,Produtividade\nCarla,Ana,10\n"
	_, err := ParseCSV(strings.NewReader(input), NewFieldMapper(defaultColumns()))
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if vErr.SheetName != CSVSheetName || len(vErr.Missing) != 1 || vErr.Missing[0] != ColumnDate {
		t.Fatalf("unexpected validation error: %+v", vErr)
	}
}
