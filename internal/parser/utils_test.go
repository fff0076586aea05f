package parser

import (
	"testing"
	"time"
)

func TestNormalizeColumnName(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"  Nome   Colaborador ":              "nome colaborador",
		"Date (Data Fechamento Operações)":   "date (data fechamento operacoes)",
		"Técnico\n":                          "tecnico",
		"\ufeffSupervisor":                   "supervisor",
		"QTD. PROXXIMA | Produtivas - Geral": "qtd. proxxima | produtivas - geral",
	}
	for in, want := range cases {
		if got := NormalizeColumnName(in); got != want {
			t.Fatalf("NormalizeColumnName(%q)=%q want=%q", in, got, want)
		}
	}
}

func TestParseDate_Layouts(t *testing.T) {
	t.Parallel()

	want := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	for _, in := range []string{
		"2024-01-15",
		"2024-1-15",
		"15/01/2024",
		"15/1/2024",
		"2024-01-15 08:30:00",
		"2024-01-15T08:30:00Z",
		"15.01.2024",
		"15-01-2024",
		"01-15-24", // mm-dd-yy
		"45306",    // Excel 序列值
	} {
		got, err := ParseDate(in)
		if err != nil {
			t.Fatalf("ParseDate(%q) error: %v", in, err)
		}
		if !got.Equal(want) {
			t.Fatalf("ParseDate(%q)=%v want=%v", in, got, want)
		}
	}
}

func TestParseDate_ShortYearIsMonthFirst(t *testing.T) {
	t.Parallel()

	got, err := ParseDate("12-31-24")
	if err != nil {
		t.Fatalf("ParseDate error: %v", err)
	}
	if want := time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Fatalf("ParseDate=%v want=%v", got, want)
	}
	// 四位年份仍按 dd-mm-yyyy 解析
	got, err = ParseDate("05-01-2024")
	if err != nil {
		t.Fatalf("ParseDate error: %v", err)
	}
	if want := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Fatalf("ParseDate=%v want=%v", got, want)
	}
}

func TestParseDate_Invalid(t *testing.T) {
	t.Parallel()

	for _, in := range []string{"", "amanhã", "32/13/2024", "-5", "99999999"} {
		if _, err := ParseDate(in); err == nil {
			t.Fatalf("ParseDate(%q) expected error", in)
		}
	}
}

func TestParseScore(t *testing.T) {
	t.Parallel()

	cases := map[string]float64{
		"":        0,
		"10":      10,
		"10,5":    10.5,
		"1.234,5": 1234.5,
		"1,234.5": 1234.5,
		" 7.25 ":  7.25,
		"-3":      -3,
	}
	for in, want := range cases {
		got, err := ParseScore(in)
		if err != nil {
			t.Fatalf("ParseScore(%q) error: %v", in, err)
		}
		if got != want {
			t.Fatalf("ParseScore(%q)=%v want=%v", in, got, want)
		}
	}

	for _, in := range []string{"dez", "NaN", "1e400"} {
		if _, err := ParseScore(in); err == nil {
			t.Fatalf("ParseScore(%q) expected error", in)
		}
	}
}
