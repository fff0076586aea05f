package calculator

import (
	"errors"
	"strings"

	"fieldpulse/internal/model"
)

var (
	ErrNegativeScore     = errors.New("produtividade negativa")
	ErrEmptyTechnician   = errors.New("nome do colaborador vazio")
	ErrEmptySupervisor   = errors.New("supervisor vazio")
	ErrMissingRecordDate = errors.New("data ausente")
)

// ValidateRecord 业务规则校验
func ValidateRecord(r model.Record) error {
	switch {
	case r.Date.IsZero():
		return ErrMissingRecordDate
	case strings.TrimSpace(r.Technician) == "":
		return ErrEmptyTechnician
	case strings.TrimSpace(r.Supervisor) == "":
		return ErrEmptySupervisor
	case r.Score < 0:
		return ErrNegativeScore
	}
	return nil
}

// ApplyRules 过滤不满足业务规则的记录，转换为行级错误
func ApplyRules(records []model.Record) ([]model.Record, []model.RowError) {
	valid := make([]model.Record, 0, len(records))
	var rowErrors []model.RowError
	for _, r := range records {
		if err := ValidateRecord(r); err != nil {
			rowErrors = append(rowErrors, model.RowError{
				SheetName: r.SourceSheet,
				RowNo:     r.RowNo,
				Reason:    err.Error(),
			})
			continue
		}
		valid = append(valid, r)
	}
	return valid, rowErrors
}
