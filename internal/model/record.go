package model

import "time"

// Record 技术员单日生产力记录（上传表格中的一行）
type Record struct {
	Technician   string    `json:"technician"`
	Supervisor   string    `json:"supervisor"`
	Date         time.Time `json:"date"`
	Score        float64   `json:"score"`
	Protocol     string    `json:"protocol,omitempty"`
	Neighborhood string    `json:"neighborhood,omitempty"`

	SourceSheet string `json:"sourceSheet"`
	RowNo       int    `json:"rowNo"` // Excel 行号（从 1 开始，表头为第 1 行）
}

// RowError 行级解析/校验错误
type RowError struct {
	SheetName string `json:"sheetName"`
	RowNo     int    `json:"rowNo"`
	Column    string `json:"column,omitempty"`
	Value     string `json:"value,omitempty"`
	Reason    string `json:"reason"`
}

// Dataset 一次上传解析出的数据集
type Dataset struct {
	Filename        string     `json:"filename"`
	SheetName       string     `json:"sheetName"`
	Records         []Record   `json:"-"`
	RowErrors       []RowError `json:"rowErrors"`
	TotalRows       int        `json:"totalRows"`
	HasNeighborhood bool       `json:"hasNeighborhood"`
	HasProtocol     bool       `json:"hasProtocol"`
	ImportedAt      time.Time  `json:"importedAt"`
}

// ManualInputs 手动输入：团队人数与每位技术员的每周加班小时
type ManualInputs struct {
	TeamSize int                `json:"teamSize"`
	Overtime map[string]float64 `json:"overtime"`
}

// OvertimeFor 获取技术员的加班小时（未设置返回 0）
func (in ManualInputs) OvertimeFor(technician string) float64 {
	if in.Overtime == nil {
		return 0
	}
	return in.Overtime[technician]
}

// Clone 深拷贝
func (in ManualInputs) Clone() ManualInputs {
	out := ManualInputs{TeamSize: in.TeamSize}
	if in.Overtime != nil {
		out.Overtime = make(map[string]float64, len(in.Overtime))
		for k, v := range in.Overtime {
			out.Overtime[k] = v
		}
	}
	return out
}
