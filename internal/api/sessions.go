package api

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"fieldpulse/internal/analysis"
	"fieldpulse/internal/chart"
	"fieldpulse/internal/dashboard"
	"fieldpulse/internal/model"
	"fieldpulse/internal/session"
)

// GetSession 会话信息
// GET /api/sessions/:id
func (h *Handler) GetSession(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	success(c, sess)
}

// DeleteSession 删除会话
// DELETE /api/sessions/:id
func (h *Handler) DeleteSession(c *gin.Context) {
	if err := h.sessions.Delete(c.Param("id")); err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			errorResponse(c, CodeNotFound, "Sessão não encontrada")
			return
		}
		errorResponse(c, CodeInternal, err.Error())
		return
	}
	success(c, gin.H{"deleted": true})
}

// UpdateInputs 更新团队人数与加班小时并重新计算
// PATCH /api/sessions/:id/inputs
func (h *Handler) UpdateInputs(c *gin.Context) {
	var inputs model.ManualInputs
	if err := c.ShouldBindJSON(&inputs); err != nil {
		errorResponse(c, CodeBadRequest, "Parâmetros inválidos")
		return
	}

	sess, err := h.sessions.UpdateInputs(c.Param("id"), inputs)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrSessionNotFound):
			errorResponse(c, CodeNotFound, "Sessão não encontrada")
		case errors.Is(err, session.ErrInvalidInputs):
			errorResponse(c, CodeBadRequest, "Valores inválidos: equipe e horas extras não podem ser negativos")
		default:
			errorResponse(c, CodeInternal, err.Error())
		}
		return
	}
	success(c, sess.Dashboard)
}

// GetDashboard 完整看板
// GET /api/sessions/:id/dashboard
func (h *Handler) GetDashboard(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	success(c, sess.Dashboard)
}

// TechniciansResponse 技术员列表
type TechniciansResponse struct {
	Technicians []string             `json:"technicians"`
	Ranking     []model.RankingEntry `json:"ranking"`
}

// ListTechnicians 技术员列表与排名
// GET /api/sessions/:id/technicians?top=10
func (h *Handler) ListTechnicians(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	top, ok := h.topParam(c)
	if !ok {
		return
	}
	success(c, TechniciansResponse{
		Technicians: sess.Dashboard.Technicians(),
		Ranking:     analysis.TopN(sess.Dashboard.Ranking, top),
	})
}

// TechnicianResponse 技术员详情与所选模型的预测
type TechnicianResponse struct {
	*dashboard.TechnicianDetail
	Forecast model.Forecast `json:"forecast"`
}

// GetTechnician 技术员详情
// GET /api/sessions/:id/technicians/:name?model=moving_average|regression
func (h *Handler) GetTechnician(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	name := c.Param("name")
	detail, err := sess.Dashboard.Technician(name)
	if err != nil {
		if errors.Is(err, dashboard.ErrTechnicianNotFound) {
			errorResponse(c, CodeNotFound, "Técnico não encontrado: "+name)
			return
		}
		errorResponse(c, CodeInternal, err.Error())
		return
	}
	forecast, err := sess.Dashboard.Forecast(name, analysis.ParseForecastModel(c.Query("model")))
	if err != nil {
		errorResponse(c, CodeInternal, err.Error())
		return
	}
	success(c, TechnicianResponse{TechnicianDetail: detail, Forecast: forecast})
}

// ListAlerts 告警列表
// GET /api/sessions/:id/alerts?severity=high|medium|low
func (h *Handler) ListAlerts(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	severity := model.Severity(strings.ToLower(strings.TrimSpace(c.Query("severity"))))
	switch severity {
	case "", model.SeverityHigh, model.SeverityMedium, model.SeverityLow:
	default:
		errorResponse(c, CodeBadRequest, "Severidade inválida: "+string(severity))
		return
	}
	alerts := analysis.FilterAlerts(sess.Dashboard.Alerts, severity)
	if alerts == nil {
		alerts = []model.Alert{}
	}
	success(c, alerts)
}

// Export 下载 xlsx 报表
// GET /api/sessions/:id/export
func (h *Handler) Export(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	data, err := h.exporter.ReportBytes(sess.Dashboard)
	if err != nil {
		h.logger.Error("export report failed", zap.String("session_id", sess.ID), zap.Error(err))
		errorResponse(c, CodeInternal, "Erro ao gerar o relatório")
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, reportFilename(sess.Dataset.Filename)))
	c.Data(http.StatusOK, xlsxContentType, data)
}

// Chart 渲染 PNG 图表
// GET /api/sessions/:id/charts/:kind?technician=&top=
func (h *Handler) Chart(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	top, ok := h.topParam(c)
	if !ok {
		return
	}

	var buf bytes.Buffer
	err := chart.Render(&buf, c.Param("kind"), sess.Dashboard, c.Query("technician"), top)
	switch {
	case err == nil:
		c.Data(http.StatusOK, "image/png", buf.Bytes())
	case errors.Is(err, chart.ErrUnknownKind):
		errorResponse(c, CodeBadRequest, "Tipo de gráfico desconhecido: "+c.Param("kind"))
	case errors.Is(err, dashboard.ErrTechnicianNotFound):
		errorResponse(c, CodeNotFound, "Técnico não encontrado: "+c.Query("technician"))
	case errors.Is(err, chart.ErrNoData):
		errorResponse(c, CodeNotFound, "Dados insuficientes para o gráfico")
	default:
		h.logger.Error("render chart failed", zap.String("kind", c.Param("kind")), zap.Error(err))
		errorResponse(c, CodeInternal, "Erro ao gerar o gráfico")
	}
}

func (h *Handler) topParam(c *gin.Context) (int, bool) {
	raw := c.Query("top")
	if raw == "" {
		return h.topN, true
	}
	top, err := strconv.Atoi(raw)
	if err != nil || top < 0 {
		errorResponse(c, CodeBadRequest, "Parâmetro top inválido")
		return 0, false
	}
	return top, true
}

func reportFilename(source string) string {
	base := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	base = strings.Map(func(r rune) rune {
		if r == '"' || r == '\\' || r < 0x20 {
			return '_'
		}
		return r
	}, base)
	if base == "" || base == "." {
		return "relatorio.xlsx"
	}
	return "relatorio_" + base + ".xlsx"
}
