package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"fieldpulse/internal/store"
)

// StatusResponse 系统状态
type StatusResponse struct {
	Sessions     int              `json:"sessions"`
	HistoryReady bool             `json:"historyReady"`
	LastImport   *store.ImportLog `json:"lastImport,omitempty"`
}

// GetStatus 系统状态
// GET /api/status
func (h *Handler) GetStatus(c *gin.Context) {
	resp := StatusResponse{Sessions: h.sessions.Count()}
	if h.store != nil {
		resp.HistoryReady = true
		last, err := h.store.LastImport()
		if err != nil {
			h.logger.Warn("read last import failed", zap.Error(err))
		} else {
			resp.LastImport = last
		}
	}
	success(c, resp)
}

// ListImports 导入历史
// GET /api/imports?limit=20
func (h *Handler) ListImports(c *gin.Context) {
	if h.store == nil {
		success(c, []store.ImportLog{})
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit <= 0 {
		errorResponse(c, CodeBadRequest, "Parâmetro limit inválido")
		return
	}
	logs, err := h.store.ListImportLogs(limit)
	if err != nil {
		errorResponse(c, CodeInternal, err.Error())
		return
	}
	if logs == nil {
		logs = []store.ImportLog{}
	}
	success(c, logs)
}

// DownloadTemplate 下载空白数据模板
// GET /api/template
func (h *Handler) DownloadTemplate(c *gin.Context) {
	data, err := h.exporter.TemplateBytes()
	if err != nil {
		h.logger.Error("build template failed", zap.Error(err))
		errorResponse(c, CodeInternal, "Não foi possível gerar o modelo")
		return
	}
	c.Header("Content-Disposition", `attachment; filename="modelo_dados.xlsx"`)
	c.Data(http.StatusOK, xlsxContentType, data)
}

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
