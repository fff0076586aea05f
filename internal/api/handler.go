package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"fieldpulse/internal/exporter"
	"fieldpulse/internal/importer"
	"fieldpulse/internal/session"
	"fieldpulse/internal/store"
)

// 业务错误码（HTTP 状态统一为 200，错误通过 code 区分）
const (
	CodeOK          = 0
	CodeBadRequest  = 1001
	CodeValidation  = 1002
	CodeUnsupported = 1003
	CodeImportFail  = 1004
	CodeNotFound    = 4004
	CodeInternal    = 5001
)

// Handler API 处理器
type Handler struct {
	store    *store.Store
	sessions *session.MemoryStore
	importer *importer.Coordinator
	exporter *exporter.Exporter
	topN     int
	logger   *zap.Logger
}

// NewHandler 创建 API 处理器；store 可为 nil（不记录导入历史）
func NewHandler(st *store.Store, sessions *session.MemoryStore, coord *importer.Coordinator, exp *exporter.Exporter, topN int, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		store:    st,
		sessions: sessions,
		importer: coord,
		exporter: exp,
		topN:     topN,
		logger:   logger,
	}
}

// RegisterRoutes 注册 API 路由
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	// 系统状态与导入历史
	router.GET("/status", h.GetStatus)
	router.GET("/imports", h.ListImports)

	// 数据模板与导入
	router.GET("/template", h.DownloadTemplate)
	router.POST("/import", h.Import)

	// 会话
	sessions := router.Group("/sessions/:id")
	sessions.GET("", h.GetSession)
	sessions.DELETE("", h.DeleteSession)
	sessions.PATCH("/inputs", h.UpdateInputs)

	// 看板
	sessions.GET("/dashboard", h.GetDashboard)
	sessions.GET("/technicians", h.ListTechnicians)
	sessions.GET("/technicians/:name", h.GetTechnician)
	sessions.GET("/alerts", h.ListAlerts)

	// 导出与图表
	sessions.GET("/export", h.Export)
	sessions.GET("/charts/:kind", h.Chart)
}

// Response 通用响应
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    CodeOK,
		Message: "success",
		Data:    data,
	})
}

func errorResponse(c *gin.Context, code int, message string) {
	c.JSON(http.StatusOK, Response{
		Code:    code,
		Message: message,
	})
}

func errorWithData(c *gin.Context, code int, message string, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    code,
		Message: message,
		Data:    data,
	})
}

// session 读取路径中的会话；不存在时已写出错误响应
func (h *Handler) session(c *gin.Context) (session.Session, bool) {
	sess, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			errorResponse(c, CodeNotFound, "Sessão não encontrada. Envie a planilha novamente.")
			return session.Session{}, false
		}
		errorResponse(c, CodeInternal, err.Error())
		return session.Session{}, false
	}
	return sess, true
}
