package api

import (
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"fieldpulse/internal/dashboard"
	"fieldpulse/internal/importer"
	"fieldpulse/internal/parser"
	"fieldpulse/internal/session"
	"fieldpulse/internal/store"
)

// ImportResponse 导入结果
type ImportResponse struct {
	Session     session.Session    `json:"session"`
	Import      *importer.Result   `json:"import"`
	Overview    dashboard.Overview `json:"overview"`
	DuplicateOf *store.ImportLog   `json:"duplicateOf,omitempty"`
}

// Import 上传并分析表格，创建会话
// POST /api/import (multipart: file)
func (h *Handler) Import(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		errorResponse(c, CodeBadRequest, "Envie um arquivo no campo \"file\"")
		return
	}
	defer file.Close()

	res, err := h.importer.Import(c.Request.Context(), importer.ImportOptions{
		Filename: header.Filename,
		Reader:   file,
		Progress: func(e importer.ProgressEvent) {
			h.logger.Debug("import progress",
				zap.String("file", header.Filename),
				zap.String("type", e.Type),
				zap.Int("percent", e.Percent),
				zap.String("message", e.Message))
		},
	})
	if err != nil {
		h.importError(c, err)
		return
	}

	sess := h.sessions.Create(res.Dataset)
	resp := ImportResponse{
		Session:  sess,
		Import:   res,
		Overview: sess.Dashboard.Overview,
	}

	if h.store != nil && res.LogID > 0 {
		if err := h.store.AttachSession(res.LogID, sess.ID); err != nil {
			h.logger.Warn("attach session failed", zap.Int64("log_id", res.LogID), zap.Error(err))
		}
		dup, err := h.store.FindByHash(res.FileHash, res.LogID)
		if err != nil {
			h.logger.Warn("duplicate lookup failed", zap.Error(err))
		}
		resp.DuplicateOf = dup
	}

	h.logger.Info("session created",
		zap.String("session_id", sess.ID),
		zap.String("file", header.Filename),
		zap.Int("records", len(res.Dataset.Records)))
	success(c, resp)
}

func (h *Handler) importError(c *gin.Context, err error) {
	var (
		verr     *parser.ValidationError
		rejected *parser.RowsRejectedError
	)
	switch {
	case errors.As(err, &verr):
		errorWithData(c, CodeValidation, "Colunas obrigatórias ausentes", verr)
	case errors.As(err, &rejected):
		errorWithData(c, CodeImportFail, "Nenhuma linha válida encontrada na planilha", rejected)
	case errors.Is(err, importer.ErrUnsupportedFormat):
		errorResponse(c, CodeUnsupported, "Formato não suportado. Envie um arquivo .xlsx ou .csv")
	case errors.Is(err, importer.ErrFileTooLarge):
		errorResponse(c, CodeUnsupported, "Arquivo muito grande")
	case errors.Is(err, importer.ErrEmptyFile):
		errorResponse(c, CodeImportFail, "Arquivo vazio")
	case errors.Is(err, parser.ErrNoDataRows):
		errorResponse(c, CodeImportFail, "A planilha não contém linhas de dados")
	case errors.Is(err, parser.ErrNoValidRows):
		errorResponse(c, CodeImportFail, "Nenhuma linha válida encontrada na planilha")
	default:
		h.logger.Warn("import failed", zap.Error(err))
		errorResponse(c, CodeImportFail, "Erro ao processar o arquivo: "+err.Error())
	}
}
