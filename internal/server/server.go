package server

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"fieldpulse/internal/api"
	"fieldpulse/internal/config"
	"fieldpulse/internal/dashboard"
	"fieldpulse/internal/exporter"
	"fieldpulse/internal/importer"
	"fieldpulse/internal/model"
	"fieldpulse/internal/session"
	"fieldpulse/internal/store"
)

//go:embed all:dist
var staticFiles embed.FS

// Server HTTP服务器
type Server struct {
	router   *gin.Engine
	http     *http.Server
	store    *store.Store
	sessions *session.MemoryStore
	logger   *zap.Logger
}

// NewServer 创建服务器：初始化 SQLite 导入历史、会话存储与 API 路由
func NewServer(cfg *config.AppConfig, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	devMode := cfg.Server.DevMode
	if !devMode {
		gin.SetMode(gin.ReleaseMode)
	}

	opts, err := dashboard.OptionsFromConfig(cfg)
	if err != nil {
		return nil, err
	}

	dataDir, err := config.EnsureDataDir(cfg)
	if err != nil {
		return nil, fmt.Errorf("prepare data dir: %w", err)
	}
	dbPath := filepath.Join(dataDir, "fieldpulse.db")
	sqliteStore, err := store.New(dbPath)
	if err != nil {
		return nil, fmt.Errorf("initialize database: %w", err)
	}

	sessions := session.NewMemoryStore(func(ds *model.Dataset, inputs model.ManualInputs) *dashboard.Dashboard {
		return dashboard.Build(ds, inputs, opts)
	}, cfg.Server.MaxSessions)

	maxBytes := int64(cfg.Server.MaxUploadMB) << 20
	coord := importer.NewCoordinator(sqliteStore, cfg.Columns, maxBytes, logger.Named("importer"))
	handler := api.NewHandler(sqliteStore, sessions, coord, exporter.NewExporter(""), opts.TopN, logger.Named("api"))

	s := &Server{
		router:   gin.New(),
		store:    sqliteStore,
		sessions: sessions,
		logger:   logger,
	}
	s.router.Use(requestLogger(logger), recovery(logger), cors())
	if maxBytes > 0 {
		// multipart 表单额外的边界与字段开销
		s.router.MaxMultipartMemory = maxBytes + 1<<20
	}

	apiGroup := s.router.Group("/api")
	handler.RegisterRoutes(apiGroup)

	if err := s.setupStatic(devMode); err != nil {
		_ = sqliteStore.Close()
		return nil, err
	}

	logger.Info("server initialized",
		zap.String("db", dbPath),
		zap.Bool("dev_mode", devMode),
		zap.Int("max_sessions", cfg.Server.MaxSessions))
	return s, nil
}

// setupStatic 静态资源
func (s *Server) setupStatic(devMode bool) error {
	if devMode {
		// 开发模式：代理到前端开发服务器
		s.router.NoRoute(func(c *gin.Context) {
			c.Redirect(http.StatusTemporaryRedirect, "http://localhost:5173"+c.Request.URL.Path)
		})
		return nil
	}

	sub, err := fs.Sub(staticFiles, "dist")
	if err != nil {
		return fmt.Errorf("open embedded assets: %w", err)
	}
	index, err := fs.ReadFile(sub, "index.html")
	if err != nil {
		return fmt.Errorf("read embedded index: %w", err)
	}

	s.router.GET("/", func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", index)
	})
	// 未知 API 返回 JSON 404，其余回退到首页
	s.router.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api/") {
			c.JSON(http.StatusNotFound, api.Response{Code: api.CodeNotFound, Message: "Rota não encontrada"})
			return
		}
		c.Data(http.StatusOK, "text/html; charset=utf-8", index)
	})
	return nil
}

// Handler 路由（用于测试）
func (s *Server) Handler() http.Handler {
	return s.router
}

// Sessions 会话存储
func (s *Server) Sessions() *session.MemoryStore {
	return s.sessions
}

// GetStore 获取存储（用于测试）
func (s *Server) GetStore() *store.Store {
	return s.store
}

// Run 启动服务器，阻塞直到 Shutdown
func (s *Server) Run(addr string) error {
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("listening", zap.String("addr", addr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown 优雅关闭：停止接收请求、清空会话并关闭数据库
func (s *Server) Shutdown(ctx context.Context) error {
	var errs []error
	if s.http != nil {
		if err := s.http.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown http: %w", err))
		}
	}
	s.sessions.Clear()
	if err := s.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close store: %w", err))
	}
	return errors.Join(errs...)
}
