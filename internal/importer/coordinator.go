package importer

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"fieldpulse/internal/calculator"
	"fieldpulse/internal/config"
	"fieldpulse/internal/model"
	"fieldpulse/internal/parser"
	"fieldpulse/internal/store"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrFileTooLarge      = errors.New("file too large")
	ErrEmptyFile         = errors.New("empty file")
)

// ImportLogger 导入历史记录器（可为 nil）
type ImportLogger interface {
	CreateImportLog(filename string, fileSize int64, fileHash string) (int64, error)
	CompleteImportLog(id int64, outcome store.ImportOutcome) error
	FailImportLog(id int64, message string) error
}

// Coordinator 导入协调器：校验格式 -> 识别 Sheet -> 解析 -> 业务校验 -> 记录历史
type Coordinator struct {
	logs       ImportLogger
	recognizer *parser.SheetRecognizer
	logger     *zap.Logger
	maxBytes   int64
}

// NewCoordinator 创建导入协调器；maxBytes<=0 表示不限制大小
func NewCoordinator(logs ImportLogger, cols config.ColumnsConfig, maxBytes int64, logger *zap.Logger) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{
		logs:       logs,
		recognizer: parser.NewSheetRecognizer(cols),
		logger:     logger,
		maxBytes:   maxBytes,
	}
}

// ImportOptions 导入选项
type ImportOptions struct {
	Filename string
	Reader   io.Reader
	Progress func(ProgressEvent)
}

// Result 导入结果
type Result struct {
	LogID    int64             `json:"logId"`
	Dataset  *model.Dataset    `json:"dataset"`
	Columns  map[string]string `json:"columns"` // 逻辑列 -> 表头
	FileHash string            `json:"fileHash"`
	FileSize int64             `json:"fileSize"`
	Duration time.Duration     `json:"duration"`
}

// ImportFile 导入本地文件
func (c *Coordinator) ImportFile(ctx context.Context, path string, progress func(ProgressEvent)) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	return c.Import(ctx, ImportOptions{
		Filename: filepath.Base(path),
		Reader:   f,
		Progress: progress,
	})
}

// Import 执行导入
func (c *Coordinator) Import(ctx context.Context, opts ImportOptions) (*Result, error) {
	start := time.Now()
	log := c.logger.With(zap.String("filename", opts.Filename))

	ext := strings.ToLower(filepath.Ext(opts.Filename))
	if ext != ".xlsx" && ext != ".csv" {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, opts.Filename)
	}

	reportProgress(opts.Progress, EventStart, 0, "Lendo arquivo "+opts.Filename)

	data, err := c.readAll(opts.Reader)
	if err != nil {
		return nil, err
	}
	sum := sha256.Sum256(data)
	hash := hex.EncodeToString(sum[:])

	logID := c.createLog(log, opts.Filename, int64(len(data)), hash)

	result, err := c.parse(ctx, ext, data, opts)
	if err != nil {
		c.failLog(log, logID, err)
		reportProgress(opts.Progress, EventError, 100, err.Error())
		log.Warn("import failed", zap.Error(err))
		return nil, err
	}

	ds := result.Dataset
	ds.Filename = opts.Filename
	ds.ImportedAt = time.Now()

	result.LogID = logID
	result.FileHash = hash
	result.FileSize = int64(len(data))
	result.Duration = time.Since(start)

	technicians := distinctTechnicians(ds.Records)
	c.completeLog(log, logID, store.ImportOutcome{
		SheetName:    ds.SheetName,
		TotalRows:    ds.TotalRows,
		ImportedRows: len(ds.Records),
		ErrorRows:    len(ds.RowErrors),
		Technicians:  technicians,
	})

	reportProgress(opts.Progress, EventDone, 100,
		fmt.Sprintf("%d registros importados, %d rejeitados", len(ds.Records), len(ds.RowErrors)))
	log.Info("import completed",
		zap.String("sheet", ds.SheetName),
		zap.Int("records", len(ds.Records)),
		zap.Int("row_errors", len(ds.RowErrors)),
		zap.Int("technicians", technicians),
		zap.Duration("duration", result.Duration),
	)
	return result, nil
}

func (c *Coordinator) readAll(r io.Reader) ([]byte, error) {
	if r == nil {
		return nil, ErrEmptyFile
	}
	if c.maxBytes > 0 {
		r = io.LimitReader(r, c.maxBytes+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}
	if c.maxBytes > 0 && int64(len(data)) > c.maxBytes {
		return nil, fmt.Errorf("%w: limit %d bytes", ErrFileTooLarge, c.maxBytes)
	}
	return data, nil
}

func (c *Coordinator) parse(ctx context.Context, ext string, data []byte, opts ImportOptions) (*Result, error) {
	var (
		res *parser.ParseResult
		err error
	)

	switch ext {
	case ".csv":
		res, err = parser.ParseCSV(bytes.NewReader(data), c.recognizer.Mapper())
	default:
		var f *excelize.File
		f, err = excelize.OpenReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("open workbook: %w", err)
		}
		defer f.Close()
		res, err = parser.NewWorkbookParser(f, c.recognizer).Parse()
	}
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	reportProgress(opts.Progress, EventInfo, 60,
		fmt.Sprintf("Planilha \"%s\": %d linhas lidas", res.SheetName, res.TotalRows))

	records, ruleErrors := calculator.ApplyRules(res.Records)
	rowErrors := append(append([]model.RowError{}, res.RowErrors...), ruleErrors...)
	sort.SliceStable(rowErrors, func(i, j int) bool { return rowErrors[i].RowNo < rowErrors[j].RowNo })

	if len(records) == 0 {
		return nil, &parser.RowsRejectedError{SheetName: res.SheetName, RowErrors: rowErrors}
	}
	if len(rowErrors) > 0 {
		reportProgress(opts.Progress, EventWarning, 80, fmt.Sprintf("%d linhas rejeitadas", len(rowErrors)))
	}

	columns := make(map[string]string)
	for col := range res.Mapping.Indexes {
		columns[string(col)] = res.Mapping.Header(col)
	}

	return &Result{
		Columns: columns,
		Dataset: &model.Dataset{
			SheetName:       res.SheetName,
			Records:         records,
			RowErrors:       rowErrors,
			TotalRows:       res.TotalRows,
			HasNeighborhood: res.Mapping.Has(parser.ColumnNeighborhood),
			HasProtocol:     res.Mapping.Has(parser.ColumnProtocol),
		},
	}, nil
}

// 导入历史仅用于审计，写入失败不影响导入结果
func (c *Coordinator) createLog(log *zap.Logger, filename string, size int64, hash string) int64 {
	if c.logs == nil {
		return 0
	}
	id, err := c.logs.CreateImportLog(filename, size, hash)
	if err != nil {
		log.Warn("create import log failed", zap.Error(err))
		return 0
	}
	return id
}

func (c *Coordinator) completeLog(log *zap.Logger, id int64, outcome store.ImportOutcome) {
	if c.logs == nil || id == 0 {
		return
	}
	if err := c.logs.CompleteImportLog(id, outcome); err != nil {
		log.Warn("complete import log failed", zap.Int64("log_id", id), zap.Error(err))
	}
}

func (c *Coordinator) failLog(log *zap.Logger, id int64, cause error) {
	if c.logs == nil || id == 0 {
		return
	}
	if err := c.logs.FailImportLog(id, cause.Error()); err != nil {
		log.Warn("fail import log failed", zap.Int64("log_id", id), zap.Error(err))
	}
}

func distinctTechnicians(records []model.Record) int {
	seen := make(map[string]bool)
	for _, r := range records {
		seen[r.Technician] = true
	}
	return len(seen)
}
