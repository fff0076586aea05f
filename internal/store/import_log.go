package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// 导入状态
const (
	ImportStatusProcessing = "processing"
	ImportStatusCompleted  = "completed"
	ImportStatusFailed     = "failed"
)

// ImportLog 导入历史记录
type ImportLog struct {
	ID           int64      `json:"id"`
	SessionID    string     `json:"sessionId,omitempty"`
	Filename     string     `json:"filename"`
	FileSize     int64      `json:"fileSize"`
	FileHash     string     `json:"fileHash"`
	SheetName    string     `json:"sheetName,omitempty"`
	TotalRows    int        `json:"totalRows"`
	ImportedRows int        `json:"importedRows"`
	ErrorRows    int        `json:"errorRows"`
	Technicians  int        `json:"technicians"`
	Status       string     `json:"status"`
	ErrorMessage string     `json:"errorMessage,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	CompletedAt  *time.Time `json:"completedAt,omitempty"`
}

// ImportOutcome 导入完成时写入的统计
type ImportOutcome struct {
	SessionID    string
	SheetName    string
	TotalRows    int
	ImportedRows int
	ErrorRows    int
	Technicians  int
}

// CreateImportLog 创建导入日志（processing），返回 import_log_id
func (s *Store) CreateImportLog(filename string, fileSize int64, fileHash string) (int64, error) {
	res, err := s.db.Exec(`
		INSERT INTO import_logs (filename, file_size, file_hash, status)
		VALUES (?, ?, ?, ?)
	`, filename, fileSize, fileHash, ImportStatusProcessing)
	if err != nil {
		return 0, fmt.Errorf("failed to create import log: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get import log id: %w", err)
	}
	return id, nil
}

// CompleteImportLog 标记导入成功
func (s *Store) CompleteImportLog(id int64, outcome ImportOutcome) error {
	_, err := s.db.Exec(`
		UPDATE import_logs SET
			session_id = ?,
			sheet_name = ?,
			total_rows = ?,
			imported_rows = ?,
			error_rows = ?,
			technicians = ?,
			status = ?,
			completed_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, outcome.SessionID, outcome.SheetName, outcome.TotalRows, outcome.ImportedRows,
		outcome.ErrorRows, outcome.Technicians, ImportStatusCompleted, id)
	if err != nil {
		return fmt.Errorf("failed to complete import log: %w", err)
	}
	return nil
}

// FailImportLog 标记导入失败
func (s *Store) FailImportLog(id int64, message string) error {
	_, err := s.db.Exec(`
		UPDATE import_logs SET
			status = ?,
			error_message = ?,
			completed_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, ImportStatusFailed, message, id)
	if err != nil {
		return fmt.Errorf("failed to update import log: %w", err)
	}
	return nil
}

// AttachSession 关联导入日志与会话
func (s *Store) AttachSession(id int64, sessionID string) error {
	if _, err := s.db.Exec(`UPDATE import_logs SET session_id = ? WHERE id = ?`, sessionID, id); err != nil {
		return fmt.Errorf("failed to attach session: %w", err)
	}
	return nil
}

const importLogColumns = `id, session_id, filename, file_size, file_hash, sheet_name, total_rows,
	imported_rows, error_rows, technicians, status, error_message, created_at, completed_at`

// ListImportLogs 最近的导入记录（新到旧）
func (s *Store) ListImportLogs(limit int) ([]ImportLog, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(`SELECT `+importLogColumns+` FROM import_logs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list import logs: %w", err)
	}
	defer rows.Close()

	var logs []ImportLog
	for rows.Next() {
		log, err := scanImportLog(rows)
		if err != nil {
			return nil, err
		}
		logs = append(logs, log)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate import logs: %w", err)
	}
	return logs, nil
}

// LastImport 最近一次导入；没有记录时返回 nil
func (s *Store) LastImport() (*ImportLog, error) {
	row := s.db.QueryRow(`SELECT ` + importLogColumns + ` FROM import_logs ORDER BY id DESC LIMIT 1`)
	log, err := scanImportLog(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &log, nil
}

// FindByHash 按文件哈希查找最近一次成功导入（排除 excludeID，用于判断重复上传）
func (s *Store) FindByHash(hash string, excludeID int64) (*ImportLog, error) {
	row := s.db.QueryRow(`SELECT `+importLogColumns+` FROM import_logs
		WHERE file_hash = ? AND status = ? AND id <> ? ORDER BY id DESC LIMIT 1`, hash, ImportStatusCompleted, excludeID)
	log, err := scanImportLog(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &log, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanImportLog(row rowScanner) (ImportLog, error) {
	var (
		log         ImportLog
		completedAt sql.NullTime
	)
	err := row.Scan(&log.ID, &log.SessionID, &log.Filename, &log.FileSize, &log.FileHash, &log.SheetName,
		&log.TotalRows, &log.ImportedRows, &log.ErrorRows, &log.Technicians, &log.Status, &log.ErrorMessage,
		&log.CreatedAt, &completedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return log, err
		}
		return log, fmt.Errorf("failed to scan import log: %w", err)
	}
	if completedAt.Valid {
		t := completedAt.Time
		log.CompletedAt = &t
	}
	return log, nil
}
