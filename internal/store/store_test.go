package store

import (
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "fieldpulse.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestImportLog_Lifecycle(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)

	last, err := s.LastImport()
	if err != nil {
		t.Fatalf("last import on empty db: %v", err)
	}
	if last != nil {
		t.Fatalf("expected nil, got %+v", last)
	}

	okID, err := s.CreateImportLog("ok.xlsx", 2048, "hash-ok")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.CompleteImportLog(okID, ImportOutcome{
		SessionID:    "sess-1",
		SheetName:    "1. ANALÍTICO",
		TotalRows:    10,
		ImportedRows: 9,
		ErrorRows:    1,
		Technicians:  3,
	}); err != nil {
		t.Fatalf("complete: %v", err)
	}

	badID, err := s.CreateImportLog("bad.csv", 12, "hash-bad")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.FailImportLog(badID, "colunas obrigatórias ausentes"); err != nil {
		t.Fatalf("fail: %v", err)
	}

	logs, err := s.ListImportLogs(10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(logs) != 2 {
		t.Fatalf("logs=%d want 2", len(logs))
	}
	if logs[0].ID != badID || logs[0].Status != ImportStatusFailed || logs[0].ErrorMessage == "" {
		t.Fatalf("unexpected newest log: %+v", logs[0])
	}
	ok := logs[1]
	if ok.Status != ImportStatusCompleted || ok.ImportedRows != 9 || ok.SessionID != "sess-1" || ok.CompletedAt == nil {
		t.Fatalf("unexpected completed log: %+v", ok)
	}
	if ok.CreatedAt.IsZero() {
		t.Fatalf("created_at not scanned")
	}

	last, err = s.LastImport()
	if err != nil || last == nil || last.ID != badID {
		t.Fatalf("last import=%+v err=%v", last, err)
	}

	found, err := s.FindByHash("hash-ok", 0)
	if err != nil || found == nil || found.ID != okID {
		t.Fatalf("find by hash=%+v err=%v", found, err)
	}
	if self, err := s.FindByHash("hash-ok", okID); err != nil || self != nil {
		t.Fatalf("excluded log should not match: %+v err=%v", self, err)
	}
	if missing, err := s.FindByHash("hash-bad", 0); err != nil || missing != nil {
		t.Fatalf("failed import should not match: %+v err=%v", missing, err)
	}
}

func TestImportLog_AttachSessionAndLimit(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	var ids []int64
	for i := 0; i < 3; i++ {
		id, err := s.CreateImportLog("f.xlsx", 1, "h")
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		ids = append(ids, id)
	}
	if err := s.AttachSession(ids[0], "sess-x"); err != nil {
		t.Fatalf("attach: %v", err)
	}

	logs, err := s.ListImportLogs(2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(logs) != 2 || logs[0].ID != ids[2] {
		t.Fatalf("unexpected logs: %+v", logs)
	}
	if logs[0].CompletedAt != nil || logs[0].Status != ImportStatusProcessing {
		t.Fatalf("processing log should have no completion: %+v", logs[0])
	}

	all, _ := s.ListImportLogs(0)
	if all[len(all)-1].SessionID != "sess-x" {
		t.Fatalf("session not attached: %+v", all[len(all)-1])
	}
}
