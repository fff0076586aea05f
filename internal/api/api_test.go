package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"fieldpulse/internal/config"
	"fieldpulse/internal/dashboard"
	"fieldpulse/internal/exporter"
	"fieldpulse/internal/importer"
	"fieldpulse/internal/model"
	"fieldpulse/internal/session"
	"fieldpulse/internal/store"
)

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	t.Setenv("FIELDPULSE_TEMPLATE_PATH", "")

	st, err := store.New(filepath.Join(t.TempDir(), "fieldpulse.db"))
	if err != nil {
		t.Fatalf("init store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	cfg := config.DefaultConfig()
	opts, err := dashboard.OptionsFromConfig(cfg)
	if err != nil {
		t.Fatalf("options: %v", err)
	}
	sessions := session.NewMemoryStore(func(ds *model.Dataset, in model.ManualInputs) *dashboard.Dashboard {
		return dashboard.Build(ds, in, opts)
	}, 8)

	h := NewHandler(st, sessions, importer.NewCoordinator(st, cfg.Columns, 1<<20, nil), exporter.NewExporter(""), 10, nil)
	r := gin.New()
	h.RegisterRoutes(r.Group("/api"))
	return r
}

// sampleWorkbook 两名技术员、五周数据（每周一条记录）
func sampleWorkbook(t *testing.T) []byte {
	t.Helper()

	f, err := exporter.NewExporter("").Template()
	if err != nil {
		t.Fatalf("template: %v", err)
	}
	defer f.Close()

	start := time.Date(2024, 1, 9, 0, 0, 0, 0, time.UTC)
	rowNo := 2
	for i, score := range []float64{45, 30, 46, 28, 44} {
		date := start.AddDate(0, 0, 7*i).Format("02/01/2006")
		for _, row := range [][]any{
			{date, "Carla", "Ana", score, fmt.Sprintf("P-%d", rowNo), "Centro"},
			{date, "Davi", "Bruno", 10, fmt.Sprintf("P-%d", rowNo+1), "Aldeota"},
		} {
			if err := f.SetSheetRow(exporter.TemplateSheet, fmt.Sprintf("A%d", rowNo), &row); err != nil {
				t.Fatalf("fill row: %v", err)
			}
			rowNo++
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	return buf.Bytes()
}

func upload(t *testing.T, r *gin.Engine, filename string, content []byte) envelope {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("form file: %v", err)
	}
	if _, err := fw.Write(content); err != nil {
		t.Fatalf("write form: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close form: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/import", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return decode(t, w)
}

func do(t *testing.T, r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("%s %s: status=%d body=%s", method, path, w.Code, w.Body.String())
	}
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("unmarshal: %v body=%s", err, w.Body.String())
	}
	return env
}

func importSample(t *testing.T, r *gin.Engine) ImportResponse {
	t.Helper()
	return importBytes(t, r, sampleWorkbook(t))
}

func importBytes(t *testing.T, r *gin.Engine, content []byte) ImportResponse {
	t.Helper()
	env := upload(t, r, "dados.xlsx", content)
	if env.Code != CodeOK {
		t.Fatalf("import: code=%d message=%s", env.Code, env.Message)
	}
	var resp ImportResponse
	if err := json.Unmarshal(env.Data, &resp); err != nil {
		t.Fatalf("unmarshal import: %v", err)
	}
	return resp
}

func TestImport_CreatesSessionAndHistory(t *testing.T) {
	r := newTestRouter(t)

	content := sampleWorkbook(t)
	resp := importBytes(t, r, content)
	if resp.Session.ID == "" {
		t.Fatalf("missing session id")
	}
	if resp.Overview.Records != 10 || resp.Overview.Technicians != 2 {
		t.Fatalf("overview=%+v", resp.Overview)
	}
	if resp.DuplicateOf != nil {
		t.Fatalf("first upload flagged as duplicate")
	}

	again := importBytes(t, r, content)
	if again.DuplicateOf == nil || again.DuplicateOf.ID != resp.Import.LogID {
		t.Fatalf("duplicate upload not detected: %+v", again.DuplicateOf)
	}

	env := decode(t, do(t, r, http.MethodGet, "/api/imports", ""))
	var logs []store.ImportLog
	if err := json.Unmarshal(env.Data, &logs); err != nil {
		t.Fatalf("unmarshal logs: %v", err)
	}
	if len(logs) != 2 || logs[1].SessionID != resp.Session.ID || logs[1].Status != store.ImportStatusCompleted {
		t.Fatalf("logs=%+v", logs)
	}

	env = decode(t, do(t, r, http.MethodGet, "/api/status", ""))
	var status StatusResponse
	if err := json.Unmarshal(env.Data, &status); err != nil {
		t.Fatalf("unmarshal status: %v", err)
	}
	if status.Sessions != 2 || status.LastImport == nil || !status.HistoryReady {
		t.Fatalf("status=%+v", status)
	}
}

func TestImport_Errors(t *testing.T) {
	r := newTestRouter(t)

	env := upload(t, r, "dados.txt", []byte("qualquer coisa"))
	if env.Code != CodeUnsupported {
		t.Fatalf("txt upload: code=%d", env.Code)
	}

	csv := "Data;Nome Colaborador;Produtividade\n15/01/2024;Ana;10\n"
	env = upload(t, r, "dados.csv", []byte(csv))
	if env.Code != CodeValidation {
		t.Fatalf("missing columns: code=%d message=%s", env.Code, env.Message)
	}
	var verr struct {
		Missing []string `json:"missing"`
	}
	if err := json.Unmarshal(env.Data, &verr); err != nil {
		t.Fatalf("unmarshal validation: %v", err)
	}
	if len(verr.Missing) != 1 || verr.Missing[0] != "supervisor" {
		t.Fatalf("missing=%v", verr.Missing)
	}

	env = decode(t, do(t, r, http.MethodPost, "/api/import", "{}"))
	if env.Code != CodeBadRequest {
		t.Fatalf("no file: code=%d", env.Code)
	}
}

func TestImport_AllRowsRejectedReturnsRowErrors(t *testing.T) {
	r := newTestRouter(t)

	csv := "Data;Supervisor;Nome Colaborador;Produtividade\n" +
		"31-31-24;Carla;Ana;10\n" +
		"amanhã;Carla;Ana;5\n"
	env := upload(t, r, "dados.csv", []byte(csv))
	if env.Code != CodeImportFail {
		t.Fatalf("code=%d message=%s", env.Code, env.Message)
	}
	var rejected struct {
		SheetName string `json:"sheetName"`
		RowErrors []struct {
			RowNo  int    `json:"rowNo"`
			Value  string `json:"value"`
			Reason string `json:"reason"`
		} `json:"rowErrors"`
	}
	if err := json.Unmarshal(env.Data, &rejected); err != nil {
		t.Fatalf("unmarshal rejection: %v", err)
	}
	if len(rejected.RowErrors) != 2 {
		t.Fatalf("row errors=%+v", rejected.RowErrors)
	}
	if rejected.RowErrors[0].RowNo != 2 || rejected.RowErrors[0].Value != "31-31-24" {
		t.Fatalf("first row error=%+v", rejected.RowErrors[0])
	}
	if !strings.HasPrefix(rejected.RowErrors[1].Reason, "data inválida") {
		t.Fatalf("reason=%q", rejected.RowErrors[1].Reason)
	}
}

func TestSession_DashboardViews(t *testing.T) {
	r := newTestRouter(t)
	id := importSample(t, r).Session.ID
	base := "/api/sessions/" + id

	env := decode(t, do(t, r, http.MethodGet, base+"/dashboard", ""))
	var board struct {
		Ranking []model.RankingEntry `json:"ranking"`
		Alerts  []model.Alert        `json:"alerts"`
	}
	if err := json.Unmarshal(env.Data, &board); err != nil {
		t.Fatalf("unmarshal dashboard: %v", err)
	}
	if len(board.Ranking) != 2 || board.Ranking[0].Technician != "Ana" {
		t.Fatalf("ranking=%+v", board.Ranking)
	}

	env = decode(t, do(t, r, http.MethodGet, base+"/technicians?top=1", ""))
	var techs TechniciansResponse
	if err := json.Unmarshal(env.Data, &techs); err != nil {
		t.Fatalf("unmarshal technicians: %v", err)
	}
	if len(techs.Technicians) != 2 || len(techs.Ranking) != 1 {
		t.Fatalf("technicians=%+v", techs)
	}

	env = decode(t, do(t, r, http.MethodGet, base+"/technicians/Ana?model=regression", ""))
	var detail struct {
		Technician string         `json:"technician"`
		Forecast   model.Forecast `json:"forecast"`
	}
	if err := json.Unmarshal(env.Data, &detail); err != nil {
		t.Fatalf("unmarshal technician: %v", err)
	}
	if detail.Technician != "Ana" || detail.Forecast.Model != model.ForecastRegression {
		t.Fatalf("detail=%+v", detail)
	}

	env = decode(t, do(t, r, http.MethodGet, base+"/technicians/Zeca", ""))
	if env.Code != CodeNotFound {
		t.Fatalf("unknown technician: code=%d", env.Code)
	}

	env = decode(t, do(t, r, http.MethodGet, base+"/alerts?severity=low", ""))
	var alerts []model.Alert
	if err := json.Unmarshal(env.Data, &alerts); err != nil {
		t.Fatalf("unmarshal alerts: %v", err)
	}
	for _, a := range alerts {
		if a.Severity != model.SeverityLow {
			t.Fatalf("unexpected severity: %+v", a)
		}
	}
	if env := decode(t, do(t, r, http.MethodGet, base+"/alerts?severity=urgente", "")); env.Code != CodeBadRequest {
		t.Fatalf("bad severity: code=%d", env.Code)
	}
}

func TestSession_UpdateInputs(t *testing.T) {
	r := newTestRouter(t)
	id := importSample(t, r).Session.ID
	path := "/api/sessions/" + id + "/inputs"

	env := decode(t, do(t, r, http.MethodPatch, path, `{"teamSize":3,"overtime":{"Bruno":40}}`))
	if env.Code != CodeOK {
		t.Fatalf("update: code=%d message=%s", env.Code, env.Message)
	}
	var board struct {
		Inputs  model.ManualInputs `json:"inputs"`
		Summary model.Summary      `json:"summary"`
	}
	if err := json.Unmarshal(env.Data, &board); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if board.Inputs.TeamSize != 3 || board.Inputs.OvertimeFor("Bruno") != 40 {
		t.Fatalf("inputs=%+v", board.Inputs)
	}
	for _, team := range board.Summary.Team {
		if team.TeamSize != 3 {
			t.Fatalf("team size not applied: %+v", team)
		}
	}

	env = decode(t, do(t, r, http.MethodPatch, path, `{"teamSize":-1}`))
	if env.Code != CodeBadRequest {
		t.Fatalf("negative team: code=%d", env.Code)
	}
	env = decode(t, do(t, r, http.MethodPatch, "/api/sessions/nope/inputs", `{"teamSize":1}`))
	if env.Code != CodeNotFound {
		t.Fatalf("missing session: code=%d", env.Code)
	}
}

func TestSession_ExportChartsAndDelete(t *testing.T) {
	r := newTestRouter(t)
	id := importSample(t, r).Session.ID
	base := "/api/sessions/" + id

	w := do(t, r, http.MethodGet, base+"/export", "")
	if ct := w.Header().Get("Content-Type"); ct != xlsxContentType {
		t.Fatalf("export content type=%s", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "relatorio_dados.xlsx") {
		t.Fatalf("export disposition=%s", cd)
	}
	if !bytes.HasPrefix(w.Body.Bytes(), []byte("PK")) {
		t.Fatalf("export is not an xlsx archive")
	}

	w = do(t, r, http.MethodGet, base+"/charts/ranking", "")
	if ct := w.Header().Get("Content-Type"); ct != "image/png" {
		t.Fatalf("chart content type=%s body=%s", ct, w.Body.String())
	}
	w = do(t, r, http.MethodGet, base+"/charts/trend?technician=Ana", "")
	if ct := w.Header().Get("Content-Type"); ct != "image/png" {
		t.Fatalf("trend content type=%s body=%s", ct, w.Body.String())
	}
	if env := decode(t, do(t, r, http.MethodGet, base+"/charts/pizza", "")); env.Code != CodeBadRequest {
		t.Fatalf("unknown chart: code=%d", env.Code)
	}

	if env := decode(t, do(t, r, http.MethodDelete, base, "")); env.Code != CodeOK {
		t.Fatalf("delete: code=%d", env.Code)
	}
	if env := decode(t, do(t, r, http.MethodGet, base, "")); env.Code != CodeNotFound {
		t.Fatalf("deleted session: code=%d", env.Code)
	}
}

func TestDownloadTemplate(t *testing.T) {
	r := newTestRouter(t)

	w := do(t, r, http.MethodGet, "/api/template", "")
	if ct := w.Header().Get("Content-Type"); ct != xlsxContentType {
		t.Fatalf("content type=%s", ct)
	}
	if !strings.Contains(w.Header().Get("Content-Disposition"), "modelo_dados.xlsx") {
		t.Fatalf("disposition=%s", w.Header().Get("Content-Disposition"))
	}
}

func TestReportFilename(t *testing.T) {
	cases := map[string]string{
		"dados.xlsx":        "relatorio_dados.xlsx",
		"/tmp/a\"b.csv":     "relatorio_a_b.xlsx",
		"":                  "relatorio.xlsx",
		"equipe norte.xlsx": "relatorio_equipe norte.xlsx",
	}
	for in, want := range cases {
		if got := reportFilename(in); got != want {
			t.Fatalf("reportFilename(%q)=%q want %q", in, got, want)
		}
	}
}
