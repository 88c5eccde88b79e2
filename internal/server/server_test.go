package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gpt-signal-relay/internal/command"
	"gpt-signal-relay/internal/store"
	"gpt-signal-relay/internal/types"
)

type stubPipeline struct {
	lastAlert   types.Alert
	lastImage   string
	visionCalls int
	result      *types.Result
}

func (p *stubPipeline) Process(_ context.Context, a types.Alert) (*types.Result, error) {
	p.lastAlert = a
	return p.result, nil
}

func (p *stubPipeline) ProcessVision(_ context.Context, a types.Alert, imageURL, _ string) (*types.Result, error) {
	p.lastAlert = a
	p.lastImage = imageURL
	p.visionCalls++
	return p.result, nil
}

type stubJournal struct {
	entries []types.JournalEntry
	entry   *types.JournalEntry
}

func (j *stubJournal) Create(_ context.Context, _ *types.JournalEntry) error { return nil }
func (j *stubJournal) Get(_ context.Context, _ string) (*types.JournalEntry, error) {
	return j.entry, nil
}
func (j *stubJournal) List(_ context.Context, n int) ([]types.JournalEntry, error) {
	if n > 0 && n < len(j.entries) {
		return j.entries[:n], nil
	}
	return j.entries, nil
}
func (j *stubJournal) Fill(_ context.Context, _ string, _ float64) (*types.JournalEntry, error) {
	return j.entry, nil
}
func (j *stubJournal) MarkTP1(_ context.Context, _ string, _ *float64) (*types.JournalEntry, error) {
	return j.entry, nil
}
func (j *stubJournal) MarkTP2(_ context.Context, _ string, _ *float64) (*types.JournalEntry, error) {
	return j.entry, nil
}
func (j *stubJournal) MarkStopped(_ context.Context, _ string) (*types.JournalEntry, error) {
	return j.entry, nil
}
func (j *stubJournal) Exit(_ context.Context, _ string, _ float64) (*types.JournalEntry, error) {
	return j.entry, nil
}
func (j *stubJournal) Cancel(_ context.Context, _ string) (*types.JournalEntry, error) {
	return j.entry, nil
}
func (j *stubJournal) SetPostedRef(_ context.Context, _ string, _ int) error { return nil }
func (j *stubJournal) ExportCSV(_ context.Context) ([]byte, error) {
	return []byte("trade_id,symbol\nt1,BTCUSDT\n"), nil
}

type stubNotifier struct {
	sent []string
}

func (n *stubNotifier) Send(_ context.Context, _, html string) (int, error) {
	n.sent = append(n.sent, html)
	return 1, nil
}
func (n *stubNotifier) FileURL(_ string) (string, error) {
	return "https://files.example.com/chart.png", nil
}

type noGuard struct{}

func (noGuard) RecordLoss(_ time.Time) {}

type fixture struct {
	pipeline *stubPipeline
	journal  *stubJournal
	notifier *stubNotifier
	router   http.Handler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := &store.Config{}
	cfg.Guards.QualityMinScore = 1
	cfg.Guards.CooldownSeconds = 300

	f := &fixture{
		pipeline: &stubPipeline{result: &types.Result{Status: types.ResultOK, Row: &types.JournalEntry{
			TradeID: "t1", Symbol: "BTCUSDT", Timeframe: "15m", Decision: types.DecisionLong, RR: 1.8,
		}}},
		journal: &stubJournal{
			entry:   &types.JournalEntry{TradeID: "t1", Symbol: "BTCUSDT", Status: types.StatusFilled},
			entries: []types.JournalEntry{{TradeID: "t1"}, {TradeID: "t2"}},
		},
		notifier: &stubNotifier{},
	}
	srv := New(cfg, f.pipeline, f.journal, command.NewHandler(f.journal, noGuard{}), f.notifier)
	f.router = srv.Router()
	return f
}

func (f *fixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func TestHealthAndRoot(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, http.StatusOK, f.do(t, "GET", "/healthz", nil).Code)
	assert.Equal(t, http.StatusOK, f.do(t, "GET", "/", nil).Code)
}

func TestDiagReportsGuardKnobs(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, "GET", "/diag", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, float64(300), body["cooldown_s"])
	assert.Equal(t, float64(1), body["quality_min"])
}

func TestSignalEndpointForwardsAlert(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, "POST", "/gpt-signal", map[string]any{
		"symbol": "ethusdt", "tf": "1h", "setup": "strong_short", "price": 3400.5, "context": "rejection at range high",
	})
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, "ethusdt", f.pipeline.lastAlert.Symbol)
	assert.Equal(t, "1h", f.pipeline.lastAlert.Timeframe)
	assert.Equal(t, "strong_short", f.pipeline.lastAlert.Setup)
	assert.Equal(t, 3400.5, f.pipeline.lastAlert.Price)
	assert.Equal(t, "api", f.pipeline.lastAlert.Source)
	assert.Contains(t, w.Body.String(), "t1")
}

func TestTVAlertRejectsBadSecret(t *testing.T) {
	t.Setenv("TV_SECRET", "s3cret")
	f := newFixture(t)

	w := f.do(t, "POST", "/tv-alert", map[string]any{"secret": "wrong", "text": "BTCUSDT"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "bad secret")
}

func TestTVAlertRejectsSecretlessRequestWhenUnconfigured(t *testing.T) {
	t.Setenv("TV_SECRET", "")
	f := newFixture(t)

	w := f.do(t, "POST", "/tv-alert", map[string]any{"text": "BTCUSDT"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "bad secret")
	assert.Empty(t, f.pipeline.lastAlert.Symbol)
}

func TestTVAlertParsesContext(t *testing.T) {
	t.Setenv("TV_SECRET", "s3cret")
	f := newFixture(t)

	w := f.do(t, "POST", "/tv-alert", map[string]any{
		"secret":  "s3cret",
		"text":    "BTCUSDT",
		"context": "TF=1h; setup=strong_long; close=61234.5",
	})
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, "BTCUSDT", f.pipeline.lastAlert.Symbol)
	assert.Equal(t, "1h", f.pipeline.lastAlert.Timeframe)
	assert.Equal(t, "strong_long", f.pipeline.lastAlert.Setup)
	assert.Equal(t, 61234.5, f.pipeline.lastAlert.Price)
	assert.Equal(t, "tv-alert", f.pipeline.lastAlert.Source)
}

func TestJournalListHonorsLimit(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, "GET", "/journal?n=1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		N     int                  `json:"n"`
		Items []types.JournalEntry `json:"items"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 1, body.N)
}

func TestJournalExportServesCSV(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, "GET", "/journal/export.csv", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, w.Body.String(), "trade_id")
}

func TestTelegramTextSignalRoutesToPipeline(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, "POST", "/tg-webhook", map[string]any{
		"update_id": 1,
		"message": map[string]any{
			"message_id": 10,
			"chat":       map[string]any{"id": 42},
			"text":       "/signal BTCUSDT 15m strong_long 61000 sweep reclaimed",
		},
	})
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, "BTCUSDT", f.pipeline.lastAlert.Symbol)
	assert.Equal(t, "strong_long", f.pipeline.lastAlert.Setup)
	assert.Equal(t, "sweep reclaimed", f.pipeline.lastAlert.Context)
	assert.Equal(t, "tg-text", f.pipeline.lastAlert.Source)
	require.Len(t, f.notifier.sent, 1) // echo back to the chat
	assert.Contains(t, f.notifier.sent[0], "Text Signal")
}

func TestTelegramCommandRoutesToJournal(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, "POST", "/tg-webhook", map[string]any{
		"update_id": 2,
		"message": map[string]any{
			"message_id": 11,
			"chat":       map[string]any{"id": 42},
			"text":       "/fill t1 61000",
		},
	})
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, f.notifier.sent, 1)
	assert.Contains(t, f.notifier.sent[0], "BTCUSDT")
	assert.Zero(t, f.pipeline.visionCalls)
}

func TestTelegramPhotoRoutesToVision(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, "POST", "/tg-webhook", map[string]any{
		"update_id": 3,
		"message": map[string]any{
			"message_id": 12,
			"chat":       map[string]any{"id": 42},
			"caption":    "BTCUSDT 15m strong_long 61000",
			"photo": []map[string]any{
				{"file_id": "small", "file_size": 100, "width": 1, "height": 1},
				{"file_id": "big", "file_size": 9000, "width": 10, "height": 10},
			},
		},
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, f.pipeline.visionCalls)
	assert.Equal(t, "https://files.example.com/chart.png", f.pipeline.lastImage)
	assert.Equal(t, "BTCUSDT", f.pipeline.lastAlert.Symbol)
}

func TestTelegramEmptyUpdateIsOK(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, "POST", "/tg-webhook", map[string]any{"update_id": 4})
	assert.Equal(t, http.StatusOK, w.Code)
}
