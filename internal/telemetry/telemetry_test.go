package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNewLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelInfo, "json")

	ctx := WithRunID(context.Background(), "01HZX")
	RunLogger(logger, ctx, "weekly").Info("transition done", "outcome", "advanced")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected JSON log line, got %q: %v", buf.String(), err)
	}
	for key, want := range map[string]string{
		"service": "brewquest",
		"job":     "weekly",
		"run_id":  "01HZX",
		"outcome": "advanced",
	} {
		if entry[key] != want {
			t.Errorf("%s = %v, want %s", key, entry[key], want)
		}
	}
}

func TestNewLogger_TextAndLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelWarn, "text")

	logger.Info("hidden")
	logger.Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, "msg=shown") {
		t.Errorf("unexpected output %q", out)
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"WARN":  slog.LevelWarn,
		"error": slog.LevelError,
		"bogus": slog.LevelInfo,
		"":      slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestWithRunID_Generates(t *testing.T) {
	ctx := WithRunID(context.Background(), "")
	id := RunID(ctx)
	if len(id) != 26 {
		t.Errorf("expected 26 character ULID, got %q", id)
	}
	if RunID(context.Background()) != "" {
		t.Error("expected empty run ID on bare context")
	}
}

func TestMetricsHandler(t *testing.T) {
	m := NewMetrics()
	m.ObserveTransition("advanced")
	m.ObserveTransition("no_op")
	m.ObserveTransition("no_op")
	m.ObserveSideEffect("digest_email", false)
	m.ObservePublish("published")
	m.SetCurrentWeek(12)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	out := string(body)
	for _, want := range []string{
		`brewquest_weekly_transitions_total{outcome="no_op"} 2`,
		`brewquest_weekly_transitions_total{outcome="advanced"} 1`,
		`brewquest_side_effects_total{effect="digest_email",success="false"} 1`,
		`brewquest_daily_publishes_total{outcome="published"} 1`,
		`brewquest_current_week 12`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}
