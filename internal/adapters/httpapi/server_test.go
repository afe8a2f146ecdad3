package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/brewquest/internal/core/journey"
	"github.com/example/brewquest/internal/ctxutil"
	"github.com/example/brewquest/internal/ports/primary"
	"github.com/example/brewquest/internal/telemetry"
)

const secret = "s3cret"

var fixedNow = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

type fakeJourney struct {
	primary.JourneyService // unused methods panic

	result  *primary.TransitionResult
	err     error
	gotNow  time.Time
	gotCtx  context.Context
	current    *primary.State
	currentErr error
}

func (f *fakeJourney) RunWeeklyTransition(ctx context.Context, now time.Time) (*primary.TransitionResult, error) {
	f.gotNow = now
	f.gotCtx = ctx
	return f.result, f.err
}

func (f *fakeJourney) GetCurrentState(ctx context.Context) (*primary.State, error) {
	if f.currentErr != nil {
		return nil, f.currentErr
	}
	if f.current == nil {
		return nil, fmt.Errorf("%w: found 0 current states", journey.ErrNoCurrentState)
	}
	return f.current, nil
}

type fakePublish struct {
	result *primary.PublishResult
	err    error
}

func (f *fakePublish) RunDailyPublish(ctx context.Context, now time.Time) (*primary.PublishResult, error) {
	return f.result, f.err
}

type fakePinger struct{ err error }

func (p fakePinger) PingContext(ctx context.Context) error { return p.err }

func newTestServer(j *fakeJourney, p *fakePublish, opts ...ServerOption) http.Handler {
	opts = append([]ServerOption{WithClock(func() time.Time { return fixedNow })}, opts...)
	return NewServer(j, p, secret, opts...).Handler()
}

func do(t *testing.T, h http.Handler, method, target, token string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), "body: %s", rec.Body.String())
	return rec, body
}

func TestCronWeekly_Success(t *testing.T) {
	j := &fakeJourney{result: &primary.TransitionResult{
		Outcome:   primary.OutcomeAdvanced,
		Completed: &primary.State{Code: "AK"},
		Current:   &primary.State{Code: "AZ"},
	}}
	h := newTestServer(j, &fakePublish{})

	for _, method := range []string{http.MethodGet, http.MethodPost} {
		rec, body := do(t, h, method, "/api/cron/weekly", secret)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, true, body["success"])
		assert.Equal(t, false, body["partialFailure"])
		assert.NotEmpty(t, rec.Header().Get("X-Run-ID"))
		assert.Equal(t, rec.Header().Get("X-Run-ID"), body["runId"])

		result := body["result"].(map[string]any)
		assert.Equal(t, "advanced", result["outcome"])
	}

	assert.Equal(t, fixedNow, j.gotNow)
	assert.Equal(t, ctxutil.TriggerHTTP, ctxutil.TriggerFromContext(j.gotCtx))
	assert.NotEmpty(t, telemetry.RunID(j.gotCtx))
	_, hasDeadline := j.gotCtx.Deadline()
	assert.True(t, hasDeadline)
}

func TestCronWeekly_PartialFailureIsStill200(t *testing.T) {
	j := &fakeJourney{result: &primary.TransitionResult{
		Outcome:     primary.OutcomeAdvanced,
		SideEffects: []primary.SideEffectOutcome{{Name: "digest_email", Success: false, Message: "smtp down"}},
	}}

	rec, body := do(t, newTestServer(j, &fakePublish{}), http.MethodPost, "/api/cron/weekly", secret)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["partialFailure"])
}

func TestCronWeekly_ErrorStatus(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantKind string
	}{
		{"corrupt store", fmt.Errorf("%w: found 2 current states", journey.ErrNoCurrentState), http.StatusConflict, journey.KindNoCurrentState},
		{"invalid transition", fmt.Errorf("failed: %w", journey.ErrInvalidTransition), http.StatusConflict, journey.KindInvalidTransition},
		{"not initialized", journey.ErrJourneyNotInitialized, http.StatusPreconditionFailed, journey.KindJourneyNotInitialized},
		{"store failure", errors.New("connection refused"), http.StatusInternalServerError, journey.KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestServer(&fakeJourney{err: tt.err}, &fakePublish{})

			rec, body := do(t, h, http.MethodPost, "/api/cron/weekly", secret)

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, false, body["success"])
			assert.Equal(t, tt.wantKind, body["kind"])
			assert.Contains(t, body["error"], tt.err.Error())
		})
	}
}

func TestCron_Authorization(t *testing.T) {
	j := &fakeJourney{result: &primary.TransitionResult{Outcome: primary.OutcomeNoOp}}
	h := newTestServer(j, &fakePublish{})

	rec, _ := do(t, h, http.MethodPost, "/api/cron/weekly", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = do(t, h, http.MethodPost, "/api/cron/daily", "wrong")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	noSecret := NewServer(j, &fakePublish{}, "").Handler()
	rec, _ = do(t, noSecret, http.MethodPost, "/api/cron/weekly", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "an unset secret must not open the endpoint")
	assert.True(t, j.gotNow.IsZero(), "service must not run without authorization")
}

func TestCron_TimeOverride(t *testing.T) {
	override := "2026-04-01T09:00:00Z"

	t.Run("disabled by default", func(t *testing.T) {
		j := &fakeJourney{result: &primary.TransitionResult{Outcome: primary.OutcomeNoOp}}
		rec, body := do(t, newTestServer(j, &fakePublish{}), http.MethodPost, "/api/cron/weekly?now="+override, secret)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, body["error"], "disabled")
	})

	t.Run("enabled", func(t *testing.T) {
		j := &fakeJourney{result: &primary.TransitionResult{Outcome: primary.OutcomeNoOp}}
		rec, _ := do(t, newTestServer(j, &fakePublish{}, WithTimeOverride(true)), http.MethodPost, "/api/cron/weekly?now="+override, secret)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC), j.gotNow)
	})

	t.Run("malformed", func(t *testing.T) {
		j := &fakeJourney{}
		rec, _ := do(t, newTestServer(j, &fakePublish{}, WithTimeOverride(true)), http.MethodPost, "/api/cron/weekly?now=tuesday", secret)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestCronDaily(t *testing.T) {
	p := &fakePublish{result: &primary.PublishResult{
		Outcome:   primary.PublishOutcomePublished,
		DayNumber: 3,
		SideEffects: []primary.SideEffectOutcome{
			{Name: "social_post", Success: true},
			{Name: "analytics", Success: false},
		},
	}}

	rec, body := do(t, newTestServer(&fakeJourney{}, p), http.MethodGet, "/api/cron/daily", secret)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["partialFailure"])
	result := body["result"].(map[string]any)
	assert.Equal(t, "published", result["outcome"])
	assert.EqualValues(t, 3, result["dayNumber"])

	p.err = fmt.Errorf("failed to load current state: %w", journey.ErrNoCurrentState)
	rec, _ = do(t, newTestServer(&fakeJourney{}, p), http.MethodGet, "/api/cron/daily", secret)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCronDaily_TerminalStores(t *testing.T) {
	t.Run("journey complete is a 200 no-op", func(t *testing.T) {
		p := &fakePublish{result: &primary.PublishResult{Outcome: primary.PublishOutcomeJourneyComplete}}

		rec, body := do(t, newTestServer(&fakeJourney{}, p), http.MethodPost, "/api/cron/daily", secret)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, true, body["success"])
		assert.Equal(t, false, body["partialFailure"])
		assert.Equal(t, "journey_complete", body["result"].(map[string]any)["outcome"])
	})

	t.Run("not started", func(t *testing.T) {
		p := &fakePublish{err: fmt.Errorf("failed to load current state: %w", journey.ErrJourneyNotInitialized)}

		rec, body := do(t, newTestServer(&fakeJourney{}, p), http.MethodPost, "/api/cron/daily", secret)

		assert.Equal(t, http.StatusPreconditionFailed, rec.Code)
		assert.Equal(t, journey.KindJourneyNotInitialized, body["kind"])
	})
}

func TestHealth(t *testing.T) {
	rec, body := do(t, newTestServer(&fakeJourney{}, &fakePublish{}, WithPinger(fakePinger{})), http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])

	rec, body = do(t, newTestServer(&fakeJourney{}, &fakePublish{}, WithPinger(fakePinger{err: errors.New("db down")})), http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "db down", body["error"])
}

func TestJourneyCurrent(t *testing.T) {
	j := &fakeJourney{current: &primary.State{Code: "AK", Name: "Alaska", WeekNumber: 2, Status: "current"}}

	rec, body := do(t, newTestServer(j, &fakePublish{}), http.MethodGet, "/api/journey/current", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "AK", body["code"])
	assert.EqualValues(t, 2, body["weekNumber"])

	rec, body = do(t, newTestServer(&fakeJourney{}, &fakePublish{}), http.MethodGet, "/api/journey/current", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, journey.KindNoCurrentState, body["kind"])
}

func TestJourneyCurrent_TerminalStores(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantKind string
	}{
		{"finished", fmt.Errorf("%w: all 50 states completed", journey.ErrJourneyComplete), http.StatusGone, journey.KindJourneyComplete},
		{"not started", fmt.Errorf("%w: 50 states seeded but none started", journey.ErrJourneyNotInitialized), http.StatusPreconditionFailed, journey.KindJourneyNotInitialized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			j := &fakeJourney{currentErr: tt.err}

			rec, body := do(t, newTestServer(j, &fakePublish{}), http.MethodGet, "/api/journey/current", "")

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, tt.wantKind, body["kind"])
		})
	}
}

func TestMetrics(t *testing.T) {
	metrics := telemetry.NewMetrics()
	metrics.ObserveTransition("advanced")
	h := newTestServer(&fakeJourney{}, &fakePublish{}, WithMetricsHandler(metrics.Handler()))

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `brewquest_weekly_transitions_total{outcome="advanced"} 1`)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusConflict, StatusFor(journey.ErrNoCurrentState))
	assert.Equal(t, http.StatusPreconditionFailed, StatusFor(fmt.Errorf("wrapped: %w", journey.ErrJourneyNotInitialized)))
	assert.Equal(t, http.StatusNotFound, StatusFor(fmt.Errorf("failed to get state XX: %w", journey.ErrNotFound)))
	assert.Equal(t, http.StatusGone, StatusFor(journey.ErrJourneyComplete))
	assert.Equal(t, http.StatusInternalServerError, StatusFor(errors.New("connection refused")))
}
