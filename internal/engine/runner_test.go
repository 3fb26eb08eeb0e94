package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daryltucker/judge-runner/internal/config"
	"github.com/daryltucker/judge-runner/internal/model"
	"github.com/daryltucker/judge-runner/internal/output"
)

func newTestRunner(t *testing.T, target, judge Completer) *Runner {
	t.Helper()
	clock := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)
	return &Runner{
		Target:         target,
		Evaluator:      judge,
		Template:       jaTemplate(t),
		TargetModel:    "target-model",
		EvaluatorModel: "judge-model",
		Concurrency:    5,
		OnParseFailure: config.PolicyExclude,
		Now:            func() time.Time { return clock },
		NewID:          func() string { return "run-fixed" },
	}
}

func TestRunnerEndToEnd(t *testing.T) {
	items := []model.DatasetItem{{Input: "2+2?", ReferenceOutput: "4", EvalAspect: "must be numeric"}}

	r := newTestRunner(t, fixed("4"), fixed("5"))
	report, err := r.Execute(context.Background(), items)
	require.NoError(t, err)

	five := 5
	avg := 5.0
	want := &model.Report{
		RunID:          "run-fixed",
		ModelName:      "target-model",
		EvaluatorModel: "judge-model",
		PromptTemplate: model.PromptInfo{ID: "ja/v1", SHA256: r.Template.SHA256()},
		AverageScore:   &avg,
		ScoredCount:    1,
		StartedAt:      r.Now(),
		FinishedAt:     r.Now(),
		Results: []model.ResultRecord{{
			Index:           0,
			Input:           "2+2?",
			GeneratedOutput: "4",
			ReferenceOutput: "4",
			EvalAspect:      "must be numeric",
			Score:           &five,
			ScoreStatus:     model.ScoreScored,
		}},
	}
	if diff := cmp.Diff(want, report); diff != "" {
		t.Errorf("report mismatch (-want +got):\n%s", diff)
	}
}

// echoTarget answers with a deterministic function of the question, after a
// delay that makes completion order differ from dataset order.
func echoTarget() *stubCompleter {
	return &stubCompleter{reply: func(p string) (string, error) {
		var n int
		_, _ = fmt.Sscanf(p, "q%d", &n)
		time.Sleep(time.Duration((n*7)%5) * time.Millisecond)
		return "answer to " + p, nil
	}}
}

// digitJudge scores by the last digit of the question, mapped into 1..5.
func digitJudge() *stubCompleter {
	return &stubCompleter{reply: func(p string) (string, error) {
		i := strings.Index(p, "answer to q")
		if i < 0 {
			return "", errors.New("judge saw no answer")
		}
		var n int
		_, _ = fmt.Sscanf(p[i:], "answer to q%d", &n)
		return fmt.Sprint(n%5 + 1), nil
	}}
}

func numberedItems(n int) []model.DatasetItem {
	items := make([]model.DatasetItem, n)
	for i := range items {
		items[i] = model.DatasetItem{Input: fmt.Sprintf("q%d", i), ReferenceOutput: "ref", EvalAspect: "aspect"}
	}
	return items
}

func TestRunnerOrderAndIdempotence(t *testing.T) {
	items := numberedItems(17)

	var encoded [2][]byte
	for run := range encoded {
		r := newTestRunner(t, echoTarget(), digitJudge())
		r.Now = nil
		r.NewID = nil

		report, err := r.Execute(context.Background(), items)
		require.NoError(t, err)
		require.Len(t, report.Results, len(items))
		for i, rec := range report.Results {
			assert.Equal(t, i, rec.Index)
			assert.Equal(t, items[i].Input, rec.Input)
			assert.Equal(t, "answer to "+items[i].Input, rec.GeneratedOutput)
			require.NotNil(t, rec.Score)
			assert.Equal(t, i%5+1, *rec.Score)
		}

		// Time-varying fields are blanked before comparing the encoded bytes.
		report.RunID = ""
		report.StartedAt = time.Time{}
		report.FinishedAt = time.Time{}
		var buf bytes.Buffer
		require.NoError(t, output.EncodeReport(&buf, report))
		encoded[run] = buf.Bytes()
	}

	assert.Equal(t, string(encoded[0]), string(encoded[1]))
}

func TestRunnerReportsIgnoringTimeFields(t *testing.T) {
	items := numberedItems(6)

	a, err := newTestRunner(t, echoTarget(), digitJudge()).Execute(context.Background(), items)
	require.NoError(t, err)
	r := newTestRunner(t, echoTarget(), digitJudge())
	r.NewID = func() string { return "another" }
	r.Now = time.Now
	b, err := r.Execute(context.Background(), items)
	require.NoError(t, err)

	opts := cmpopts.IgnoreFields(model.Report{}, "RunID", "StartedAt", "FinishedAt")
	if diff := cmp.Diff(a, b, opts); diff != "" {
		t.Errorf("reports differ (-first +second):\n%s", diff)
	}
}

func TestRunnerEmptyDataset(t *testing.T) {
	target, judge := fixed("x"), fixed("5")

	report, err := newTestRunner(t, target, judge).Execute(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, report.AverageScore)
	assert.Empty(t, report.Results)
	assert.Empty(t, target.received())
	assert.Empty(t, judge.received())
}

func TestRunnerUnparseableJudgeReply(t *testing.T) {
	judge := &stubCompleter{reply: func(p string) (string, error) {
		if strings.Contains(p, "answer to q1") {
			return "I'd give it a four", nil
		}
		return "3", nil
	}}

	report, err := newTestRunner(t, echoTarget(), judge).Execute(context.Background(), numberedItems(3))
	require.NoError(t, err)
	assert.InDelta(t, 3.0, *report.AverageScore, 1e-9)
	assert.Equal(t, 1, report.UnscoredCount)
	assert.Equal(t, model.ScoreUnparseable, report.Results[1].ScoreStatus)
	assert.Nil(t, report.Results[1].Score)

	r := newTestRunner(t, echoTarget(), judge)
	r.OnParseFailure = config.PolicyFail
	_, err = r.Execute(context.Background(), numberedItems(3))
	require.ErrorIs(t, err, ErrUnscoredResults)
}

func TestRunnerLogsUnparseableStatus(t *testing.T) {
	var buf bytes.Buffer
	orig := output.Logger
	defer output.SetLogger(orig)
	output.SetLogger(slog.New(slog.NewTextHandler(&buf, nil)))

	judge := &stubCompleter{reply: func(string) (string, error) { return "n/a", nil }}
	_, err := newTestRunner(t, fixed("a"), judge).Execute(context.Background(), numberedItems(2))
	require.NoError(t, err)

	logs := buf.String()
	assert.Contains(t, logs, "status=unparseable")
	assert.NotContains(t, logs, "score=0")
}

func TestRunnerGenerationFailureIsFatal(t *testing.T) {
	boom := errors.New("connection refused")
	target := &stubCompleter{reply: func(p string) (string, error) {
		if p == "q2" {
			return "", boom
		}
		return "ok", nil
	}}
	judge := fixed("5")

	report, err := newTestRunner(t, target, judge).Execute(context.Background(), numberedItems(8))
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "answer generation failed")
	assert.Nil(t, report)
	assert.Empty(t, judge.received(), "scoring never starts")
}

func TestRunnerEvaluationFailureIsFatal(t *testing.T) {
	boom := errors.New("judge quota exceeded")
	judge := &stubCompleter{reply: func(string) (string, error) { return "", boom }}

	_, err := newTestRunner(t, fixed("a"), judge).Execute(context.Background(), numberedItems(2))
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "answer evaluation failed")
}

// fakeProvider serves chat completions for both roles, keyed by model name.
func fakeProvider(t *testing.T, fail bool) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest)
			return
		}
		switch req.Model {
		case "target-model":
			if fail {
				writeError(w, http.StatusBadRequest)
				return
			}
			writeCompletion(w, "4")
		case "judge-model":
			writeCompletion(w, "5")
		default:
			writeError(w, http.StatusNotFound)
		}
	}))
}

func runConfig(t *testing.T, srvURL string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	data := filepath.Join(dir, "test.csv")
	require.NoError(t, os.WriteFile(data, []byte("input,output,eval_aspect\n2+2?,4,must be numeric\n3+3?,6,must be numeric\n"), 0o644))

	cfg := testConfig()
	cfg.Target = config.Endpoint{APIEndpoint: srvURL + "/v1", ModelName: "target-model"}
	cfg.Evaluator = config.Endpoint{APIEndpoint: srvURL + "/v1", APIKey: "sk-judge-secret", ModelName: "judge-model"}
	cfg.Dataset = data
	cfg.OutputDir = filepath.Join(dir, "out")
	cfg.ResultsCSV = "results.csv"
	return cfg
}

func TestRun(t *testing.T) {
	srv := fakeProvider(t, false)
	defer srv.Close()

	cfg := runConfig(t, srv.URL)
	require.NoError(t, Run(context.Background(), cfg))

	data, err := os.ReadFile(cfg.ReportPath())
	require.NoError(t, err)

	var report model.Report
	require.NoError(t, json.Unmarshal(data, &report))
	assert.Equal(t, "target-model", report.ModelName)
	require.NotNil(t, report.AverageScore)
	assert.InDelta(t, 5.0, *report.AverageScore, 1e-9)
	require.Len(t, report.Results, 2)
	assert.Equal(t, "3+3?", report.Results[1].Input)
	assert.Equal(t, "ja/v1", report.PromptTemplate.ID)
	assert.NotEmpty(t, report.RunID)

	_, err = os.Stat(cfg.ResultsCSVPath())
	require.NoError(t, err)
}

func TestRunLimit(t *testing.T) {
	srv := fakeProvider(t, false)
	defer srv.Close()

	cfg := runConfig(t, srv.URL)
	cfg.Limit = 1
	require.NoError(t, Run(context.Background(), cfg))

	data, err := os.ReadFile(cfg.ReportPath())
	require.NoError(t, err)
	var report model.Report
	require.NoError(t, json.Unmarshal(data, &report))
	assert.Len(t, report.Results, 1)
}

func TestRunFailureWritesNoReport(t *testing.T) {
	srv := fakeProvider(t, true)
	defer srv.Close()

	cfg := runConfig(t, srv.URL)
	require.Error(t, Run(context.Background(), cfg))

	_, err := os.Stat(cfg.ReportPath())
	assert.True(t, os.IsNotExist(err), "no report artifact after a fatal error")
}

func TestRunInvalidConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	err := Run(context.Background(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Target.ModelName")
}
