package engine

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daryltucker/judge-runner/internal/model"
	"github.com/daryltucker/judge-runner/internal/prompt"
)

// stubCompleter returns canned replies and records every prompt it receives.
type stubCompleter struct {
	mu      sync.Mutex
	prompts []string
	reply   func(prompt string) (string, error)
}

func (s *stubCompleter) Complete(_ context.Context, p string) (string, error) {
	s.mu.Lock()
	s.prompts = append(s.prompts, p)
	s.mu.Unlock()
	return s.reply(p)
}

func (s *stubCompleter) received() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.prompts...)
}

func fixed(reply string) *stubCompleter {
	return &stubCompleter{reply: func(string) (string, error) { return reply, nil }}
}

func jaTemplate(t *testing.T) *prompt.Template {
	t.Helper()
	tmpl, err := prompt.Builtin("ja", "v1")
	require.NoError(t, err)
	return tmpl
}

func TestEvaluatorRendersRubric(t *testing.T) {
	judge := fixed("4")
	ev := NewEvaluator(judge, jaTemplate(t))

	rec := model.ResultRecord{Input: "Q1", ReferenceOutput: "A1", EvalAspect: "criteria-X", GeneratedOutput: "resp"}
	v, err := ev.Evaluate(context.Background(), 0, rec)
	require.NoError(t, err)
	assert.Equal(t, model.Verdict{Score: 4, Valid: true, Reply: "4"}, v)

	prompts := judge.received()
	require.Len(t, prompts, 1)
	for _, want := range []string{"Q1", "A1", "criteria-X", "resp"} {
		assert.Contains(t, prompts[0], want)
	}
	for _, ph := range []string{"{input_text}", "{output_text}", "{eval_aspect}", "{pred}"} {
		assert.NotContains(t, prompts[0], ph)
	}
}

func TestEvaluatorBlankAnswerStillJudged(t *testing.T) {
	judge := fixed("1")
	ev := NewEvaluator(judge, jaTemplate(t))

	rec := model.ResultRecord{Input: "Q1", ReferenceOutput: "A1", EvalAspect: "criteria-X", GeneratedOutput: ""}
	v, err := ev.Evaluate(context.Background(), 0, rec)
	require.NoError(t, err)
	assert.Equal(t, 1, v.Score)

	prompts := judge.received()
	require.Len(t, prompts, 1, "judge is invoked for blank answers")
	assert.Contains(t, prompts[0], "回答が空白だった場合、1点にしてください。")
	assert.Contains(t, prompts[0], "# 言語モデルの回答\n\n\n# ここまでが")
}

func TestEvaluatorPropagatesJudgeError(t *testing.T) {
	boom := errors.New("judge down")
	judge := &stubCompleter{reply: func(string) (string, error) { return "", boom }}

	_, err := NewEvaluator(judge, jaTemplate(t)).Evaluate(context.Background(), 0, model.ResultRecord{})
	require.ErrorIs(t, err, boom)
}

func TestParseVerdict(t *testing.T) {
	tests := []struct {
		reply string
		score int
		valid bool
	}{
		{"5", 5, true},
		{"1", 1, true},
		{" 3\n", 3, true},
		{"4.0", 4, true},
		{"+2", 2, true},
		{"0", 0, false},
		{"6", 0, false},
		{"-1", 0, false},
		{"3.5", 0, false},
		{"", 0, false},
		{"five", 0, false},
		{"Score: 4", 0, false},
		{"NaN", 0, false},
		{"Inf", 0, false},
	}

	for _, tt := range tests {
		t.Run(strings.TrimSpace(tt.reply), func(t *testing.T) {
			v := ParseVerdict(tt.reply)
			assert.Equal(t, tt.valid, v.Valid)
			assert.Equal(t, tt.score, v.Score)
			assert.Equal(t, tt.reply, v.Reply)
		})
	}
}
