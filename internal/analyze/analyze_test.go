package analyze

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/TobiSchelling/startracker/internal/llm"
	"github.com/TobiSchelling/startracker/internal/model"
)

type mockProvider struct {
	response string
	err      error
	prompt   string
	opts     llm.Options
}

func (m *mockProvider) Generate(_ context.Context, prompt string, opts llm.Options) (string, error) {
	m.prompt = prompt
	m.opts = opts
	return m.response, m.err
}

func (m *mockProvider) IsConfigured() bool { return true }

func row(name string, days, stars int) model.Row {
	return model.Row{
		FullName:     name,
		HTMLURL:      "https://github.com/" + name,
		Language:     "Go",
		Description:  name + " description",
		DaysInactive: days,
		Stars:        stars,
		LastPushed:   "2026-02-01",
		LatestCommit: "Fix " + name,
	}
}

func TestClassifyPartition(t *testing.T) {
	rows := []model.Row{
		row("a/hot", 5, 1),
		row("a/active", 179, 1),
		row("a/dormant-low", 180, 1),
		row("a/dormant-high", 365, 1),
		row("a/long", 366, 1),
		row("a/unknown", -1, 1),
	}

	c := Classify(rows, DefaultBands(), 5)

	if c.Total != 6 {
		t.Errorf("expected total 6, got %d", c.Total)
	}
	if c.Active.Count != 2 || c.Hot != 1 {
		t.Errorf("expected 2 active (1 hot), got %d (%d)", c.Active.Count, c.Hot)
	}
	if c.Dormant.Count != 2 {
		t.Errorf("expected 2 dormant, got %d", c.Dormant.Count)
	}
	if c.LongDormant.Count != 1 {
		t.Errorf("expected 1 long-dormant, got %d", c.LongDormant.Count)
	}
	if c.Unknown != 1 {
		t.Errorf("expected 1 unknown, got %d", c.Unknown)
	}
	if got := c.Active.Count + c.Dormant.Count + c.LongDormant.Count + c.Unknown; got != c.Total {
		t.Errorf("bands do not partition rows: %d != %d", got, c.Total)
	}
}

func TestClassifyTopDormantByStars(t *testing.T) {
	var rows []model.Row
	stars := []int{300, 10, 7000, 45, 1200, 999, 5}
	for i, s := range stars {
		rows = append(rows, row(fmt.Sprintf("d/%d", i), 200+i, s))
	}

	c := Classify(rows, DefaultBands(), 5)

	want := []int{7000, 1200, 999, 300, 45}
	if len(c.Dormant.Top) != len(want) {
		t.Fatalf("expected %d representatives, got %d", len(want), len(c.Dormant.Top))
	}
	for i, r := range c.Dormant.Top {
		if r.Stars != want[i] {
			t.Errorf("position %d: stars %d, want %d", i, r.Stars, want[i])
		}
	}
	if c.Dormant.Count != 7 {
		t.Errorf("count should include all rows, got %d", c.Dormant.Count)
	}
}

func TestClassifyActiveMostRecentFirst(t *testing.T) {
	rows := []model.Row{row("a/3", 90, 1), row("a/1", 2, 1), row("a/2", 40, 1)}

	c := Classify(rows, DefaultBands(), 5)

	got := []string{c.Active.Top[0].FullName, c.Active.Top[1].FullName, c.Active.Top[2].FullName}
	if strings.Join(got, ",") != "a/1,a/2,a/3" {
		t.Errorf("unexpected active order: %v", got)
	}
}

func TestClassifyCustomBands(t *testing.T) {
	rows := []model.Row{row("a/1", 50, 1), row("a/2", 100, 1), row("a/3", 200, 1)}

	c := Classify(rows, Bands{Hot: 10, Active: 60, Dormant: 120}, 5)

	if c.Active.Count != 1 || c.Dormant.Count != 1 || c.LongDormant.Count != 1 {
		t.Errorf("unexpected counts: %d/%d/%d", c.Active.Count, c.Dormant.Count, c.LongDormant.Count)
	}
}

func TestRenderPrompt(t *testing.T) {
	rows := []model.Row{row("a/fresh", 3, 10), row("b/old", 500, 9000)}
	prompt := RenderPrompt(Classify(rows, DefaultBands(), 5), DefaultBands())

	for _, want := range []string{
		"Total starred projects: 2",
		"- [a/fresh](https://github.com/a/fresh) - [Go] - a/fresh description\n  Updated on 2026-02-01, latest change: Fix a/fresh",
		"- [b/old](https://github.com/b/old) - [Go] - b/old description\n  Dormant for 500 days (Stars: 9000)",
		"(none)",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestAnalyzeReturnsVerbatim(t *testing.T) {
	p := &mockProvider{response: "  # Report\n\nbody  "}
	a := NewAnalyzer(p, DefaultBands(), 5, 0.6, 2048)

	got, err := a.Analyze(context.Background(), []model.Row{row("a/b", 1, 1)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "  # Report\n\nbody  " {
		t.Errorf("report should be returned verbatim, got %q", got)
	}
	if p.opts.Temperature != 0.6 || p.opts.MaxTokens != 2048 {
		t.Errorf("unexpected options: %+v", p.opts)
	}
	if !strings.Contains(p.prompt, "a/b") {
		t.Error("expected row in prompt")
	}
}

func TestAnalyzePropagatesErrors(t *testing.T) {
	a := NewAnalyzer(&mockProvider{err: errors.New("quota exceeded")}, DefaultBands(), 5, 0.6, 0)

	_, err := a.Analyze(context.Background(), nil)
	if err == nil || !strings.Contains(err.Error(), "quota exceeded") {
		t.Errorf("expected wrapped provider error, got %v", err)
	}

	if _, err := NewAnalyzer(nil, DefaultBands(), 5, 0.6, 0).Analyze(context.Background(), nil); err == nil {
		t.Error("expected error without provider")
	}
}
