package cli

import (
	"errors"
	"strings"
	"testing"

	coreapp "github.com/DanielRabinovitz/unsupervisedfinalproj/internal/core/app"
	tea "github.com/charmbracelet/bubbletea"
)

func sampleResult() coreapp.Result {
	return coreapp.Result{
		RuntimeVersion: "3.12",
		Files:          3,
		Breakdown: coreapp.Breakdown{
			ThirdParty: []string{"emoji", "pandas"},
			Stdlib:     []string{"collections", "os", "re"},
			Excluded:   []string{"setuptools"},
		},
		Additions:  []string{"emoji", "pandas"},
		Appended:   true,
		Unreadable: []coreapp.UnreadableFile{{Path: "broken.py", Err: errors.New("invalid UTF-8")}},
	}
}

func TestReviewModel_PanelsAndTabbing(t *testing.T) {
	m := newReviewModel("environment.yml", false)

	updated, _ := m.Update(resultMsg{result: sampleResult()})
	state, ok := updated.(reviewModel)
	if !ok {
		t.Fatalf("expected reviewModel, got %T", updated)
	}
	if len(state.list.Items()) != 2 {
		t.Fatalf("expected 2 third-party items, got %d", len(state.list.Items()))
	}

	want := []struct {
		mode  panel
		count int
	}{
		{panelStdlib, 3},
		{panelExcluded, 1},
		{panelUnreadable, 1},
		{panelThirdParty, 2},
	}
	for _, w := range want {
		updated, _ = state.Update(tea.KeyMsg{Type: tea.KeyTab})
		state = updated.(reviewModel)
		if state.mode != w.mode {
			t.Fatalf("expected panel %v, got %v", w.mode, state.mode)
		}
		if len(state.list.Items()) != w.count {
			t.Fatalf("expected %d items in %v, got %d", w.count, w.mode, len(state.list.Items()))
		}
	}

	updated, _ = state.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	state = updated.(reviewModel)
	if state.mode != panelUnreadable {
		t.Fatalf("expected shift+tab to go back to unreadable files, got %v", state.mode)
	}
}

func TestReviewModel_View(t *testing.T) {
	m := newReviewModel("environment.yml", true)
	updated, _ := m.Update(resultMsg{result: sampleResult()})
	view := updated.View()
	if !strings.Contains(view, "Dry run") || !strings.Contains(view, "environment.yml") {
		t.Fatalf("expected dry-run header in view, got:\n%s", view)
	}
}

func TestReviewModel_Quit(t *testing.T) {
	m := newReviewModel("environment.yml", false)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("expected tea.QuitMsg")
	}
}
