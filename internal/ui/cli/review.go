package cli

import (
	"fmt"

	coreapp "github.com/DanielRabinovitz/unsupervisedfinalproj/internal/core/app"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var docStyle = lipgloss.NewStyle().Margin(1, 2)

type panel int

const (
	panelThirdParty panel = iota
	panelStdlib
	panelExcluded
	panelUnreadable
	panelCount
)

func (p panel) String() string {
	switch p {
	case panelThirdParty:
		return "Third-party"
	case panelStdlib:
		return "Standard library"
	case panelExcluded:
		return "Tool packages"
	case panelUnreadable:
		return "Unreadable files"
	}
	return "?"
}

type item struct {
	title, desc string
}

func (i item) Title() string       { return i.title }
func (i item) Description() string { return i.desc }
func (i item) FilterValue() string { return i.title }

type reviewModel struct {
	list     list.Model
	panels   [panelCount][]list.Item
	mode     panel
	result   coreapp.Result
	manifest string
	dryRun   bool
}

type resultMsg struct {
	result coreapp.Result
}

func newReviewModel(manifestPath string, dryRun bool) reviewModel {
	l := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)
	m := reviewModel{list: l, manifest: manifestPath, dryRun: dryRun}
	m.list.Title = m.mode.String()
	return m
}

func (m reviewModel) Init() tea.Cmd {
	return nil
}

func (m reviewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.list.FilterState() == list.Filtering {
			break
		}
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "tab":
			return m.show((m.mode + 1) % panelCount), nil
		case "shift+tab":
			return m.show((m.mode + panelCount - 1) % panelCount), nil
		}
	case tea.WindowSizeMsg:
		h, v := docStyle.GetFrameSize()
		m.list.SetSize(msg.Width-h, msg.Height-v-3)
	case resultMsg:
		m.result = msg.result
		m.panels = buildPanels(msg.result)
		return m.show(m.mode), nil
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m reviewModel) show(p panel) reviewModel {
	m.mode = p
	m.list.Title = fmt.Sprintf("%s (%d)", p, len(m.panels[p]))
	m.list.ResetFilter()
	m.list.SetItems(m.panels[p])
	return m
}

func buildPanels(r coreapp.Result) [panelCount][]list.Item {
	var panels [panelCount][]list.Item
	verb := "appended to manifest"
	if !r.Appended {
		verb = "not written"
	}
	for _, name := range r.Additions {
		panels[panelThirdParty] = append(panels[panelThirdParty], item{title: name, desc: verb})
	}
	for _, name := range r.Stdlib {
		panels[panelStdlib] = append(panels[panelStdlib], item{title: name, desc: "ships with Python " + r.RuntimeVersion})
	}
	for _, name := range r.Excluded {
		panels[panelExcluded] = append(panels[panelExcluded], item{title: name, desc: "envscan tooling, never written"})
	}
	for _, u := range r.Unreadable {
		panels[panelUnreadable] = append(panels[panelUnreadable], item{title: u.Path, desc: u.Err.Error()})
	}
	return panels
}

func (m reviewModel) View() string {
	action := "Appended to"
	if m.dryRun {
		action = "Dry run, would append to"
	}
	header := fmt.Sprintf("%s\n%s\n",
		titleStyle.Render(fmt.Sprintf("envscan: %d files, Python %s", m.result.Files, m.result.RuntimeVersion)),
		statusStyle.Render(fmt.Sprintf("%s %s | tab: next list | /: filter | q: quit", action, m.manifest)))
	return docStyle.Render(header + "\n" + m.list.View())
}

func runReview(result coreapp.Result, manifestPath string, dryRun bool) error {
	m := newReviewModel(manifestPath, dryRun)
	updated, _ := m.Update(resultMsg{result: result})
	_, err := tea.NewProgram(updated, tea.WithAltScreen()).Run()
	return err
}
