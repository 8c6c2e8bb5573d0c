// Package picker offers an interactive terminal file browser for choosing
// an image to import.
package picker

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/bubbles/filepicker"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/starford/marquee/internal/apperr"
	"github.com/starford/marquee/internal/images"
)

var (
	titleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#3B82F6")).Bold(true)
	hintStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B"))
)

type model struct {
	fp        filepicker.Model
	selected  string
	warning   string
	cancelled bool
}

func newModel(dir string) model {
	fp := filepicker.New()
	fp.AllowedTypes = images.AllowedExtensions
	fp.CurrentDirectory = dir
	fp.ShowHidden = false
	fp.ShowSize = true
	fp.ShowPermissions = false
	fp.DirAllowed = false
	fp.FileAllowed = true
	fp.AutoHeight = true
	fp.Styles.Cursor = lipgloss.NewStyle().Foreground(lipgloss.Color("#FBBF24")).Bold(true)
	fp.Styles.Directory = lipgloss.NewStyle().Foreground(lipgloss.Color("#3B82F6")).Bold(true)
	fp.Styles.File = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	fp.Styles.Selected = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")).Bold(true)
	fp.Styles.DisabledFile = lipgloss.NewStyle().Foreground(lipgloss.Color("#4B5563"))
	return model{fp: fp}
}

func (m model) Init() tea.Cmd {
	return m.fp.Init()
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "ctrl+c", "esc", "q":
			m.cancelled = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.fp, cmd = m.fp.Update(msg)

	if ok, path := m.fp.DidSelectFile(msg); ok {
		m.selected = path
		return m, tea.Quit
	}
	if ok, path := m.fp.DidSelectDisabledFile(msg); ok {
		m.warning = fmt.Sprintf("%s is not a supported image", path)
	}
	return m, cmd
}

func (m model) View() string {
	if m.selected != "" || m.cancelled {
		return ""
	}
	s := titleStyle.Render("Pick an image") + "  " + hintStyle.Render(m.fp.CurrentDirectory) + "\n\n"
	s += m.fp.View() + "\n"
	if m.warning != "" {
		s += warnStyle.Render(m.warning) + "\n"
	}
	return s + hintStyle.Render("enter select · esc cancel")
}

// Picker runs the file browser on the terminal. It satisfies images.Picker.
type Picker struct {
	Dir    string
	Input  io.Reader
	Output io.Writer
}

// New returns a Picker rooted at dir, or at the working directory when dir
// is empty. The browser draws on stderr so stdout stays free for results.
func New(dir string) *Picker {
	return &Picker{Dir: dir, Input: os.Stdin, Output: os.Stderr}
}

// Pick shows the browser and blocks until the operator chooses a file or
// backs out.
func (p *Picker) Pick(ctx context.Context) (string, error) {
	dir := p.Dir
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("picker: %w", err)
		}
		dir = wd
	}

	prog := tea.NewProgram(newModel(dir),
		tea.WithContext(ctx),
		tea.WithInput(p.Input),
		tea.WithOutput(p.Output),
	)
	final, err := prog.Run()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return "", ctxErr
	}
	if err != nil {
		return "", fmt.Errorf("picker: %w", err)
	}
	return result(final.(model))
}

func result(m model) (string, error) {
	if m.cancelled || m.selected == "" {
		return "", fmt.Errorf("picker: %w", apperr.ErrCancelled)
	}
	return m.selected, nil
}
