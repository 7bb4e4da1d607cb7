// Package tui is the interactive attribute editor: a form with a file
// picker, the attribute listing, name and value inputs, modal dialogs and
// a status line, driven by a session.Session.
package tui

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/robert-malhotra/ncattr/internal/session"
)

type mode int

const (
	formMode mode = iota
	pickerMode
)

type field int

const (
	nameField field = iota
	valueField
)

// Options configures New.
type Options struct {
	// StartDir is where the file picker opens. It falls back to the
	// working directory when it is not a directory.
	StartDir string
	// InitialFile is opened when the program starts.
	InitialFile string
}

// openFileMsg asks the model to open a file.
type openFileMsg struct{ path string }

// Model is the bubbletea model of the editor.
type Model struct {
	session *session.Session

	mode    mode
	focus   field
	dialogs []dialog

	startDir    string
	initialFile string
	pathField   string

	name     textinput.Model
	value    textinput.Model
	attrs    viewport.Model
	picker   filepicker.Model
	help     help.Model
	width    int
	height   int
	quitting bool

	suggestions []string
}

// New returns the editor model for s.
func New(s *session.Session, o Options) Model {
	name := textinput.New()
	name.Placeholder = "attribute name"
	name.Prompt = ""
	name.ShowSuggestions = true
	name.Width = 40
	name.Focus()

	value := textinput.New()
	value.Placeholder = "value"
	value.Prompt = ""
	value.Width = 40

	picker := filepicker.New()
	picker.ShowHidden = false
	picker.DirAllowed = false
	picker.FileAllowed = true
	picker.KeyMap.Back = key.NewBinding(key.WithKeys("h", "backspace", "left"), key.WithHelp("h", "back"))

	attrs := viewport.New(72, 10)
	attrs.KeyMap = viewport.KeyMap{
		PageDown: key.NewBinding(key.WithKeys("pgdown")),
		PageUp:   key.NewBinding(key.WithKeys("pgup")),
	}

	m := Model{
		session:     s,
		startDir:    resolveStartDir(o.StartDir),
		initialFile: o.InitialFile,
		name:        name,
		value:       value,
		attrs:       attrs,
		picker:      picker,
		help:        help.New(),
	}
	m.refresh()
	return m
}

// resolveStartDir returns dir if it is a directory, else the working
// directory.
func resolveStartDir(dir string) string {
	if dir != "" {
		if fi, err := os.Stat(dir); err == nil && fi.IsDir() {
			return dir
		}
		logger.Debug("default directory unavailable, using working directory", "dir", dir)
	}
	wd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return wd
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink}
	if m.initialFile != "" {
		path := m.initialFile
		cmds = append(cmds, func() tea.Msg { return openFileMsg{path: path} })
	}
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		var cmd tea.Cmd
		m.picker, cmd = m.picker.Update(msg)
		return m, cmd

	case openFileMsg:
		m.openFile(msg.path)
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, keys.Quit) {
			return m.quit()
		}
		if len(m.dialogs) > 0 {
			return m.updateDialog(msg)
		}
		if m.mode == pickerMode {
			return m.updatePicker(msg)
		}
		return m.updateForm(msg)
	}

	if m.mode == pickerMode {
		return m.updatePicker(msg)
	}
	return m.updateInputs(msg)
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	if m.session.IsOpen() {
		if err := m.session.Close(); err != nil {
			logger.Error("closing file on exit", "err", err)
		}
	}
	m.quitting = true
	return m, tea.Quit
}

func (m Model) updateDialog(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	d := m.dialogs[0]
	if d.kind != confirmDialog {
		if key.Matches(msg, dismissKey) {
			m.dialogs = m.dialogs[1:]
		}
		return m, nil
	}
	switch {
	case key.Matches(msg, yesKey):
		m.dialogs = m.dialogs[1:]
		m.applySet(d.name, d.raw, session.ConfirmFunc(func(string) bool { return true }))
	case key.Matches(msg, noKey):
		m.dialogs = m.dialogs[1:]
		m.applySet(d.name, d.raw, session.ConfirmFunc(func(string) bool { return false }))
	}
	return m, nil
}

func (m Model) updatePicker(msg tea.Msg) (tea.Model, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok && key.Matches(k, cancelKey) {
		m.mode = formMode
		m.session.CancelSelection()
		return m, nil
	}
	var cmd tea.Cmd
	m.picker, cmd = m.picker.Update(msg)
	if ok, path := m.picker.DidSelectFile(msg); ok {
		m.mode = formMode
		m.openFile(path)
	}
	return m, cmd
}

func (m Model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Open):
		m.mode = pickerMode
		m.picker.CurrentDirectory = m.startDir
		if m.session.IsOpen() {
			m.picker.CurrentDirectory = filepath.Dir(m.session.Path())
		}
		return m, m.picker.Init()
	case key.Matches(msg, keys.Get):
		m.lookup()
		return m, nil
	case key.Matches(msg, keys.Set):
		m.set()
		return m, nil
	case key.Matches(msg, keys.Enter):
		if m.focus == nameField {
			m.lookup()
		} else {
			m.set()
		}
		return m, nil
	case key.Matches(msg, keys.Focus):
		if m.focus == nameField && msg.String() == "tab" && m.canAcceptSuggestion() {
			break
		}
		return m.toggleFocus(), nil
	}
	return m.updateInputs(msg)
}

// canAcceptSuggestion reports whether tab would complete the name input.
func (m Model) canAcceptSuggestion() bool {
	v := strings.ToLower(m.name.Value())
	if v == "" {
		return false
	}
	for _, s := range m.suggestions {
		ls := strings.ToLower(s)
		if len(ls) > len(v) && strings.HasPrefix(ls, v) {
			return true
		}
	}
	return false
}

func (m Model) updateInputs(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds [3]tea.Cmd
	m.name, cmds[0] = m.name.Update(msg)
	m.value, cmds[1] = m.value.Update(msg)
	m.attrs, cmds[2] = m.attrs.Update(msg)
	return m, tea.Batch(cmds[:]...)
}

func (m Model) toggleFocus() Model {
	if m.focus == nameField {
		m.focus = valueField
		m.name.Blur()
		m.value.Focus()
	} else {
		m.focus = nameField
		m.value.Blur()
		m.name.Focus()
	}
	return m
}

func (m *Model) push(kind dialogKind, title, text string) {
	m.dialogs = append(m.dialogs, dialog{kind: kind, title: title, text: text})
}

func (m *Model) openFile(path string) {
	res, err := m.session.Open(path)
	if errors.Is(err, session.ErrNotExist) {
		m.push(errorDialog, "File Error", fmt.Sprintf("The file '%s' does not exist.", path))
		return
	}
	if res.ExtensionWarning {
		m.push(warningDialog, "Warning", "The selected file does not appear to be a NetCDF file (based on extension). Attempting to open anyway.")
	}
	if err != nil {
		cause := err
		var oe *session.OpenError
		if errors.As(err, &oe) {
			cause = oe.Err
		}
		m.push(errorDialog, "Error", fmt.Sprintf("Could not open NetCDF file: %v\nPlease ensure it's a valid NetCDF file and you have write permissions.", cause))
	}
	m.refresh()
}

func (m *Model) lookup() {
	name := strings.TrimSpace(m.name.Value())
	v, err := m.session.Lookup(name)
	switch {
	case errors.Is(err, session.ErrNoName):
		m.push(warningDialog, "Input Error", "Please enter an attribute name.")
	case errors.Is(err, session.ErrNotFound):
		m.push(warningDialog, "Not Found", fmt.Sprintf("Attribute '%s' not found.", name))
	case err == nil:
		m.value.SetValue(v.String())
		m.value.CursorEnd()
	}
}

func (m *Model) set() {
	name := strings.TrimSpace(m.name.Value())
	raw := m.value.Value()
	if m.session.NeedsConfirmation(name) {
		m.dialogs = append(m.dialogs, newConfirm(name, raw))
		return
	}
	m.applySet(name, raw, nil)
}

func (m *Model) applySet(name, raw string, confirm session.Confirmer) {
	res, err := m.session.Set(name, raw, confirm)
	switch {
	case errors.Is(err, session.ErrNoFile):
		m.push(errorDialog, "Error", "No NetCDF file is open.")
		return
	case errors.Is(err, session.ErrNoName):
		m.push(warningDialog, "Input Error", "Please enter an attribute name to set.")
		return
	case err != nil:
		m.push(errorDialog, "Error", fmt.Sprintf("An unexpected error occurred while setting the attribute: %v", err))
		return
	case res.Action == session.Cancelled:
		return
	}
	switch st := m.session.Status(); {
	case st.Level == session.Error:
		m.push(errorDialog, "Error", st.Message)
	case res.Coercion != nil:
		c := res.Coercion
		m.push(warningDialog, "Type Conversion Warning",
			fmt.Sprintf("Could not convert '%s' to the original type of '%s' (%s). Storing as string.", c.Raw, c.Name, c.Kind))
	default:
		m.push(infoDialog, "Success", fmt.Sprintf("Successfully %s '%s' to '%s'.", res.Action, name, res.Value))
	}
	m.refresh()
}

// refresh redraws the listing and suggestions from the session.
func (m *Model) refresh() {
	m.pathField = m.session.Path()
	switch {
	case !m.session.IsOpen():
		m.attrs.SetContent("")
	default:
		m.attrs.SetContent(strings.TrimRight(m.session.Snapshot().Render(), "\n"))
	}
	m.attrs.GotoTop()
	m.suggestions = m.session.Suggestions()
	m.name.SetSuggestions(m.suggestions)
}

const formChromeLines = 14

func (m *Model) resize(w, h int) {
	m.width, m.height = w, h
	m.attrs.Width = max(w-4, 20)
	m.attrs.Height = max(h-formChromeLines, 3)
	m.name.Width = max(w-20, 10)
	m.value.Width = max(w-20, 10)
	m.help.Width = w
}
