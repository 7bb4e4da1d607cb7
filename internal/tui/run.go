package tui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// Run runs m full screen until the user quits. An open file is closed
// before Run returns, however the program ended.
func Run(m Model, opts ...tea.ProgramOption) error {
	opts = append([]tea.ProgramOption{tea.WithAltScreen()}, opts...)
	final, err := tea.NewProgram(m, opts...).Run()
	s := m.session
	if fm, ok := final.(Model); ok {
		s = fm.session
	}
	if s.IsOpen() {
		if cerr := s.Close(); cerr != nil {
			logger.Error("closing file", "err", cerr)
		}
	}
	return err
}
