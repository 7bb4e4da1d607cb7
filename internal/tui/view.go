package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	var screen string
	if m.mode == pickerMode {
		screen = m.pickerView()
	} else {
		screen = m.formView()
	}
	if len(m.dialogs) == 0 || m.width == 0 {
		if len(m.dialogs) > 0 {
			return screen + "\n\n" + m.dialogs[0].view()
		}
		return screen
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, m.dialogs[0].view())
}

func (m Model) formView() string {
	path := m.pathField
	if path == "" {
		path = "no file open"
	}
	pane := paneStyle
	if len(m.dialogs) == 0 {
		pane = focusedPaneStyle
	}
	rows := []string{
		titleStyle.Render("NetCDF Global Attribute Editor"),
		lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render("File:"), pathStyle.Render(path)),
		"",
		labelStyle.Render("Global attributes:"),
		pane.Render(m.attrs.View()),
		"",
		lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render("Attribute name:"), m.name.View()),
		lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render("Value:"), m.value.View()),
		"",
		m.help.View(keys),
		m.statusView(),
	}
	return strings.Join(rows, "\n")
}

func (m Model) pickerView() string {
	return strings.Join([]string{
		titleStyle.Render("Select NetCDF File"),
		pathStyle.Render(m.picker.CurrentDirectory),
		"",
		m.picker.View(),
		hintStyle.Render("enter open · h back · esc cancel"),
	}, "\n")
}

func (m Model) statusView() string {
	st := m.session.Status()
	if st.Message == "" {
		return ""
	}
	return statusStyles[st.Level].Render(st.Message)
}
