package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

type dialogKind int

const (
	infoDialog dialogKind = iota
	warningDialog
	errorDialog
	confirmDialog
)

// dialog is a modal message. Confirm dialogs carry the edit they gate.
type dialog struct {
	kind  dialogKind
	title string
	text  string

	name string
	raw  string
}

func newConfirm(name, raw string) dialog {
	return dialog{
		kind:  confirmDialog,
		title: "Add New Attribute?",
		text:  fmt.Sprintf("Attribute '%s' does not exist. Do you want to add it as a new attribute?", name),
		name:  name,
		raw:   raw,
	}
}

func (d dialog) color() lipgloss.Color {
	switch d.kind {
	case warningDialog:
		return yellowColor
	case errorDialog:
		return redColor
	case confirmDialog:
		return cyanColor
	default:
		return greenColor
	}
}

func (d dialog) view() string {
	hint := "enter to dismiss"
	if d.kind == confirmDialog {
		hint = "y yes · n no"
	}
	body := lipgloss.JoinVertical(lipgloss.Left,
		dialogTitleStyle.Foreground(d.color()).Render(d.title),
		d.text,
		hintStyle.Render(hint),
	)
	return dialogStyle.BorderForeground(d.color()).Render(body)
}
