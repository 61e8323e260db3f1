package views

import (
	"fmt"

	"github.com/codecommunity/cchat/internal/status"
	"github.com/rivo/tview"
)

// StatusBar displays the profile and connection state.
type StatusBar struct {
	*tview.TextView
	profile string
	state   status.State
	pending int
}

// NewStatusBar creates the status bar.
func NewStatusBar(profile string) *StatusBar {
	tv := tview.NewTextView().
		SetDynamicColors(true)
	tv.SetBackgroundColor(tview.Styles.MoreContrastBackgroundColor)

	sb := &StatusBar{TextView: tv, profile: profile, state: status.Disconnected}
	sb.render()
	return sb
}

// SetState updates the connection state display.
func (sb *StatusBar) SetState(s status.State) {
	sb.state = s
	sb.render()
}

// SetPending updates the queued-message counter.
func (sb *StatusBar) SetPending(n int) {
	sb.pending = n
	sb.render()
}

func (sb *StatusBar) render() {
	sb.Clear()

	color := "red"
	switch sb.state {
	case status.Connected:
		color = "green"
	case status.Connecting, status.Reconnecting:
		color = "yellow"
	}

	line := fmt.Sprintf(" [::b]%s[-:-:-] | [%s]%s[-]", sb.profile, color, sb.state)
	if sb.pending > 0 {
		line += fmt.Sprintf(" | [yellow]%d queued[-]", sb.pending)
	}
	_, _ = fmt.Fprint(sb, line)
}
