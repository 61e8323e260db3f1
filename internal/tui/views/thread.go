package views

import (
	"fmt"
	"time"

	"github.com/codecommunity/cchat/internal/wire"
	"github.com/rivo/tview"
)

// Thread renders the open conversation's message log.
type Thread struct {
	*tview.TextView
	selfID string
}

// NewThread creates the message view for the user identified by selfID.
func NewThread(selfID string) *Thread {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetWordWrap(true)
	tv.SetBorder(true).SetTitle(" Messages ")

	return &Thread{TextView: tv, selfID: selfID}
}

// SetPeer updates the view title with the open peer's name and presence.
func (th *Thread) SetPeer(name string, online, typing bool) {
	switch {
	case name == "":
		th.SetTitle(" Messages ")
	case typing:
		th.SetTitle(fmt.Sprintf(" %s [green]typing…[-] ", name))
	case online:
		th.SetTitle(fmt.Sprintf(" %s [green](online)[-] ", name))
	default:
		th.SetTitle(fmt.Sprintf(" %s (offline) ", name))
	}
}

// Update re-renders the log.
func (th *Thread) Update(msgs []wire.Message) {
	th.Clear()
	for _, msg := range msgs {
		mine := wire.SameID(msg.Sender.ID, th.selfID)

		tick := ""
		if mine {
			if msg.Delivered {
				tick = " [green]✓[-]"
			} else {
				tick = " [gray]…[-]"
			}
		}

		label := tview.Escape(msg.Sender.Name)
		color := "[blue::b]"
		if mine {
			label = "You"
			color = "[green::b]"
		}
		_, _ = fmt.Fprintf(th, "%s%s[-:-:-] [gray]%s[-]%s\n  %s\n",
			color, label, clockTime(msg.Timestamp), tick, tview.Escape(msg.Text))
	}
	th.ScrollToEnd()
}

// clockTime formats a server timestamp as HH:MM, falling back to the raw
// string when it does not parse.
func clockTime(ts string) string {
	if ts == "" {
		return ""
	}
	if parsed, err := time.Parse(time.RFC3339, ts); err == nil {
		return parsed.Local().Format("15:04")
	}
	return ts
}
