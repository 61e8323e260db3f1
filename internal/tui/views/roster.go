package views

import (
	"fmt"

	"github.com/codecommunity/cchat/internal/store"
	"github.com/rivo/tview"
)

// Roster is the conversation sidebar: peers with presence dots, previews
// and unread badges.
type Roster struct {
	*tview.Table
	peers    []store.Peer
	onSelect func(peerID string)
}

// NewRoster creates the roster table.
func NewRoster() *Roster {
	table := tview.NewTable().
		SetSelectable(true, false).
		SetBorders(false)
	table.SetBorder(true).SetTitle(" Chats ")

	r := &Roster{Table: table}
	table.SetSelectedFunc(func(row, col int) {
		if id := r.peerAt(row); id != "" && r.onSelect != nil {
			r.onSelect(id)
		}
	})
	return r
}

// SetOnSelect sets the callback when a peer is chosen.
func (r *Roster) SetOnSelect(fn func(peerID string)) {
	r.onSelect = fn
}

// Update refreshes the roster rows. online reports a peer's presence.
func (r *Roster) Update(peers []store.Peer, online func(peerID string) bool) {
	r.peers = peers
	r.Clear()

	r.SetCell(0, 0, tview.NewTableCell(" Name").SetSelectable(false).SetTextColor(tview.Styles.SecondaryTextColor))
	r.SetCell(0, 1, tview.NewTableCell(" Last Message").SetSelectable(false).SetTextColor(tview.Styles.SecondaryTextColor))
	r.SetCell(0, 2, tview.NewTableCell(" Time").SetSelectable(false).SetTextColor(tview.Styles.SecondaryTextColor))

	for i, peer := range peers {
		row := i + 1

		dot := "[gray]○[-]"
		if online != nil && online(peer.ID) {
			dot = "[green]●[-]"
		}
		name := fmt.Sprintf(" %s %s", dot, peer.Name)
		if peer.Unread > 0 {
			name = fmt.Sprintf("%s [green::b](%d)[-:-:-]", name, peer.Unread)
		}

		preview := peer.LastMessage
		if preview == "" {
			preview = "No messages yet"
		}
		if len(preview) > 40 {
			preview = preview[:40] + "…"
		}

		r.SetCell(row, 0, tview.NewTableCell(name))
		r.SetCell(row, 1, tview.NewTableCell(" "+preview))
		r.SetCell(row, 2, tview.NewTableCell(" "+clockTime(peer.LastMessageTime)))
	}
}

// Selected returns the peer id of the highlighted row, "" if none.
func (r *Roster) Selected() string {
	row, _ := r.GetSelection()
	return r.peerAt(row)
}

func (r *Roster) peerAt(row int) string {
	idx := row - 1 // header offset
	if idx < 0 || idx >= len(r.peers) {
		return ""
	}
	return r.peers[idx].ID
}
