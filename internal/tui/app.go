// Package tui is the terminal front end: a roster sidebar, the open
// conversation's thread, a composer and a status bar, all redrawn from bus
// events. It holds no chat state of its own; everything renders from the
// store, tracker and state machine.
package tui

import (
	"context"

	"github.com/codecommunity/cchat/internal/bus"
	"github.com/codecommunity/cchat/internal/outbox"
	"github.com/codecommunity/cchat/internal/presence"
	"github.com/codecommunity/cchat/internal/status"
	"github.com/codecommunity/cchat/internal/store"
	"github.com/codecommunity/cchat/internal/tui/model"
	"github.com/codecommunity/cchat/internal/tui/views"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// App is the TUI application shell.
type App struct {
	app       *tview.Application
	roster    *views.Roster
	thread    *views.Thread
	composer  *views.Composer
	statusBar *views.StatusBar

	ctrl     *model.Controller
	store    *store.Store
	presence *presence.Tracker
	queue    *outbox.Queue
	machine  *status.Machine
	bus      *bus.Bus

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates the TUI over an already-wired chat core.
func New(profile string, ctrl *model.Controller, s *store.Store, p *presence.Tracker, q *outbox.Queue, m *status.Machine, b *bus.Bus) *App {
	ctx, cancel := context.WithCancel(context.Background())

	a := &App{
		app:       tview.NewApplication(),
		roster:    views.NewRoster(),
		thread:    views.NewThread(s.Self()),
		composer:  views.NewComposer(),
		statusBar: views.NewStatusBar(profile),
		ctrl:      ctrl,
		store:     s,
		presence:  p,
		queue:     q,
		machine:   m,
		bus:       b,
		ctx:       ctx,
		cancel:    cancel,
	}

	a.setupCallbacks()
	a.setupLayout()
	return a
}

func (a *App) setupCallbacks() {
	a.roster.SetOnSelect(func(peerID string) {
		a.ctrl.OpenConversation(a.ctx, peerID)
		a.app.SetFocus(a.composer)
		a.refresh()
	})
	a.composer.SetOnSend(func(text string) {
		a.ctrl.Send(text)
		a.refresh()
	})
	a.composer.SetOnChange(a.ctrl.Keystroke)

	a.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyTab:
			if a.composer.HasFocus() {
				a.app.SetFocus(a.roster)
			} else {
				a.app.SetFocus(a.composer)
			}
			return nil
		case tcell.KeyEscape:
			a.app.SetFocus(a.roster)
			return nil
		}
		return event
	})
}

func (a *App) setupLayout() {
	right := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(a.thread, 0, 1, false).
		AddItem(a.composer, 1, 0, true)

	main := tview.NewFlex().
		AddItem(a.roster, 32, 0, true).
		AddItem(right, 0, 1, false)

	root := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(main, 0, 1, true).
		AddItem(a.statusBar, 1, 0, false)

	a.app.SetRoot(root, true)
}

// Run starts the redraw loop and blocks in the tview event loop until the
// UI exits.
func (a *App) Run() error {
	sub := a.bus.Subscribe("", 256)
	go func() {
		defer sub.Close()
		for {
			select {
			case <-sub.C:
				a.app.QueueUpdateDraw(a.refresh)
			case <-a.ctx.Done():
				return
			}
		}
	}()

	go a.ctrl.Bootstrap(a.ctx)

	defer a.cancel()
	return a.app.Run()
}

// Stop ends the UI from outside the event loop.
func (a *App) Stop() {
	a.cancel()
	a.app.Stop()
}

// refresh re-renders every view from current core state. Must run on the
// tview event loop.
func (a *App) refresh() {
	a.roster.Update(a.store.Peers(), a.presence.Online)
	a.thread.Update(a.store.Messages())

	openPeer := a.store.OpenPeer()
	if peer, ok := a.store.Peer(openPeer); ok {
		a.thread.SetPeer(peer.Name, a.presence.Online(peer.ID), a.presence.Typing())
	} else {
		a.thread.SetPeer("", false, false)
	}

	a.statusBar.SetState(a.machine.Current())
	a.statusBar.SetPending(a.queue.Len())
}
