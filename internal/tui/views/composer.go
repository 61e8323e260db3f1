package views

import (
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// Composer is the text input for sending messages. Every edit fires
// onChange so the typing debouncer sees each keystroke.
type Composer struct {
	*tview.InputField
	onSend   func(text string)
	onChange func()
}

// NewComposer creates the message composer.
func NewComposer() *Composer {
	input := tview.NewInputField().
		SetLabel(" > ").
		SetFieldWidth(0)

	c := &Composer{InputField: input}

	input.SetChangedFunc(func(text string) {
		if text != "" && c.onChange != nil {
			c.onChange()
		}
	})
	input.SetDoneFunc(func(key tcell.Key) {
		if key == tcell.KeyEnter && c.onSend != nil {
			text := c.GetText()
			if text != "" {
				c.onSend(text)
				c.SetText("")
			}
		}
	})

	return c
}

// SetOnSend sets the callback when a message is submitted.
func (c *Composer) SetOnSend(fn func(text string)) {
	c.onSend = fn
}

// SetOnChange sets the per-keystroke callback.
func (c *Composer) SetOnChange(fn func()) {
	c.onChange = fn
}
