package app

import (
	"context"

	"github.com/dshills/vimoptions/internal/host"
)

// Ex commands defined at activation when the host supports them.
const (
	CommandApply = "VimOptionsApply"
	CommandLog   = "VimOptionsLog"
)

// LogTitle names the scratch buffer :VimOptionsLog opens.
const LogTitle = "vim-options://log"

// CommandHost is implemented by hosts that can define user commands and
// show text to the user.
type CommandHost interface {
	UserCommand(name, desc string, fn func()) error
	DeleteUserCommand(name string) error
	ShowLines(title string, lines []string) error
}

// registerCommands defines the Ex commands and records their removal.
func (app *Application) registerCommands(ch CommandHost) error {
	commands := []struct {
		name string
		desc string
		fn   func()
	}{
		{CommandApply, "Apply vim-options to the current buffer", func() {
			app.runPass(context.Background(), "command")
		}},
		{CommandLog, "Show the vim-options log", func() {
			if err := ch.ShowLines(LogTitle, app.output.Lines()); err != nil {
				app.output.Logger().Warn().Err(err).Msg("show log")
			}
		}},
	}

	for _, c := range commands {
		if err := ch.UserCommand(c.name, c.desc, c.fn); err != nil {
			return &ComponentError{Component: "host", Action: "define :" + c.name, Err: err}
		}
		name := c.name
		app.subs.add(host.SubscriptionFunc(func() error {
			return ch.DeleteUserCommand(name)
		}))
	}
	return nil
}
