// Package bubbletea provides the terminal user interface: sign-in and
// registration forms and the chat dashboard, behind a session route guard.
package bubbletea

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
)

// Run creates and runs the Bubble Tea program. It blocks until the program
// exits. The context is used for graceful shutdown: when cancelled, the
// program quits. Each value received on sessionChanges re-runs the guard;
// a nil channel disables this.
func Run(ctx context.Context, app App, sessionChanges <-chan struct{}) error {
	p := tea.NewProgram(app, tea.WithAltScreen())
	go func() {
		<-ctx.Done()
		p.Quit()
	}()
	if sessionChanges != nil {
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case _, ok := <-sessionChanges:
					if !ok {
						return
					}
					p.Send(SessionChangedMsg{})
				}
			}
		}()
	}
	_, err := p.Run()
	return err
}
