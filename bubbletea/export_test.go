package bubbletea

import tea "github.com/charmbracelet/bubbletea"

// GuardCheck returns the message that completes the pending guard check.
func GuardCheck(a App) tea.Msg { return guardCheckMsg{seq: a.seq} }

// StaleGuardCheck returns a guard check from a superseded navigation.
func StaleGuardCheck(a App) tea.Msg { return guardCheckMsg{seq: a.seq - 1} }
