package ui

import (
	"time"

	"vibegen/pkg/completion"

	tea "charm.land/bubbletea/v2"
)

// streamEventMsg carries one event from a completion handle into Update.
type streamEventMsg struct {
	event completion.Event
}

// streamClosedMsg reports that a handle's channel closed without a terminal
// event reaching the UI.
type streamClosedMsg struct {
	id string
}

type streamThrottleFlushMsg struct{}

// waitForEvent reads the next event of h. Update schedules it again after
// each delta of the current handle.
func waitForEvent(h *completion.Handle) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-h.Events()
		if !ok {
			return streamClosedMsg{id: h.ID()}
		}
		return streamEventMsg{event: ev}
	}
}

func streamThrottleTick(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return streamThrottleFlushMsg{}
	})
}
