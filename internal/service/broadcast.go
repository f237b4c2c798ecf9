package service

// Event types broadcast to election subscribers.
const (
	EventPlanDrafted      = "plan_drafted"
	EventPlanCommitted    = "plan_committed"
	EventSnapshotReplaced = "snapshot_replaced"
)

// Broadcaster sends real-time events to connected clients.
// Implemented by the WebSocket hub.
type Broadcaster interface {
	BroadcastElectionEvent(electionID string, eventType string, data any)
}

// NoopBroadcaster is a no-op implementation for testing or when WS is disabled.
type NoopBroadcaster struct{}

func (NoopBroadcaster) BroadcastElectionEvent(string, string, any) {}
