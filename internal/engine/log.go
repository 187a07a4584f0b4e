package engine

// EventType names an execution log event.
type EventType string

const (
	EventAnchorAdded        EventType = "anchor_added"
	EventAnchorRemoved      EventType = "anchor_removed"
	EventRelationCreated    EventType = "relation_created"
	EventRelationUpdated    EventType = "relation_updated"
	EventRelationRemoved    EventType = "relation_removed"
	EventConditionEvaluated EventType = "condition_evaluated"
	EventEvaluationError    EventType = "evaluation_error"
	EventRefreshError       EventType = "refresh_error"
	EventActionSelected     EventType = "action_selected"
)

// DefaultLogCap is the number of events the execution log retains.
const DefaultLogCap = 1000

// Event is one entry of the execution log.
type Event struct {
	Seq    int64          `json:"seq"`
	Type   EventType      `json:"type"`
	Fields map[string]any `json:"fields,omitempty"`
}

// executionLog is a fixed-capacity ring that drops its oldest event when
// full. Iteration is always in append order.
type executionLog struct {
	events []Event
	start  int
	cap    int
}

func newExecutionLog(capacity int) *executionLog {
	return &executionLog{
		events: make([]Event, 0, min(capacity, 64)),
		cap:    capacity,
	}
}

func (l *executionLog) append(e Event) {
	if len(l.events) < l.cap {
		l.events = append(l.events, e)
		return
	}
	l.events[l.start] = e
	l.start = (l.start + 1) % l.cap
}

// snapshot returns events in append order, keeping only those of type typ
// unless typ is empty.
func (l *executionLog) snapshot(typ EventType) []Event {
	out := make([]Event, 0, len(l.events))
	for i := range l.events {
		e := l.events[(l.start+i)%len(l.events)]
		if typ == "" || e.Type == typ {
			out = append(out, e)
		}
	}
	return out
}
