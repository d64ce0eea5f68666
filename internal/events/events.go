// Package events defines the event structures for the alerts.directives topic.
package events

// Directive actions routed to alert evaluation units.
const (
	ActionInstantiate = "instantiate"
	ActionRefresh     = "refresh"
	ActionExecute     = "execute"
)

// AlertDirective represents a directive event from the alerts.directives
// topic. Directives address evaluation units by alert id; the unit is
// created on first contact, so a directive never fails for lack of a
// running unit.
type AlertDirective struct {
	AlertID       string `json:"alert_id"`
	Action        string `json:"action"` // instantiate, refresh, execute
	EventTS       int64  `json:"event_ts"`
	SchemaVersion int    `json:"schema_version"`
}

// ValidAction reports whether the directive carries a known action.
func (d *AlertDirective) ValidAction() bool {
	switch d.Action {
	case ActionInstantiate, ActionRefresh, ActionExecute:
		return true
	}
	return false
}
