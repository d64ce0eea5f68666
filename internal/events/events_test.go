package events

import (
	"encoding/json"
	"testing"
)

func TestValidAction(t *testing.T) {
	tests := []struct {
		action string
		want   bool
	}{
		{ActionInstantiate, true},
		{ActionRefresh, true},
		{ActionExecute, true},
		{"", false},
		{"REFRESH", false},
		{"delete", false},
	}

	for _, tt := range tests {
		d := &AlertDirective{Action: tt.action}
		if got := d.ValidAction(); got != tt.want {
			t.Errorf("ValidAction(%q) = %v, want %v", tt.action, got, tt.want)
		}
	}
}

func TestAlertDirectiveDecoding(t *testing.T) {
	raw := `{"alert_id":"f0b9c2d1-3e4a-4b5c-8d6e-7f8a9b0c1d2e","action":"execute","event_ts":1756600000,"schema_version":1}`

	var d AlertDirective
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if d.AlertID != "f0b9c2d1-3e4a-4b5c-8d6e-7f8a9b0c1d2e" {
		t.Errorf("AlertID = %q", d.AlertID)
	}
	if d.Action != ActionExecute {
		t.Errorf("Action = %q, want %q", d.Action, ActionExecute)
	}
	if !d.ValidAction() {
		t.Error("decoded directive should have a valid action")
	}
}
