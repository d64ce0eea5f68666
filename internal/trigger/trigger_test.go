package trigger

import "testing"

// TestIdentity tests routing identity derivation with various arg sets.
func TestIdentity(t *testing.T) {
	tests := []struct {
		name    string
		trigger *Trigger
		want    string
	}{
		{
			name:    "empty args",
			trigger: New(),
			want:    "",
		},
		{
			name:    "single arg",
			trigger: New("name", "cpu"),
			want:    "name:cpu",
		},
		{
			name:    "multiple args joined in order",
			trigger: New("name", "cpu", "host", "web1"),
			want:    "name:cpu;host:web1",
		},
		{
			name:    "slash replaced with dot",
			trigger: New("name", "cpu", "host", "web/1"),
			want:    "name:cpu;host:web.1",
		},
		{
			name:    "slash in key replaced too",
			trigger: New("path/name", "load"),
			want:    "path.name:load",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Identity(tt.trigger); got != tt.want {
				t.Errorf("Identity() = %q, want %q", got, tt.want)
			}
		})
	}
}

// TestIdentity_Deterministic verifies the same arg sequence always hashes
// to the same identity.
func TestIdentity_Deterministic(t *testing.T) {
	a := New("severity", "critical", "host", "db/primary", "name", "disk")
	b := New("severity", "critical", "host", "db/primary", "name", "disk")
	if Identity(a) != Identity(b) {
		t.Errorf("identical arg sequences produced different identities: %q vs %q", Identity(a), Identity(b))
	}
}

// TestIdentity_OrderSensitive documents that permuting args may change the
// identity. This matches the observed upstream behavior.
func TestIdentity_OrderSensitive(t *testing.T) {
	a := New("name", "cpu", "host", "web1")
	b := New("host", "web1", "name", "cpu")
	if Identity(a) == Identity(b) {
		t.Error("permuted args unexpectedly produced the same identity")
	}
}

func TestTrigger_Get(t *testing.T) {
	tr := New("name", "cpu", "host", "web1")
	if got := tr.Get("host"); got != "web1" {
		t.Errorf("Get(host) = %q, want %q", got, "web1")
	}
	if got := tr.Get("missing"); got != "" {
		t.Errorf("Get(missing) = %q, want empty", got)
	}
}
