package consumer

import (
	"reflect"
	"testing"
)

func TestParseBrokers(t *testing.T) {
	tests := []struct {
		name    string
		brokers string
		want    []string
	}{
		{
			name:    "single broker",
			brokers: "localhost:9092",
			want:    []string{"localhost:9092"},
		},
		{
			name:    "multiple brokers",
			brokers: "broker1:9092,broker2:9092,broker3:9092",
			want:    []string{"broker1:9092", "broker2:9092", "broker3:9092"},
		},
		{
			name:    "brokers with whitespace",
			brokers: "broker1:9092, broker2:9092 , broker3:9092",
			want:    []string{"broker1:9092", "broker2:9092", "broker3:9092"},
		},
		{
			name:    "empty string",
			brokers: "",
			want:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseBrokers(tt.brokers)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseBrokers(%q) = %v, want %v", tt.brokers, got, tt.want)
			}
		})
	}
}

func TestNewConsumerValidation(t *testing.T) {
	tests := []struct {
		name    string
		brokers string
		topic   string
		groupID string
		wantErr bool
	}{
		{
			name:    "valid config",
			brokers: "localhost:9092",
			topic:   "alerts.directives",
			groupID: "engine-group",
			wantErr: false,
		},
		{
			name:    "empty brokers",
			brokers: "",
			topic:   "alerts.directives",
			groupID: "engine-group",
			wantErr: true,
		},
		{
			name:    "empty topic",
			brokers: "localhost:9092",
			topic:   "",
			groupID: "engine-group",
			wantErr: true,
		},
		{
			name:    "empty group id",
			brokers: "localhost:9092",
			topic:   "alerts.directives",
			groupID: "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewConsumer(tt.brokers, tt.topic, tt.groupID)
			if tt.wantErr {
				if err == nil {
					t.Error("NewConsumer() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("NewConsumer() unexpected error: %v", err)
			}
			defer c.Close()
		})
	}
}
