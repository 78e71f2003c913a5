package util

import (
	"reflect"
	"testing"
)

func TestSplitCommaSeparated(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"empty", "", nil},
		{"single", "tcp", []string{"tcp"}},
		{"multiple", "tcp,udp,icmp", []string{"tcp", "udp", "icmp"}},
		{"with spaces", " tcp , udp ", []string{"tcp", "udp"}},
		{"trailing comma", "tcp,", []string{"tcp"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitCommaSeparated(tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SplitCommaSeparated(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestContainsString(t *testing.T) {
	list := []string{"tcp", "udp"}
	if !ContainsString(list, "udp") {
		t.Error("ContainsString should find udp")
	}
	if ContainsString(list, "icmp") {
		t.Error("ContainsString should not find icmp")
	}
	if ContainsString(nil, "tcp") {
		t.Error("ContainsString on nil should be false")
	}
}
