package models

import "testing"

func TestJobKind_Valid(t *testing.T) {
	tests := []struct {
		name     string
		kind     JobKind
		expected bool
	}{
		{"mail", JobKindMail, true},
		{"calendar", JobKindCalendar, true},
		{"unknown", JobKind("contacts"), false},
		{"empty", JobKind(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.kind.Valid() != tt.expected {
				t.Errorf("Expected Valid()=%v for %q", tt.expected, tt.kind)
			}
		})
	}
}

func TestAllJobKinds(t *testing.T) {
	if len(AllJobKinds) != 2 {
		t.Fatalf("Expected 2 job kinds, got %d", len(AllJobKinds))
	}
	for _, kind := range AllJobKinds {
		if !kind.Valid() {
			t.Errorf("Expected %q to be valid", kind)
		}
	}
}
