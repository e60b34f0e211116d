package cli

import (
	"testing"
	"time"
)

func TestParseDateFlag(t *testing.T) {
	got, err := parseDateFlag("2024-02-01", time.UTC)
	if err != nil {
		t.Fatalf("parseDateFlag: %v", err)
	}
	if got == nil || got.Day() != 1 || got.Month() != time.February {
		t.Errorf("got %v, want 2024-02-01", got)
	}

	if got, err := parseDateFlag("", time.UTC); err != nil || got != nil {
		t.Errorf("empty flag: got %v, %v; want nil, nil", got, err)
	}
	if _, err := parseDateFlag("01/02/2024", time.UTC); err == nil {
		t.Error("expected error for non-ISO date")
	}
}

func TestCommandsRegistered(t *testing.T) {
	want := map[string]bool{"serve": false, "report": false, "snapshot": false}
	for _, c := range rootCmd.Commands() {
		if _, ok := want[c.Name()]; ok {
			want[c.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("command %q not registered", name)
		}
	}
}
