package analysis

import "testing"

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"", ModeLocal, false},
		{"remote", ModeRemote, false},
		{" Local ", ModeLocal, false},
		{"REMOTE", ModeRemote, false},
		{"cloud", "", true},
	}
	for _, tt := range tests {
		got, err := ParseMode(tt.in, ModeLocal)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseMode(%q) err = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseMode(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTerminal(t *testing.T) {
	for _, s := range []State{StateIdle, StateReady, StateAnalyzing} {
		if s.Terminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
	for _, s := range []State{StateComplete, StateDegraded} {
		if !s.Terminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
}
