package player

import "testing"

func TestState_String(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{Stopped, "Stopped"},
		{Playing, "Playing"},
		{Paused, "Paused"},
		{State(99), "Unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.state.String(); got != tt.want {
				t.Errorf("State.String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestState_IsActive(t *testing.T) {
	tests := []struct {
		state State
		want  bool
	}{
		{Stopped, false},
		{Playing, true},
		{Paused, true},
	}

	for _, tt := range tests {
		t.Run(tt.state.String(), func(t *testing.T) {
			if got := tt.state.IsActive(); got != tt.want {
				t.Errorf("State.IsActive() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRepeatMode_String(t *testing.T) {
	tests := []struct {
		mode RepeatMode
		want string
	}{
		{RepeatOff, "Off"},
		{RepeatAll, "All"},
		{RepeatOne, "One"},
		{RepeatMode(7), "Unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.mode.String(); got != tt.want {
				t.Errorf("RepeatMode.String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRepeatMode_Valid(t *testing.T) {
	if !RepeatOne.Valid() {
		t.Error("RepeatOne should be valid")
	}
	if RepeatMode(-1).Valid() || RepeatMode(3).Valid() {
		t.Error("out-of-range modes should be invalid")
	}
}

func TestEventKind_String(t *testing.T) {
	if EventTransitioned.String() != "Transitioned" {
		t.Errorf("EventTransitioned = %q", EventTransitioned.String())
	}
	if EventKind(42).String() != "Unknown" {
		t.Errorf("EventKind(42) = %q", EventKind(42).String())
	}
}

func TestTransitionReason_Automatic(t *testing.T) {
	tests := []struct {
		reason TransitionReason
		want   bool
	}{
		{TransitionAuto, true},
		{TransitionRepeat, true},
		{TransitionSeek, false},
		{TransitionRemoved, false},
	}
	for _, tt := range tests {
		if got := tt.reason.Automatic(); got != tt.want {
			t.Errorf("%v.Automatic() = %v, want %v", tt.reason, got, tt.want)
		}
	}
}
