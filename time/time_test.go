package time

import (
	"testing"
	"time"
)

func TestShortDur(t *testing.T) {
	tests := []struct {
		name     string
		duration time.Duration
		want     string
	}{
		{"zero", 0, "0s"},
		{"1 second", 1 * time.Second, "1s"},
		{"1 minute 0 seconds", 1 * time.Minute, "1m"},
		{"1 minute 30 seconds", 1*time.Minute + 30*time.Second, "1m30s"},
		{"1 hour 0 minutes 0 seconds", 1 * time.Hour, "1h"},
		{"1 hour 30 minutes 0 seconds", 1*time.Hour + 30*time.Minute, "1h30m"},
		{"1 hour 0 minutes 30 seconds", 1*time.Hour + 30*time.Second, "1h0m30s"},
		{"500 milliseconds", 500 * time.Millisecond, "500ms"},
		{"1 second 500 milliseconds", 1*time.Second + 500*time.Millisecond, "1.5s"},
		{"negative 1 minute", -1 * time.Minute, "-1m"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ShortDur(tt.duration); got != tt.want {
				t.Errorf("ShortDur(%v) = %q, want %q", tt.duration, got, tt.want)
			}
		})
	}
}

func TestElapsed(t *testing.T) {
	tests := []struct {
		duration time.Duration
		want     string
	}{
		{0, "0s"},
		{1500*time.Microsecond + 300*time.Nanosecond, "2ms"},
		{2*time.Second + 345*time.Millisecond, "2.3s"},
		{2*time.Minute + 40*time.Millisecond, "2m"},
	}
	for _, tt := range tests {
		if got := Elapsed(tt.duration); got != tt.want {
			t.Errorf("Elapsed(%v) = %q, want %q", tt.duration, got, tt.want)
		}
	}
}

func TestSeconds(t *testing.T) {
	if got := Seconds(120); got != 2*time.Minute {
		t.Errorf("Seconds(120) = %v", got)
	}
	if got := Seconds(0); got != 0 {
		t.Errorf("Seconds(0) = %v", got)
	}
	if got := Seconds(-5); got != 0 {
		t.Errorf("Seconds(-5) = %v", got)
	}
}
