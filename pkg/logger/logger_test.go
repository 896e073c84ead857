package logger

import "testing"

func TestNewLoggerUnknownLevelFallsBack(t *testing.T) {
	l := NewLogger("not-a-level")
	if l == nil {
		t.Fatal("expected logger")
	}
	l.With("component", "test").Info("hello", "k", "v")
}

func TestNopLoggerDiscards(t *testing.T) {
	l := NewNop()
	l.Debug("debug")
	l.Warn("warn", "k", 1)
	l.With("a", "b").Error("error")
}
