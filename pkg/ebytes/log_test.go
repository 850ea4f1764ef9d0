package ebytes

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestDebugLogsSlowPaths(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	SetLogger(zap.New(core))
	t.Cleanup(func() { SetLogger(nil) })

	s := Static("hello")
	m := s.Mut()
	m.Release()

	o := FromSlice(make([]byte, 64))
	c := o.Clone()
	c.Release()
	o.Release()

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Message != "copy on write" || entries[0].ContextMap()["from"] != "static" {
		t.Errorf("unexpected first entry: %s %v", entries[0].Message, entries[0].ContextMap())
	}
	if entries[1].Message != "promote to shared" || entries[1].LoggerName != "ebytes" {
		t.Errorf("unexpected second entry: %s (%s)", entries[1].Message, entries[1].LoggerName)
	}
}

func TestNopLoggerByDefault(t *testing.T) {
	SetLogger(nil)
	if Logger().Core().Enabled(zapcore.DebugLevel) {
		t.Error("default logger should discard everything")
	}
}
