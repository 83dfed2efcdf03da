package logger

import (
	"testing"

	"go.uber.org/zap"
)

func TestNewLevels(t *testing.T) {
	log, err := New("debug")
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if ce := log.Check(zap.DebugLevel, "debug"); ce == nil {
		t.Fatalf("debug level must be enabled")
	}

	if _, err := New("loud"); err == nil {
		t.Fatalf("expected an error for an unknown level")
	}
}

func TestNamedNil(t *testing.T) {
	if Named(nil, "store") == nil {
		t.Fatalf("Named must never return nil")
	}
}
