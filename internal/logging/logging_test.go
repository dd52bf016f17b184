package logging

import (
	"sync"
	"testing"

	"go.uber.org/zap"
)

func TestLoggerDefaultsToNop(t *testing.T) {
	if Logger() == nil {
		t.Fatal("expected a logger")
	}
}

func TestSetLogger(t *testing.T) {
	l := zap.NewNop()
	SetLogger(l)
	if Logger() != l {
		t.Error("expected the installed logger back")
	}
}

func TestConcurrentAccess(t *testing.T) {
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			SetLogger(zap.NewNop())
		}()
		go func() {
			defer wg.Done()
			if Logger() == nil {
				t.Error("Logger returned nil during concurrent SetLogger")
			}
		}()
	}
	wg.Wait()
}

func TestInit(t *testing.T) {
	l, err := Init("debug")
	if err != nil {
		t.Fatalf("init failed: %v", err)
	}
	if Logger() != l {
		t.Error("Init should install the logger it builds")
	}

	if _, err := Init("loud"); err == nil {
		t.Error("expected error for bogus level")
	}
}
