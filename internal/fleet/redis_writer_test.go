package fleet

import (
	"testing"
	"time"
)

func TestRedisKeyLayout(t *testing.T) {
	if got := latestReadingKey("st-001"); got != "tidewatch:latest:st-001" {
		t.Errorf("latest key = %s", got)
	}
	if got := alertKey("st-001", 42); got != "tidewatch:alert:st-001:42" {
		t.Errorf("alert key = %s", got)
	}
	if got := alertSetKey("north-sea"); got != "tidewatch:alerts:north-sea" {
		t.Errorf("alert set key = %s", got)
	}
	if got := fleetStateKey("north-sea"); got != "tidewatch:state:north-sea" {
		t.Errorf("state key = %s", got)
	}
}

func TestNewRedisWriterFailsWithoutServer(t *testing.T) {
	// Port 1 is never a Redis server; the constructor must fail fast
	// instead of handing back a writer that errors on first use.
	if _, err := NewRedisWriter("127.0.0.1:1", "", 0, time.Minute); err == nil {
		t.Fatal("expected connection error")
	}
}
