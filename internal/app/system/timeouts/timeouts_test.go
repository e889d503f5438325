package timeouts

import (
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	Reset()
	if Ping() != DefaultPing {
		t.Errorf("Ping: got %v, want %v", Ping(), DefaultPing)
	}
	if Short() != DefaultShort {
		t.Errorf("Short: got %v, want %v", Short(), DefaultShort)
	}
	if Medium() != DefaultMedium {
		t.Errorf("Medium: got %v, want %v", Medium(), DefaultMedium)
	}
	if Long() != DefaultLong {
		t.Errorf("Long: got %v, want %v", Long(), DefaultLong)
	}
	if Batch() != DefaultBatch {
		t.Errorf("Batch: got %v, want %v", Batch(), DefaultBatch)
	}
}

func TestConfigure_ZeroValuesKeepCurrent(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	Configure(Config{Medium: 20 * time.Second})
	if Medium() != 20*time.Second {
		t.Errorf("Medium: got %v, want 20s", Medium())
	}
	if Short() != DefaultShort {
		t.Errorf("Short should be untouched, got %v", Short())
	}

	Configure(Config{})
	if Medium() != 20*time.Second {
		t.Errorf("zero config must not reset Medium, got %v", Medium())
	}
}
