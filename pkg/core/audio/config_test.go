package audio

import "testing"

func TestConfigByteMath(t *testing.T) {
	c := DefaultConfig()

	if got := c.BytesPerSecond(); got != 48000 {
		t.Errorf("BytesPerSecond() = %d, want 48000", got)
	}
	if got := c.DurationMs(48000); got != 1000 {
		t.Errorf("DurationMs(48000) = %d, want 1000", got)
	}
	if got := c.BytesForDurationMs(500); got != 24000 {
		t.Errorf("BytesForDurationMs(500) = %d, want 24000", got)
	}
}

func TestConfigZeroValueDuration(t *testing.T) {
	var c Config
	if got := c.DurationMs(1024); got != 0 {
		t.Errorf("DurationMs on zero config = %d, want 0", got)
	}
}
