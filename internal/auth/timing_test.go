package auth

import (
	"testing"
	"time"
)

func TestTimingDelay_SkipsDelayOnSuccess(t *testing.T) {
	td := NewTimingDelay(TimingConfig{BaseDelayMs: 200})

	start := time.Now()
	td.Wait(true)
	if elapsed := time.Since(start); elapsed > 50*time.Millisecond {
		t.Errorf("expected no delay on success, slept %s", elapsed)
	}
}

func TestTimingDelay_DelaysOnFailure(t *testing.T) {
	td := NewTimingDelay(TimingConfig{BaseDelayMs: 50})

	start := time.Now()
	td.Wait(false)
	if elapsed := time.Since(start); elapsed < 50*time.Millisecond {
		t.Errorf("expected at least 50ms delay, slept %s", elapsed)
	}
}

func TestTimingDelay_WaitFromCountsElapsedTime(t *testing.T) {
	td := NewTimingDelay(TimingConfig{BaseDelayMs: 100})

	start := time.Now().Add(-80 * time.Millisecond)
	td.WaitFrom(start, false)

	total := time.Since(start)
	if total < 100*time.Millisecond {
		t.Errorf("expected total elapsed >= 100ms, got %s", total)
	}
	if total > 200*time.Millisecond {
		t.Errorf("expected only the remainder to be slept, total %s", total)
	}
}

func TestCryptoRandIntn_Bounds(t *testing.T) {
	for i := 0; i < 100; i++ {
		n, err := cryptoRandIntn(10)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n < 0 || n >= 10 {
			t.Errorf("value %d out of [0,10)", n)
		}
	}

	if n, _ := cryptoRandIntn(0); n != 0 {
		t.Errorf("expected 0 for max<=0, got %d", n)
	}
}
