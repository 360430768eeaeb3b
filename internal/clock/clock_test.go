package clock

import (
	"testing"
	"time"
)

func TestRealTickerFires(t *testing.T) {
	tk := NewTicker(5 * time.Millisecond)
	defer tk.Stop()

	select {
	case <-tk.C():
	case <-time.After(time.Second):
		t.Fatal("ticker did not fire within 1s")
	}
}

func TestManualFireIsReceived(t *testing.T) {
	m := NewManual()
	got := make(chan time.Time, 1)
	go func() {
		got <- <-m.C()
	}()

	m.Fire()

	select {
	case ts := <-got:
		if ts.IsZero() {
			t.Fatal("manual tick carried a zero time")
		}
	case <-time.After(time.Second):
		t.Fatal("manual tick not received")
	}
}
