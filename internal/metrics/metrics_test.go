package metrics

import (
	"sync"
	"testing"
)

func TestCountersAreConcurrencySafe(t *testing.T) {
	m := New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.IncrementTicks()
			m.IncrementGuessesCorrect()
			m.ViewerConnected()
		}()
	}
	wg.Wait()

	s := m.GetSnapshot()
	if s.Ticks != 50 || s.GuessesCorrect != 50 || s.ViewersConnected != 50 {
		t.Fatalf("snapshot = %+v, want 50s", s)
	}
}

func TestViewerGauge(t *testing.T) {
	m := New()
	m.ViewerConnected()
	m.ViewerConnected()
	m.ViewerDisconnected()
	if got := m.GetViewersConnected(); got != 1 {
		t.Fatalf("viewers = %d, want 1", got)
	}
}

func TestAddCounters(t *testing.T) {
	m := New()
	m.AddAircraftSpawned(5)
	m.AddAircraftDeparted(2)
	m.IncrementAircraftResolved()
	s := m.GetSnapshot()
	if s.AircraftSpawned != 5 || s.AircraftDeparted != 2 || s.AircraftResolved != 1 {
		t.Fatalf("snapshot = %+v", s)
	}
}
