package metrics

import (
	"sync"
	"testing"
)

func TestIncAndValue(t *testing.T) {
	m := New(Config{Enabled: true})

	m.Inc(MetricLoginSuccess)
	m.Inc(MetricLoginSuccess)
	m.Inc(MetricLogout)

	if v := m.Value(MetricLoginSuccess); v != 2 {
		t.Fatalf("expected 2, got %d", v)
	}
	if v := m.Value(MetricLogout); v != 1 {
		t.Fatalf("expected 1, got %d", v)
	}
	if v := m.Value(MetricRegisterSuccess); v != 0 {
		t.Fatalf("expected untouched counter to be 0, got %d", v)
	}
}

func TestDisabledIsNoOp(t *testing.T) {
	m := New(Config{Enabled: false})

	m.Inc(MetricLoginSuccess)
	if v := m.Value(MetricLoginSuccess); v != 0 {
		t.Fatalf("disabled metrics recorded a value: %d", v)
	}

	snap := m.Take()
	if len(snap.Counters) != 0 {
		t.Fatalf("disabled snapshot has %d counters", len(snap.Counters))
	}
}

func TestSnapshotIsDeepCopy(t *testing.T) {
	m := New(Config{Enabled: true})
	m.Inc(MetricLoginSuccess)

	snap := m.Take()
	m.Inc(MetricLoginSuccess)

	if snap.Counters[MetricLoginSuccess] != 1 {
		t.Fatalf("snapshot changed after later increments: %d", snap.Counters[MetricLoginSuccess])
	}
	if m.Value(MetricLoginSuccess) != 2 {
		t.Fatalf("live counter wrong: %d", m.Value(MetricLoginSuccess))
	}
}

func TestConcurrentIncrements(t *testing.T) {
	m := New(Config{Enabled: true})

	const workers = 8
	const perWorker = 1000

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				m.Inc(MetricLoginFailure)
			}
		}()
	}
	wg.Wait()

	if v := m.Value(MetricLoginFailure); v != workers*perWorker {
		t.Fatalf("lost increments: expected %d, got %d", workers*perWorker, v)
	}
}

func TestOutOfRangeIDIgnored(t *testing.T) {
	m := New(Config{Enabled: true})

	m.Inc(MetricIDCount)
	m.Inc(MetricIDCount + 10)
	if v := m.Value(MetricIDCount + 10); v != 0 {
		t.Fatalf("out-of-range id recorded: %d", v)
	}
}
