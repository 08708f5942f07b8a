package signal

import (
	"sync"
	"sync/atomic"
	"testing"
)

func TestFire_NoHandler_IsNoop(t *testing.T) {
	s := &LogoutSignal{}
	if s.Fire() {
		t.Fatalf("Fire() with empty slot reported a handler ran")
	}
	if s.Registered() {
		t.Fatalf("new signal should be empty")
	}
}

func TestRegister_ReplacesPrevious(t *testing.T) {
	s := &LogoutSignal{}
	var a, b int
	s.Register(func() { a++ })
	s.Register(func() { b++ })

	if !s.Fire() {
		t.Fatalf("expected handler to run")
	}
	if a != 0 || b != 1 {
		t.Fatalf("only the latest handler should run: a=%d b=%d", a, b)
	}
}

func TestClear_IsIdempotent(t *testing.T) {
	s := &LogoutSignal{}
	calls := 0
	s.Register(func() { calls++ })
	s.Clear()
	s.Clear()
	if s.Fire() || calls != 0 {
		t.Fatalf("cleared signal must not invoke handler (calls=%d)", calls)
	}
}

func TestFire_HandlerMayClearItself(t *testing.T) {
	s := &LogoutSignal{}
	calls := 0
	s.Register(func() {
		calls++
		s.Clear()
	})
	s.Fire()
	s.Fire()
	if calls != 1 {
		t.Fatalf("calls = %d; want 1", calls)
	}
}

func TestFire_Concurrent(t *testing.T) {
	s := &LogoutSignal{}
	var n atomic.Int64
	s.Register(func() { n.Add(1) })

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Fire()
		}()
	}
	wg.Wait()
	if n.Load() != 50 {
		t.Fatalf("fired %d times; want 50", n.Load())
	}
}

func TestDefault_StartsEmpty(t *testing.T) {
	if Default.Registered() {
		t.Fatalf("Default must start without a handler")
	}
}
