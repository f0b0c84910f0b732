package circuit

import (
	"testing"
	"time"
)

func TestBreakerTripsAfterThreshold(t *testing.T) {
	b := New(Config{FailureThreshold: 3, RecoveryTimeout: time.Hour, HalfOpenMaxAttempts: 1})
	for i := 0; i < 2; i++ {
		if !b.Allow() {
			t.Fatal("should allow before threshold")
		}
		b.RecordFailure()
	}
	if b.State() != Closed {
		t.Fatalf("state = %s, want closed", b.State())
	}
	if !b.Allow() {
		t.Fatal("should allow third attempt")
	}
	b.RecordFailure()
	if b.State() != Open {
		t.Fatalf("state = %s, want open after threshold failures", b.State())
	}
	if b.Allow() {
		t.Fatal("should not allow while open and before recovery timeout")
	}
}

func TestBreakerHalfOpenRecovery(t *testing.T) {
	b := New(Config{FailureThreshold: 1, RecoveryTimeout: time.Millisecond, HalfOpenMaxAttempts: 2})
	b.Allow()
	b.RecordFailure()
	if b.State() != Open {
		t.Fatalf("state = %s, want open", b.State())
	}

	time.Sleep(5 * time.Millisecond)
	if !b.Allow() {
		t.Fatal("should allow after recovery timeout")
	}
	if b.State() != HalfOpen {
		t.Fatalf("state = %s, want half-open", b.State())
	}
	b.RecordSuccess()
	if b.State() != Closed {
		t.Fatalf("state = %s, want closed after half-open success", b.State())
	}
}

func TestBreakerHalfOpenFailureReopens(t *testing.T) {
	b := New(Config{FailureThreshold: 1, RecoveryTimeout: time.Millisecond, HalfOpenMaxAttempts: 2})
	b.Allow()
	b.RecordFailure()
	time.Sleep(5 * time.Millisecond)
	b.Allow()
	b.RecordFailure()
	if b.State() != Open {
		t.Fatalf("state = %s, want open after half-open failure", b.State())
	}
}
