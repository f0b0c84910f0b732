package idempotency

import (
	"testing"
	"time"
)

func TestValidKey(t *testing.T) {
	cases := map[string]bool{
		"abc-123_XYZ": true,
		"":            false,
		"has space":   false,
		"has/slash":   false,
	}
	for k, want := range cases {
		if got := ValidKey(k); got != want {
			t.Errorf("ValidKey(%q) = %v, want %v", k, got, want)
		}
	}
}

func TestStorePutGet(t *testing.T) {
	s := New(time.Minute)
	if _, ok := s.Get("missing"); ok {
		t.Fatal("expected miss on empty store")
	}
	s.Put("k1", "run-1")
	runID, ok := s.Get("k1")
	if !ok || runID != "run-1" {
		t.Fatalf("got (%q, %v), want (run-1, true)", runID, ok)
	}
}

func TestStoreExpiry(t *testing.T) {
	s := New(time.Millisecond)
	fake := time.Now()
	s.now = func() time.Time { return fake }
	s.Put("k1", "run-1")
	fake = fake.Add(time.Second)
	if _, ok := s.Get("k1"); ok {
		t.Fatal("expected entry to have expired")
	}
}
