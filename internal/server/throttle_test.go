package server

import (
	"testing"
	"time"
)

func TestThrottle(t *testing.T) {
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	th := newThrottle(10 * time.Second)

	if ok, _ := th.Allow(base); !ok {
		t.Fatal("first call should pass")
	}
	ok, wait := th.Allow(base.Add(3 * time.Second))
	if ok || wait != 7*time.Second {
		t.Fatalf("ok=%v wait=%s", ok, wait)
	}
	if ok, _ := th.Allow(base.Add(10 * time.Second)); !ok {
		t.Fatal("call after interval should pass")
	}

	open := newThrottle(0)
	for i := 0; i < 3; i++ {
		if ok, _ := open.Allow(base); !ok {
			t.Fatal("zero interval should never throttle")
		}
	}
}
