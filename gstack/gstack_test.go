package gstack_test

import (
	"testing"

	"code.hybscloud.com/mprompt/gstack"
)

func TestAcquireReturn(t *testing.T) {
	p := gstack.NewProvider()
	defer p.Close()

	s, msg, err := p.Acquire(func(self *gstack.Stack, arg any) any {
		return arg.(int) + 1
	}, 41)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if msg.Kind != gstack.MsgReturn {
		t.Fatalf("Kind = %v, want MsgReturn", msg.Kind)
	}
	if msg.Value != 42 {
		t.Fatalf("Value = %v, want 42", msg.Value)
	}
	p.Release(s)
}

func TestYieldAndResume(t *testing.T) {
	p := gstack.NewProvider()
	defer p.Close()

	s, msg, err := p.Acquire(func(self *gstack.Stack, arg any) any {
		got := self.Yield(arg.(int) * 2)
		return got.(int) + 1
	}, 10)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if msg.Kind != gstack.MsgYield || msg.Value != 20 {
		t.Fatalf("first Msg = %+v, want Yield(20)", msg)
	}

	s.Send(100)
	msg = s.Recv()
	if msg.Kind != gstack.MsgReturn || msg.Value != 101 {
		t.Fatalf("second Msg = %+v, want Return(101)", msg)
	}
	p.Release(s)
}

type testAbort struct{ reason string }

func (testAbort) GstackAbort() {}

func TestYieldAbortPropagatesAsPanic(t *testing.T) {
	p := gstack.NewProvider()
	defer p.Close()

	var observedDefer bool
	s, _, err := p.Acquire(func(self *gstack.Stack, arg any) (result any) {
		defer func() { observedDefer = true }()
		self.Yield("suspend")
		return "unreachable"
	}, nil)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}

	msg := p.Resume(s, testAbort{reason: "cancel"})
	if msg.Kind != gstack.MsgAbort {
		t.Fatalf("Kind = %v, want MsgAbort", msg.Kind)
	}
	if !observedDefer {
		t.Fatalf("body's own defer did not run on abort")
	}
	p.Release(s)
}

func TestReleaseRecyclesGoroutine(t *testing.T) {
	p := gstack.NewProvider()
	defer p.Close()

	s1, msg, _ := p.Acquire(func(self *gstack.Stack, arg any) any { return "first" }, nil)
	if msg.Value != "first" {
		t.Fatalf("first run = %v", msg.Value)
	}
	p.Release(s1)

	s2, msg, _ := p.Acquire(func(self *gstack.Stack, arg any) any { return "second" }, nil)
	if msg.Value != "second" {
		t.Fatalf("second run = %v", msg.Value)
	}
	if s1.ID() != s2.ID() {
		t.Fatalf("expected the idle stack to be reused, got a fresh one")
	}
	p.Release(s2)
}

func TestStatsTracksIdleAndSpawned(t *testing.T) {
	p := gstack.NewProvider()
	defer p.Close()

	s, _, _ := p.Acquire(func(self *gstack.Stack, arg any) any { return nil }, nil)
	idle, everSpawned := p.Stats()
	if idle != 0 || everSpawned != 1 {
		t.Fatalf("Stats while checked out = (%d, %d), want (0, 1)", idle, everSpawned)
	}

	p.Release(s)
	idle, everSpawned = p.Stats()
	if idle != 1 || everSpawned != 1 {
		t.Fatalf("Stats after release = (%d, %d), want (1, 1)", idle, everSpawned)
	}
}
