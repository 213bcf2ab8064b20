package mprompt_test

import (
	"testing"

	"code.hybscloud.com/mprompt/mprompt"
	"code.hybscloud.com/mprompt/shadow"
)

// TestPromptIdentity checks the basic round-trip law: a prompt whose body
// simply returns its argument returns it unchanged to the caller.
func TestPromptIdentity(t *testing.T) {
	s := mprompt.NewSite()
	defer s.Close()

	k := shadow.NewKind("identity")
	got := s.Prompt(k,
		func() any { return nil },
		func(hdata, arg any) any { return arg },
		func(hdata, arg any) any { return arg },
		42,
	)
	if got != 42 {
		t.Fatalf("Prompt identity = %v, want 42", got)
	}
}

// TestYieldResumeRoundTrip implements the spec's "State" scenario: a single
// get/put cell threaded through a handler installed by the enclosing
// prompt, answering its own effect.
func TestYieldResumeRoundTrip(t *testing.T) {
	s := mprompt.NewSite()
	defer s.Close()

	type op struct {
		get bool
		put int
	}

	state := shadow.NewKind("state")
	got := s.Prompt(state,
		func() any { return 10 },
		func(hdata, arg any) any {
			h := s.Find(state)
			v := s.YieldTo(h, func(r *mprompt.Resume, a any) any {
				cell := mprompt.Data(h).(int)
				o := a.(op)
				if o.get {
					return r.Resume(cell)
				}
				return r.Resume(o.put)
			}, op{get: true}).(int)

			h2 := s.Find(state)
			return s.YieldTo(h2, func(r *mprompt.Resume, a any) any {
				return r.Resume(a.(op).put)
			}, op{put: v + 1})
		},
		func(hdata, arg any) any { return arg },
		nil,
	)
	if got != 11 {
		t.Fatalf("state round-trip = %v, want 11", got)
	}
}

// TestExceptionNeverResumes implements the spec's "Exception" scenario: the
// handler never calls resume, so the body's remaining code never runs.
func TestExceptionNeverResumes(t *testing.T) {
	s := mprompt.NewSite()
	defer s.Close()

	exn := shadow.NewKind("exn")
	ranAfterThrow := false

	got := s.Prompt(exn,
		func() any { return nil },
		func(hdata, arg any) any {
			h := s.Find(exn)
			s.YieldTo(h, func(r *mprompt.Resume, a any) any {
				return "caught:" + a.(string)
			}, "boom")
			ranAfterThrow = true
			return "unreachable"
		},
		func(hdata, arg any) any { return arg },
		nil,
	)
	if ranAfterThrow {
		t.Fatalf("body ran past a throw that was never resumed")
	}
	if got != "caught:boom" {
		t.Fatalf("got = %v, want caught:boom", got)
	}
}

// TestChoiceMultiShot implements the spec's "Nondeterminism" scenario: a
// single myield_to call is answered twice, producing two independent
// completions of the same body.
func TestChoiceMultiShot(t *testing.T) {
	s := mprompt.NewSite()
	defer s.Close()

	choice := shadow.NewKind("choice")
	var results []int

	s.Prompt(choice,
		func() any { return nil },
		func(hdata, arg any) any {
			h := s.Find(choice)
			v := s.MYieldTo(h, func(r *mprompt.Resume, a any) any {
				results = append(results, r.Resume(1).(int))
				results = append(results, r.Resume(2).(int))
				return nil
			}, nil).(int)
			return v * 10
		},
		func(hdata, arg any) any { return arg },
		nil,
	)

	if len(results) != 2 || results[0] != 10 || results[1] != 20 {
		t.Fatalf("results = %v, want [10 20]", results)
	}
}

// TestUnderSkipsOwnHandler implements the spec's "Under" scenario: a
// handler that tail-calls back into user code under its own kind must not
// re-enter itself.
func TestUnderSkipsOwnHandler(t *testing.T) {
	s := mprompt.NewSite()
	defer s.Close()

	k := shadow.NewKind("logging")
	var sawOuter bool

	got := s.Prompt(k,
		func() any { return "outer" },
		func(hdata, arg any) any {
			return s.Prompt(k,
				func() any { return "inner" },
				func(hdata2, arg2 any) any {
					return s.Under(k, func(a any) any {
						h := s.Find(k)
						if mprompt.Data(h) == "outer" {
							sawOuter = true
						}
						return mprompt.Data(h)
					}, nil)
				},
				func(hdata2, arg2 any) any { return arg2 },
				nil,
			)
		},
		func(hdata, arg any) any { return arg },
		nil,
	)

	if !sawOuter {
		t.Fatalf("Under did not skip the inner handler of the same kind")
	}
	if got != "outer" {
		t.Fatalf("got = %v, want outer", got)
	}
}

// TestCrossPromptUnwind implements the spec's cross-prompt unwind scenario:
// Unwind targeting an outer prompt's handler runs that prompt's own
// unwindFn and skips every intervening frame's ordinary return path.
func TestCrossPromptUnwind(t *testing.T) {
	s := mprompt.NewSite()
	defer s.Close()

	outerKind := shadow.NewKind("outer-unwind")
	var innerCleanupRan bool

	got := s.Prompt(outerKind,
		func() any { return nil },
		func(hdata, arg any) any {
			outerHandler := s.Top()
			inner := shadow.NewKind("inner")
			return s.Prompt(inner,
				func() any { return nil },
				func(hdata2, arg2 any) any {
					defer func() { innerCleanupRan = true }()
					mprompt.Unwind(outerHandler, "unwound")
					return "unreachable"
				},
				func(hdata2, arg2 any) any { return arg2 },
				nil,
			)
		},
		func(hdata, arg any) any { return "handled:" + arg.(string) },
		nil,
	)

	if !innerCleanupRan {
		t.Fatalf("inner prompt's defer did not run during the unwind")
	}
	if got != "handled:unwound" {
		t.Fatalf("got = %v, want handled:unwound", got)
	}
}

func TestActiveKindsReflectsInstalledPrompt(t *testing.T) {
	s := mprompt.NewSite()
	defer s.Close()

	k := shadow.NewKind("visible")
	var kinds []string
	s.Prompt(k,
		func() any { return nil },
		func(hdata, arg any) any {
			kinds = s.ActiveKinds()
			return nil
		},
		func(hdata, arg any) any { return arg },
		nil,
	)

	found := false
	for _, name := range kinds {
		if name == k.String() {
			found = true
		}
	}
	if !found {
		t.Fatalf("ActiveKinds = %v, want it to include %q", kinds, k.String())
	}
}
