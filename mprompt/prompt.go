package mprompt

import (
	"code.hybscloud.com/mprompt/gstack"
	"code.hybscloud.com/mprompt/shadow"
)

// Prompt is the opaque object the runtime owns per spec §3: the gstack it
// runs on, and the handler frame that joins it to the shadow stack. There
// is no separately saved "register context" field — the gstack's own
// parked goroutine state is that saved context (see package gstack's doc
// comment).
type Prompt struct {
	kind    shadow.Kind
	stack   *gstack.Stack
	handler *shadow.Handler
	hdata   any

	// activeReplay is non-nil once this prompt's body is running a replay
	// (either it is itself a fork of an earlier run, or it made at least
	// one MYieldTo call whose answer a later fork will need to replay). See
	// mprompt/yield.go and mprompt/resume.go.
	activeReplay *replayState

	// fork restarts this prompt's body from scratch, fast-forwarding
	// through replay's recorded MYieldTo answers, to produce an
	// independent continuation from a suspension a multi-shot resume has
	// already been called on once (see Resume.Resume).
	fork func(replay *replayState) any
}

// Kind returns the kind this prompt's handler frame was installed with.
func (p *Prompt) Kind() shadow.Kind { return p.kind }

// Prompt implements spec §4.3/§4.4: obtain a gstack, run body under a
// scoped handler install of kind, and return its result — or, if an unwind
// targets this exact prompt's handler frame, run unwindFn with hdata still
// live and return that instead. newHData is called once, on the prompt's
// own gstack, to allocate handler-local state (the Go analogue of "on the
// prompt stack, allocate hdata_size bytes").
func (s *Site) Prompt(kind shadow.Kind, newHData func() any, body func(hdata, arg any) any, unwindFn func(hdata, arg any) any, arg any) any {
	return s.runPrompt(kind, newHData, body, unwindFn, nil, arg)
}

// runPrompt is Prompt's implementation, parameterized by seedReplay so a
// multi-shot Resume's second-and-later call can fork an independent
// continuation: a fresh run of the same body, primed with everything the
// original run's MYieldTo calls already answered (see resume.go).
func (s *Site) runPrompt(kind shadow.Kind, newHData func() any, body func(hdata, arg any) any, unwindFn func(hdata, arg any) any, seedReplay *replayState, arg any) any {
	p := &Prompt{kind: kind, activeReplay: seedReplay}
	caller := s.current

	p.fork = func(replay *replayState) any {
		return s.runPrompt(kind, newHData, body, unwindFn, replay, arg)
	}

	wrapped := func(self *gstack.Stack, arg any) (result any) {
		p.stack = self
		p.hdata = newHData()
		p.handler = &shadow.Handler{Parent: s.top, Kind: kind, Prompt: p, HData: p.hdata}

		prevTop, prevCurrent := s.top, s.current
		s.top = p.handler
		s.current = p
		defer func() {
			s.top = prevTop
			s.current = prevCurrent
			if r := recover(); r != nil {
				sn, ok := r.(unwindSentinel)
				if !ok {
					panic(r)
				}
				if sn.target == p.handler {
					s.current = caller
					result = unwindFn(p.hdata, sn.arg)
					return
				}
				panic(sn)
			}
		}()
		return body(p.hdata, arg)
	}

	s2, msg, err := s.stacks.Acquire(wrapped, arg)
	if err != nil {
		panic("mprompt: prompt: " + err.Error())
	}
	p.stack = s2
	return s.drive(p, caller, msg)
}

// drive interprets one Msg produced by p's own gstack (or relayed there,
// for an unwind target mismatch). It is the receiving half of the
// prompt/yield/resume protocol: whichever goroutine is "outside" p runs
// drive, exactly mirroring spec §4.4's "invoke ytor(resume, arg) on the
// parent". caller is the Prompt (possibly nil, for the outermost call) that
// was executing when p was created or last resumed; drive restores
// s.current to it unconditionally, since a suspend leaves s.current
// pointing at p itself until something reasserts whose turn it really is.
func (s *Site) drive(p *Prompt, caller *Prompt, msg gstack.Msg) any {
	s.current = caller

	switch msg.Kind {
	case gstack.MsgReturn:
		s.stacks.Release(p.stack)
		return msg.Value

	case gstack.MsgAbort:
		// p's own wrapped body already tried sn.target == p.handler inside
		// its own recover (see runPrompt); reaching drive as a Msg at all means
		// it did not match there, so the target is an ancestor further
		// out. Release p's gstack and relay by re-panicking: this call is
		// always itself nested inside some enclosing Prompt's wrapped body
		// (or, at the very root, has no enclosing recover and the program
		// is asking to unwind to a handler that was never installed, a
		// programming error that is fatal by the same panic).
		sn := msg.Value.(unwindSentinel)
		s.stacks.Release(p.stack)
		panic(sn)

	case gstack.MsgYield:
		env := msg.Value.(*yieldEnvelope)
		if env.handler.Prompt != any(p) {
			panic("mprompt: yield envelope routed to the wrong prompt")
		}
		yieldTop := s.top
		s.top = env.handler.Parent
		resume := &Resume{
			site:          s,
			prompt:        p,
			caller:        caller,
			origin:        env.origin,
			originHandler: env.originHandler,
			multi:         env.multi,
			replay:        env.replay,
			logIndex:      env.logIndex,
		}
		result := env.ytor(resume, env.arg)
		s.top = yieldTop
		env.handler.Parent = s.top
		s.current = caller
		return result

	default:
		panic("mprompt: drive: unrecognized gstack message")
	}
}
