package mprompt

import (
	"code.hybscloud.com/mprompt/gstack"
	"code.hybscloud.com/mprompt/shadow"
)

// yieldEnvelope is the MsgYield payload: everything drive needs to invoke
// ytor on the handler's own goroutine, plus everything a later Resume needs
// to send a value back to wherever Yield actually blocked.
type yieldEnvelope struct {
	handler *shadow.Handler
	ytor    func(r *Resume, arg any) any
	arg     any

	origin        *gstack.Stack
	originHandler *shadow.Handler

	multi bool
	// replay is the shared history log for the goroutine this occurrence
	// belongs to; logIndex is this occurrence's own stable slot in it, so a
	// later fork can overwrite just this slot's answer instead of growing
	// the log as if a brand new occurrence had happened (see Resume.Resume).
	replay   *replayState
	logIndex int
}

// replayState records resume values handed out by a multi-shot effect, so a
// later MYieldTo of the same effect can fast-forward through them instead of
// asking the handler again. Determinism up to the point a myield_to call is
// replayed is a documented precondition (spec.md §9, carried into
// SPEC_FULL.md §1): code between two myield_to calls must be pure, or the
// replayed run observes a different world than the first one did.
type replayState struct {
	log []any
	pos int
}

// YieldTo implements spec §4.5: suspend the calling prompt and invoke ytor
// on the goroutine that owns h's prompt, with a Resume bound to the exact
// point Yield blocked. h must be a handler with a live prompt (the result of
// a prior Find, Top, or Parent call); passing a linear handler's frame (or
// one of the reserved UNDER/MASK/FINALLY structural frames) is a programming
// error and panics.
func (s *Site) YieldTo(h *shadow.Handler, ytor func(r *Resume, arg any) any, arg any) any {
	target, ok := h.Prompt.(*Prompt)
	if !ok || target == nil {
		panic("mprompt: yield_to: handler has no associated prompt")
	}
	if s.current == nil {
		panic("mprompt: yield_to: not running on a gstack owned by this Site")
	}

	origin := s.current
	env := &yieldEnvelope{
		handler:       h,
		ytor:          ytor,
		arg:           arg,
		origin:        origin.stack,
		originHandler: origin.handler,
	}
	return origin.stack.YieldTo(target.stack, env)
}

// MYieldTo is YieldTo's multi-shot variant (spec §4.5's "myield_to"): ytor
// may call r.Resume more than once. Each call past the first re-runs the
// calling prompt's body from its start rather than
// resurrecting a single suspended goroutine — a goroutine can only ever be
// resumed once — replaying the recorded answers to every myield_to the body
// already passed through, then handing it the new resume value at the call
// that is now live.
//
// replaying is driven by Resume.Resume itself (see resume.go): the first
// call blocks the origin goroutine exactly like a one-shot resume, and every
// call after the first spawns a fresh run of the prompt's body, replaying
// replay.log up to replay.pos before supplying the new value.
func (s *Site) MYieldTo(h *shadow.Handler, ytor func(r *Resume, arg any) any, arg any) any {
	target, ok := h.Prompt.(*Prompt)
	if !ok || target == nil {
		panic("mprompt: myield_to: handler has no associated prompt")
	}
	if s.current == nil {
		panic("mprompt: myield_to: not running on a gstack owned by this Site")
	}

	origin := s.current
	replay := origin.activeReplay
	if replay == nil {
		replay = &replayState{}
		origin.activeReplay = replay
	}

	if replay.pos < len(replay.log) {
		v := replay.log[replay.pos]
		replay.pos++
		return v
	}

	env := &yieldEnvelope{
		handler:       h,
		ytor:          ytor,
		arg:           arg,
		origin:        origin.stack,
		originHandler: origin.handler,
		multi:         true,
		replay:        replay,
		logIndex:      len(replay.log),
	}
	return origin.stack.YieldTo(target.stack, env)
}
