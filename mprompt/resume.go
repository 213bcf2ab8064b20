package mprompt

import (
	"code.hybscloud.com/mprompt/gstack"
	"code.hybscloud.com/mprompt/shadow"
)

// Resume is the reified continuation handed to a handler clause (spec
// §4.4's "resume" object): calling it re-enters the computation exactly
// where it called yield_to/myield_to. A one-shot Resume may be called at
// most once; a multi-shot one (obtained from myield_to) may be called any
// number of times, each call past the first re-running the body from its
// start and replaying recorded answers up to that suspension point.
type Resume struct {
	site *Site

	// prompt is the prompt whose handler this Resume was produced for
	// (target); caller is whoever was running when that handler's ytor was
	// invoked, restored to s.current once this Resume's work is done.
	prompt *Prompt
	caller *Prompt

	// origin is the gstack that actually blocked in Yield/YieldTo; it may
	// belong to prompt itself (the common, single-level case) or to some
	// descendant several prompts deeper (a multi-level yield_to).
	origin        *gstack.Stack
	originHandler *shadow.Handler

	multi bool
	// replay is the shared history log for origin's goroutine; logIndex is
	// the stable slot this occurrence owns within it (see yield.go).
	replay   *replayState
	logIndex int

	used bool
}

// Resume re-enters the suspended computation with arg as the result of its
// yield_to/myield_to call, and returns once that computation next suspends
// to this same handler or completes.
//
// The first call drives the one real suspended goroutine directly. Any call
// after the first is only valid on a multi-shot Resume (obtained from
// myield_to) and forks an independent continuation instead of reusing that
// goroutine — a goroutine can only ever be woken once, so producing a
// second, independent outcome means re-running origin's body from scratch,
// replaying every occurrence before this one exactly as it happened, then
// substituting arg in this occurrence's own slot rather than appending past
// it: the occurrences after this one have not happened yet on this branch
// and must run for real (see mprompt/yield.go's MYieldTo).
func (r *Resume) Resume(arg any) any {
	if r.used && !r.multi {
		panic("mprompt: resume: one-shot resume already used")
	}

	if r.multi && r.replay != nil {
		if r.logIndex < len(r.replay.log) {
			r.replay.log[r.logIndex] = arg
		} else {
			r.replay.log = append(r.replay.log, arg)
		}
		r.replay.pos = r.logIndex + 1
	}

	if r.used {
		originPrompt, ok := r.originHandler.Prompt.(*Prompt)
		if !ok || originPrompt.fork == nil {
			panic("mprompt: resume: multi-shot resume has no forkable origin")
		}
		forked := &replayState{log: append([]any(nil), r.replay.log[:r.logIndex+1]...)}
		return originPrompt.fork(forked)
	}
	r.used = true

	originPrompt, _ := r.originHandler.Prompt.(*Prompt)

	if originPrompt == r.prompt {
		// Single-level case: the same goroutine that is running this
		// handler clause is the unique reader of origin's own output, so
		// it can safely wake the suspended body and keep driving it.
		r.site.current = r.prompt
		msg := r.site.stacks.Resume(r.prompt.stack, arg)
		result := r.site.drive(r.prompt, r.caller, msg)
		return result
	}

	// Multi-level case: origin's own output is read by whichever call
	// installed it (some ancestor's Site.Prompt, already parked on that
	// read); waking it here lets that existing relay carry the result the
	// rest of the way without a second reader racing the first.
	if originPrompt != nil {
		r.site.current = originPrompt
	}
	r.origin.Send(arg)
	return nil
}

// ResumeTail is Resume with no further distinction: Go has no manual
// tail-call requirement, so there is nothing extra to do to make a resume
// in tail position cheaper than one that is not.
func (r *Resume) ResumeTail(arg any) any {
	return r.Resume(arg)
}

// Drop abandons the suspended computation without producing a value for
// it: the gstack it was parked on unwinds via the same panic/recover path
// as a cross-prompt Unwind, running every defer (and FINALLY frame) between
// its yield_to call and its own prompt boundary, then that prompt's own
// unwindFn runs in place of a normal return. Drop drives that unwind to
// completion (releasing the gstack it frees, relaying it onward if it does
// not target this handler) before returning, exactly like Resume does for
// an ordinary value — the difference is only the value threaded through,
// never whether the continuation runs to some conclusion. The result the
// unwind produces is discarded: a handler that calls Drop supplies its own
// return value separately.
func (r *Resume) Drop() {
	if r.used && !r.multi {
		panic("mprompt: resume: one-shot resume already used")
	}
	r.used = true

	sentinel := unwindSentinel{target: r.originHandler, arg: nil}
	originPrompt, _ := r.originHandler.Prompt.(*Prompt)

	if originPrompt == r.prompt {
		r.site.current = r.prompt
		msg := r.site.stacks.Resume(r.prompt.stack, sentinel)
		r.site.drive(r.prompt, r.caller, msg)
		return
	}

	if originPrompt != nil {
		r.site.current = originPrompt
	}
	r.origin.Send(sentinel)
}

// ShouldUnwind reports whether dropping this Resume (instead of calling it)
// would run at least one FINALLY frame between the yield_to call site and
// this handler — i.e. whether the computation being dropped holds any
// cleanup that Drop's unwind would trigger. It is purely informational: a
// handler is free to Drop regardless of what this reports.
func (r *Resume) ShouldUnwind() bool {
	for h := r.originHandler; h != nil && h != r.prompt.handler; h = h.Parent {
		if h.Kind == shadow.FINALLY {
			return true
		}
	}
	return false
}
