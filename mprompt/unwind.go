package mprompt

import "code.hybscloud.com/mprompt/shadow"

// unwindSentinel is the value threaded across a gstack boundary to drive a
// cross-prompt unwind (spec §4.6, "Exception-based" strategy). It carries
// only target and arg: what runs once the unwind reaches its target is the
// unwindFn the target prompt itself was installed with (see Site.Prompt),
// not something the unwind call site supplies, so the sentinel survives a
// panic/recover/re-panic relay across one or more goroutines without
// needing to carry a closure across that boundary.
type unwindSentinel struct {
	target *shadow.Handler
	arg    any
}

// GstackAbort marks unwindSentinel as a gstack.Abort: Stack.Yield panics
// with it instead of returning it as an ordinary resume value, so the
// blocked goroutine's own defers (and any Go-level cleanup) run before the
// sentinel is relayed further.
func (unwindSentinel) GstackAbort() {}

// Unwind drives a cross-prompt unwind to target with arg (spec §4.6): every
// scope between the current position and target is torn down in LIFO order
// as the panic propagates, intermediate prompts are freed as their drive
// call relays the sentinel, and target's own unwindFn finally runs with its
// hdata still live, on the goroutine that owns it.
//
// Unwind does not return: it always panics. Call it only from code running
// on a gstack owned transitively by this Site (i.e. from inside a prompt
// body or a handler it called into).
func Unwind(target *shadow.Handler, arg any) {
	panic(unwindSentinel{target: target, arg: arg})
}

// Under implements spec §4.7: push an UNDER frame naming underKind for the
// dynamic extent of fn(arg), so find(underKind) skips both this frame and
// the next handler of that kind — letting a handler tail-call into user
// code without re-entering itself.
func (s *Site) Under(underKind shadow.Kind, fn func(arg any) any, arg any) any {
	frame := &shadow.Handler{Parent: s.top, Kind: shadow.UNDER, Under: underKind}
	s.top = frame
	defer func() { s.top = frame.Parent }()
	return fn(arg)
}

// Mask implements spec §4.7: push a MASK frame for maskKind at level from,
// for the dynamic extent of fn(arg), so a find(maskKind) search that
// reaches mask_level >= from hides one more handler of that kind. Per
// DESIGN.md's Open Question decision, Mask pushes a frame tagged MASK (the
// source reading that tags it UNDER is not replicated — see spec.md §9).
func (s *Site) Mask(maskKind shadow.Kind, from int, fn func(arg any) any, arg any) any {
	frame := &shadow.Handler{Parent: s.top, Kind: shadow.MASK, Mask: maskKind, From: from}
	s.top = frame
	defer func() { s.top = frame.Parent }()
	return fn(arg)
}

// Finally installs a linear handler of the reserved FINALLY kind whose
// exitFn runs when — and only when — a cross-prompt unwind propagates
// through this goroutine past this frame (see DESIGN.md's Open Question
// decision: FINALLY never fires on a normal return, since ordinary Go
// defer already covers that case in idiomatic Go code).
func (s *Site) Finally(exitFn func(), fn func(arg any) any, arg any) any {
	frame := &shadow.Handler{Parent: s.top, Kind: shadow.FINALLY}
	s.top = frame
	defer func() {
		s.top = frame.Parent
		if r := recover(); r != nil {
			if _, ok := r.(unwindSentinel); ok {
				exitFn()
			}
			panic(r)
		}
	}()
	return fn(arg)
}
