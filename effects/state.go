// Package effects implements four reusable, typed effects built on
// mprompt/shadow: State, Reader, Exn, and Choice. Each wraps the any-typed Site/Find/YieldTo primitives in a
// generic API, the way the teacher's state.go/reader.go/error.go wrap its
// own Operation/Handler machinery in typed constructors.
package effects

import (
	"code.hybscloud.com/mprompt/mprompt"
	"code.hybscloud.com/mprompt/shadow"
)

// State is a handle to a running State[S] prompt, returned to body by
// RunState. Get/Put/Modify yield to the prompt's own handler, which answers
// from the same *S cell RunState seeded — there is no separate handler
// installation step, since the scenario this grounds (spec.md §8, "State")
// has the prompt answer its own effect.
type State[S any] struct {
	site *mprompt.Site
	kind shadow.Kind
}

// RunState installs a fresh State[S] prompt seeded with initial, runs body
// with a handle to it, and returns body's result together with the state's
// value when body returned. Grounded on the teacher's RunState/EvalState/
// ExecState trio, collapsed into one call since callers here can just take
// the field of the pair they want.
func RunState[S, A any](s *mprompt.Site, initial S, body func(st State[S]) A) (A, S) {
	kind := shadow.NewKind("effects.State")
	cell := new(S)
	*cell = initial

	result := s.Prompt(kind,
		func() any { return cell },
		func(hdata, arg any) any {
			return body(State[S]{site: s, kind: kind})
		},
		func(hdata, arg any) any { return arg },
		nil,
	)

	return result.(A), *cell
}

// Get returns the current state.
func (st State[S]) Get() S {
	h := st.site.Find(st.kind)
	return st.site.YieldTo(h, func(r *mprompt.Resume, arg any) any {
		cell := mprompt.Data(h).(*S)
		return r.Resume(*cell)
	}, nil).(S)
}

// Put replaces the current state with v.
func (st State[S]) Put(v S) {
	h := st.site.Find(st.kind)
	st.site.YieldTo(h, func(r *mprompt.Resume, arg any) any {
		cell := mprompt.Data(h).(*S)
		*cell = arg.(S)
		return r.Resume(struct{}{})
	}, v)
}

// Modify applies f to the current state and returns the new value.
func (st State[S]) Modify(f func(S) S) S {
	h := st.site.Find(st.kind)
	return st.site.YieldTo(h, func(r *mprompt.Resume, arg any) any {
		cell := mprompt.Data(h).(*S)
		*cell = f(*cell)
		return r.Resume(*cell)
	}, nil).(S)
}
