package effects

import (
	"code.hybscloud.com/mprompt/mprompt"
	"code.hybscloud.com/mprompt/shadow"
)

// Choice is a handle to a running Choice[A] prompt (spec.md §8 scenario 3,
// "Nondeterminism"): Flip yields once and its own handler resumes that one
// call twice, with true and then false, running body's continuation to
// completion each time and recording what it produces. Grounded on
// mprompt's TestChoiceMultiShot and on the teacher's Listen/Censor pattern
// of a handler running a body internally rather than delegating outward.
type Choice[A any] struct {
	site    *mprompt.Site
	kind    shadow.Kind
	results *[]A
}

// RunChoice installs a fresh Choice[A] prompt, runs body under it, and
// returns every value produced across both resumptions of body's Flip
// call. If body never calls Flip, the result is body's single return value.
func RunChoice[A any](s *mprompt.Site, body func(ch Choice[A]) A) []A {
	kind := shadow.NewKind("effects.Choice")
	var results []A
	ch := Choice[A]{site: s, kind: kind, results: &results}

	last := s.Prompt(kind,
		func() any { return nil },
		func(hdata, arg any) any {
			return body(ch)
		},
		func(hdata, arg any) any { return arg },
		nil,
	)

	if len(results) == 0 {
		results = append(results, last.(A))
	}
	return results
}

// Flip nondeterministically returns true, then false, to its caller: the
// code after Flip runs twice, once per value, each time as an independent
// continuation of the same point.
func (ch Choice[A]) Flip() bool {
	h := ch.site.Find(ch.kind)
	v := ch.site.MYieldTo(h, func(r *mprompt.Resume, arg any) any {
		*ch.results = append(*ch.results, r.Resume(true).(A))
		*ch.results = append(*ch.results, r.Resume(false).(A))
		return nil
	}, nil)
	return v.(bool)
}
