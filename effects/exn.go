package effects

import (
	"code.hybscloud.com/mprompt/mprompt"
	"code.hybscloud.com/mprompt/shadow"
)

// Either represents a value that is either an error of type E or a result
// of type A. Grounded on the teacher's error.go Either, trimmed to the
// operations Exn actually needs.
type Either[E, A any] struct {
	ok  bool
	err E
	val A
}

// Ok wraps a successful result.
func Ok[E, A any](a A) Either[E, A] { return Either[E, A]{ok: true, val: a} }

// Fail wraps an error.
func Fail[E, A any](e E) Either[E, A] { return Either[E, A]{err: e} }

// IsOk reports whether this is a successful result.
func (e Either[E, A]) IsOk() bool { return e.ok }

// Value returns the success value. Zero if this is a Fail.
func (e Either[E, A]) Value() A { return e.val }

// Err returns the error value. Zero if this is an Ok.
func (e Either[E, A]) Err() E { return e.err }

// Exn is a handle to a running Exn[E] prompt. Unlike State and Reader, this
// handler never resumes the computation that threw (spec.md §8 scenario 2,
// "Exception"): Throw's yield is answered by a handler that returns its
// Either directly instead of calling Resume, so the body past the throw
// never runs again — the mirror image of State and Reader, which always
// resume. See mprompt's TestExceptionNeverResumes for the primitive this is
// built on.
type Exn[E any] struct {
	site *mprompt.Site
	kind shadow.Kind
}

// RunExn installs a fresh Exn[E] prompt and runs body under it, catching any
// Throw reaching this prompt's handler and returning it as the Fail half of
// the result. Grounded on the teacher's RunError, restructured around
// YieldTo instead of a Cont/Handler dispatch loop.
func RunExn[E, A any](s *mprompt.Site, body func(ex Exn[E]) A) Either[E, A] {
	kind := shadow.NewKind("effects.Exn")

	result := s.Prompt(kind,
		func() any { return nil },
		func(hdata, arg any) any {
			return Ok[E, A](body(Exn[E]{site: s, kind: kind}))
		},
		func(hdata, arg any) any { return arg },
		nil,
	)

	return result.(Either[E, A])
}

// Throw raises err, unwinding to the nearest enclosing Exn[E] prompt without
// ever returning to its caller: the handler installed by RunExn drops the
// suspended computation — running every defer and FINALLY frame between the
// Throw call and the Exn prompt's own boundary, and releasing the gstack it
// was parked on — then answers with Fail(err) directly, which becomes that
// prompt's own result, so nothing after Throw in body ever executes. The A
// return type exists only so Throw can appear in positions a value of that
// type is expected; it is never actually produced.
func Throw[E, A any](ex Exn[E], err E) A {
	h := ex.site.Find(ex.kind)
	v := ex.site.YieldTo(h, func(r *mprompt.Resume, arg any) any {
		r.Drop()
		return Fail[E, A](arg.(E))
	}, err)
	return v.(A)
}

// Catch runs body and, if it (or anything it calls) Throws an E that
// reaches ex's prompt, applies handler to the error instead of propagating
// it further. Grounded on the teacher's Catch/DispatchError, which likewise
// runs the body through an internal RunError and only re-raises on a second
// unhandled Throw from handler itself.
func Catch[E, A any](s *mprompt.Site, body func(Exn[E]) A, handler func(E) A) A {
	result := RunExn[E, A](s, body)
	if result.IsOk() {
		return result.Value()
	}
	return handler(result.Err())
}
