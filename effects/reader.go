package effects

import (
	"code.hybscloud.com/mprompt/mprompt"
	"code.hybscloud.com/mprompt/shadow"
)

// Reader is a handle to a running Reader[E] prompt, returned to body by
// RunReader. Ask yields to the prompt's own handler, which answers from the
// fixed environment RunReader installed it with.
type Reader[E any] struct {
	site *mprompt.Site
	kind shadow.Kind
}

// RunReader installs a fresh Reader[E] prompt carrying env and runs body
// with a handle to it. Grounded on the teacher's RunReader.
func RunReader[E, A any](s *mprompt.Site, env E, body func(rd Reader[E]) A) A {
	kind := shadow.NewKind("effects.Reader")

	result := s.Prompt(kind,
		func() any { return env },
		func(hdata, arg any) any {
			return body(Reader[E]{site: s, kind: kind})
		},
		func(hdata, arg any) any { return arg },
		nil,
	)

	return result.(A)
}

// Ask returns the environment.
func (rd Reader[E]) Ask() E {
	h := rd.site.Find(rd.kind)
	return rd.site.YieldTo(h, func(r *mprompt.Resume, arg any) any {
		return r.Resume(mprompt.Data(h).(E))
	}, nil).(E)
}
