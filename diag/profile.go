// Package diag exports a pprof-format snapshot of a Site's gstacks: how
// many are idle in the pool versus checked out, and which handler kinds
// are currently visible on the calling goroutine's shadow stack. Grounded
// on dispatchrun-wzprof/pprof.go's use of *profile.Profile to represent
// and serve a profile, trimmed to the parts that apply without an HTTP
// server or a WASM guest to sample instructions from.
package diag

import (
	"io"
	"time"

	"github.com/google/pprof/profile"

	"code.hybscloud.com/mprompt/mprompt"
)

// Snapshot builds a single-sample-type pprof profile describing site's
// gstack usage: one sample per handler kind currently visible on the
// calling goroutine's shadow stack (value 1 each), plus two summary
// samples, "idle" and "in_use", from the gstack provider's own counters.
func Snapshot(site *mprompt.Site) *profile.Profile {
	p := &profile.Profile{
		SampleType: []*profile.ValueType{
			{Type: "inuse_gstacks", Unit: "count"},
		},
		PeriodType: &profile.ValueType{Type: "inuse_gstacks", Unit: "count"},
		Period:     1,
		TimeNanos:  0,
	}

	funcs := map[string]*profile.Function{}
	nextFuncID := uint64(1)
	nextLocID := uint64(1)

	locationFor := func(name string) *profile.Location {
		fn, ok := funcs[name]
		if !ok {
			fn = &profile.Function{ID: nextFuncID, Name: name}
			funcs[name] = fn
			p.Function = append(p.Function, fn)
			nextFuncID++
		}
		loc := &profile.Location{
			ID:   nextLocID,
			Line: []profile.Line{{Function: fn}},
		}
		nextLocID++
		p.Location = append(p.Location, loc)
		return loc
	}

	for _, kind := range site.ActiveKinds() {
		loc := locationFor("kind:" + kind)
		p.Sample = append(p.Sample, &profile.Sample{
			Location: []*profile.Location{loc},
			Value:    []int64{1},
		})
	}

	idle, everSpawned := site.GstackStats()
	inUse := int64(everSpawned) - int64(idle)

	p.Sample = append(p.Sample,
		&profile.Sample{
			Location: []*profile.Location{locationFor("gstack:idle")},
			Value:    []int64{int64(idle)},
		},
		&profile.Sample{
			Location: []*profile.Location{locationFor("gstack:in_use")},
			Value:    []int64{inUse},
		},
	)

	return p
}

// Write takes a Snapshot of site and writes it to w in pprof's gzip-encoded
// binary format, the same format runtime/pprof and net/http/pprof produce.
func Write(w io.Writer, site *mprompt.Site) error {
	p := Snapshot(site)
	p.TimeNanos = snapshotTime().UnixNano()
	return p.Write(w)
}

// snapshotTime is a seam so code inside package diag that needs
// byte-for-byte reproducible output (golden test files) can override it; Write
// itself always wants the real wall clock.
var snapshotTime = time.Now
