// Package mprompt implements the prompt runtime and the handler shadow
// stack on top of it: prompt, yield_to/myield_to, resume/resume_tail/
// resume_drop, under, and mask. It is gstack-backed (see package gstack)
// and keeps per-thread state explicit in a *Site rather than in real
// thread-local storage, per spec.md §9's "the observable contract is
// unchanged" allowance.
package mprompt

import (
	"code.hybscloud.com/mprompt/gstack"
	"code.hybscloud.com/mprompt/shadow"
)

// Site bundles the state that must stay bound to exactly one logical
// thread: the shadow-stack top and the gstack cache. Construct one per
// thread and never hand it to a goroutine that did not originate from a
// call on it — the runtime does not check this, matching spec.md §5.
type Site struct {
	top     *shadow.Handler
	stacks  *gstack.Provider
	current *Prompt // the innermost prompt whose body is executing right now
}

// NewSite returns an empty Site with its own gstack provider.
func NewSite() *Site {
	return &Site{stacks: gstack.NewProvider()}
}

// Close releases every idle gstack this Site has cached. Prompts still
// suspended when Close runs keep their goroutines until they are resumed,
// dropped, or unwound.
func (s *Site) Close() {
	s.stacks.Close()
}

// Top returns the current innermost handler, or nil.
func (s *Site) Top() *shadow.Handler {
	return s.top
}

// Parent returns h's parent, or the Site's current top when h is nil —
// matching spec.md §6.2's parent(h) contract.
func (s *Site) Parent(h *shadow.Handler) *shadow.Handler {
	if h == nil {
		return s.top
	}
	return h.Parent
}

// Kind returns h's kind.
func Kind(h *shadow.Handler) shadow.Kind { return h.Kind }

// Data returns h's handler-local state.
func Data(h *shadow.Handler) any { return h.HData }

// Find returns the innermost visible handler of kind, honoring under/mask
// scoping (spec §4.1).
func (s *Site) Find(kind shadow.Kind) *shadow.Handler {
	return shadow.Find(s.top, kind)
}

// ActiveKinds returns the sorted, de-duplicated diagnostic names of every
// frame on the shadow stack. Debug-only; see shadow.ActiveKinds.
func (s *Site) ActiveKinds() []string {
	return shadow.ActiveKinds(s.top)
}

// GstackStats reports s's gstack provider's idle count and the total
// number it has ever spawned. See gstack.Provider.Stats and package diag.
func (s *Site) GstackStats() (idle int, everSpawned uint64) {
	return s.stacks.Stats()
}

// LinearHandler implements spec §4.2: push a handler frame with no prompt
// for the dynamic extent of body(hdata, arg), popping it on every exit path
// including a panic-based unwind running through this goroutine.
func (s *Site) LinearHandler(kind shadow.Kind, hdata any, body func(hdata, arg any) any, arg any) any {
	frame := &shadow.Handler{Parent: s.top, Kind: kind, HData: hdata}
	s.top = frame
	defer func() { s.top = frame.Parent }()
	return body(hdata, arg)
}
