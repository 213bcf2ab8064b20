package shadow

// Handler is one frame of the shadow stack: a handler install, or one of
// the structural UNDER/MASK frames that under and mask push to scope
// visibility. Frames are singly linked through Parent and are never
// mutated except for Parent itself, which yield_to briefly rewires (see
// mprompt/yield.go) while a handler body runs unlinked from its own frame.
type Handler struct {
	Parent *Handler
	Kind   Kind
	HData  any

	// Prompt is the owning prompt for a prompt handler (nil for linear
	// handlers and for UNDER/MASK frames). Typed any to avoid an import
	// cycle; mprompt asserts it back to *mprompt.Prompt.
	Prompt any

	// Under is populated on UNDER frames: the kind the frame was installed
	// to jump past.
	Under Kind

	// Mask and From are populated on MASK frames: Mask is the kind being
	// hidden, From is the mask_level threshold at which this frame starts
	// contributing another hidden level.
	Mask Kind
	From int
}
