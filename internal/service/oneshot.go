package service

// OneShot is a flag the device must observe exactly once per trigger.
// It has no lock of its own; callers serialize access.
type OneShot struct {
	pending bool
}

// Trigger marks the flag pending. Repeated triggers before delivery collapse into one.
func (o *OneShot) Trigger() {
	o.pending = true
}

// TryConsume returns the pending value and clears it in the same step.
func (o *OneShot) TryConsume() bool {
	v := o.pending
	o.pending = false
	return v
}

// Pending reports the flag without consuming it.
func (o *OneShot) Pending() bool {
	return o.pending
}
