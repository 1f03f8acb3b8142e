package farm

// DutyCycle alternates a run phase and a rest phase against one deadline.
// A zero rest keeps the output running. Losing eligibility drops any phase
// in progress, so the next eligible window starts with a fresh run phase.
type DutyCycle struct {
	deadline uint64
	running  bool
	active   bool
}

// Step returns the output wanted at now and whether it has to be driven
// this tick. Run and rest are in milliseconds. While not eligible the
// output is always driven off.
func (d *DutyCycle) Step(now uint64, eligible bool, run, rest uint64) (on, drive bool) {
	if !eligible {
		d.Reset()
		return false, true
	}
	if d.active && now < d.deadline {
		return d.running, false
	}

	if !d.active || !d.running || rest == 0 {
		d.running = true
		d.deadline = now + run
	} else {
		d.running = false
		d.deadline = now + rest
	}
	d.active = true
	return d.running, true
}

func (d *DutyCycle) Reset() {
	*d = DutyCycle{}
}

// Running reports whether the current phase is a run phase.
func (d *DutyCycle) Running() bool { return d.active && d.running }
