package arm

// CaptureInput is everything the capture policy looks at.
type CaptureInput struct {
	PrevOn   bool // edge memory from the previous evaluation
	On       bool
	InReach  bool
	BinIndex int
	Bins     ObjectBar
	Held     *Object
}

// CaptureOutput is the result of one evaluation of the capture policy.
type CaptureOutput struct {
	Bins       ObjectBar
	Held       *Object
	EdgeMemory bool
}

// Transition applies the capture policy. Objects move only on capture flag
// edges: a rising edge within reach lifts the topmost object of the bin under
// the arm, a falling edge puts the held object into the bin under the arm.
// The input bar is never modified; the returned bar is a fresh copy whenever
// an object moved.
func Transition(in CaptureInput) CaptureOutput {
	out := CaptureOutput{
		Bins:       in.Bins,
		Held:       in.Held,
		EdgeMemory: in.On,
	}

	switch {
	case in.On && !in.PrevOn:
		if !in.InReach || in.Held != nil {
			return out
		}
		if in.BinIndex < 0 || in.BinIndex >= len(in.Bins) || len(in.Bins[in.BinIndex]) == 0 {
			return out
		}
		bins := in.Bins.Clone()
		obj, _ := bins.pop(in.BinIndex)
		out.Bins = bins
		out.Held = &obj

	case !in.On && in.Held != nil:
		if in.BinIndex < 0 || in.BinIndex >= len(in.Bins) {
			return out
		}
		bins := in.Bins.Clone()
		bins.push(in.BinIndex, *in.Held)
		out.Bins = bins
		out.Held = nil
	}

	return out
}
