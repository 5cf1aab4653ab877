package clock

import (
	"fmt"

	"dsiboot/internal/model"
)

// Dividers is a PLL setting: output = ref * FeedbackDiv / PreDiv.
type Dividers struct {
	PreDiv      uint64
	FeedbackDiv uint64
}

// Output is the DDR clock these dividers produce from ref.
func (d Dividers) Output(ref uint64) uint64 {
	return ref * d.FeedbackDiv / d.PreDiv
}

// PreDivRange returns the pre-dividers keeping ref/prediv within the PFD
// window: min = ceil(ref/40MHz) (at least 1), max = floor(ref/5MHz).
func PreDivRange(ref uint64) (lo, hi uint64) {
	lo = (ref + maxPFD - 1) / maxPFD
	if lo == 0 {
		lo = 1
	}
	return lo, ref / minPFD
}

// Solve searches for the pre-divider/feedback-divider pair whose output is
// closest to target without exceeding it.
//
// Candidates are pre-dividers in [min, max); when min == max the single
// valid pre-divider is used. The candidate with the strictly smallest
// remainder of target*prediv/ref wins, so ties keep the lower pre-divider.
// A candidate is only eligible when its feedback divider is in [1, 512).
func Solve(ref, target uint64) (Dividers, error) {
	lo, hi := PreDivRange(ref)
	if hi < lo {
		return Dividers{}, fmt.Errorf("clock: no pre-divider keeps %d Hz within 5-40 MHz: %w", ref, model.ErrInvalid)
	}
	if hi == lo {
		hi = lo + 1
	}

	var best Dividers
	remain := ref
	for pre := lo; pre < hi; pre++ {
		fb := target * pre / ref
		rem := target * pre % ref
		if rem < remain && fb >= 1 && fb < MaxFeedbackDiv {
			best = Dividers{PreDiv: pre, FeedbackDiv: fb}
			remain = rem
		}
	}
	if best.PreDiv == 0 {
		return Dividers{}, fmt.Errorf("clock: no feedback divider below %d reaches %d Hz from %d Hz: %w",
			MaxFeedbackDiv, target, ref, model.ErrInvalid)
	}
	return best, nil
}
