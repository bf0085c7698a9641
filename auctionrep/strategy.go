package auctionrep

import (
	"fmt"

	"github.com/marketsim/auction/auctiontypes"
	"github.com/marketsim/auction/util"
)

type Strategy string

const (
	// Ascending draws from [initialPrice, budget].
	Ascending Strategy = "ascending"
	// AscendingScaled draws from [initialPrice, budget + budget/2].
	AscendingScaled Strategy = "ascending-scaled"
	// Sealed offers initialPrice plus a draw from [1, budget].
	Sealed Strategy = "sealed"
	// SealedHalf offers initialPrice plus a draw from [1, budget/2].
	SealedHalf Strategy = "sealed-half"
	// SealedDoubled offers initialPrice plus twice a draw from [1, budget/2].
	SealedDoubled Strategy = "sealed-doubled"
)

func (s Strategy) Validate() error {
	switch s {
	case Ascending, AscendingScaled, Sealed, SealedHalf, SealedDoubled:
		return nil
	}
	return fmt.Errorf("unknown bidding strategy %q", s)
}

func DefaultStrategy(mechanism auctiontypes.Mechanism) Strategy {
	if mechanism == auctiontypes.SecondPrice {
		return SealedHalf
	}
	return Ascending
}

// DefaultParticipationOdds is N in "joins one auction round in N".
func DefaultParticipationOdds(mechanism auctiontypes.Mechanism) int {
	if mechanism == auctiontypes.SecondPrice {
		return 1
	}
	return 2
}

// drawSpan describes the candidate offers base + step*k for k in [lo, hi].
type drawSpan struct {
	base, step int
	lo, hi     int
}

func (s Strategy) span(initialPrice, budget int) drawSpan {
	switch s {
	case AscendingScaled:
		return drawSpan{base: 0, step: 1, lo: initialPrice, hi: budget + budget/2}
	case Sealed:
		return drawSpan{base: initialPrice, step: 1, lo: 1, hi: budget}
	case SealedHalf:
		return drawSpan{base: initialPrice, step: 1, lo: 1, hi: budget / 2}
	case SealedDoubled:
		return drawSpan{base: initialPrice, step: 2, lo: 1, hi: budget / 2}
	}
	return drawSpan{base: 0, step: 1, lo: initialPrice, hi: budget}
}

func (d drawSpan) draw(src util.RandSource) int {
	return d.base + d.step*util.RandomIntIn(src, d.lo, d.hi)
}

// admits reports whether some candidate satisfies previous < offer <= budget.
func (d drawSpan) admits(previous, budget int) bool {
	if d.hi < d.lo {
		return false
	}

	k := d.lo
	if need := floorDiv(previous-d.base, d.step) + 1; need > k {
		k = need
	}
	return k <= d.hi && d.base+d.step*k <= budget
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
