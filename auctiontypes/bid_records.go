package auctiontypes

type BidRecords []BidRecord

func (b BidRecords) Len() int { return len(b) }

func (b BidRecords) Bidders() []string {
	out := []string{}
	for _, r := range b {
		out = append(out, r.BidderID)
	}

	return out
}

func (b BidRecords) Amounts() []float64 {
	out := make([]float64, 0, len(b))
	for _, r := range b {
		out = append(out, float64(r.Amount))
	}

	return out
}

func (b BidRecords) ForRound(round int) BidRecords {
	out := BidRecords{}
	for _, r := range b {
		if r.Round == round {
			out = append(out, r)
		}
	}

	return out
}

// Highest returns the first record carrying the maximum amount.
func (b BidRecords) Highest() (BidRecord, bool) {
	if len(b) == 0 {
		return BidRecord{}, false
	}

	best := b[0]
	for _, r := range b[1:] {
		if r.Amount > best.Amount {
			best = r
		}
	}

	return best, true
}

// SecondHighestAmount returns the second largest amount, counting equal
// amounts separately. With a single record it returns that record's amount.
func (b BidRecords) SecondHighestAmount() (int, bool) {
	if len(b) == 0 {
		return 0, false
	}
	if len(b) == 1 {
		return b[0].Amount, true
	}

	first, second := b[0].Amount, b[1].Amount
	if second > first {
		first, second = second, first
	}
	for _, r := range b[2:] {
		switch {
		case r.Amount > first:
			first, second = r.Amount, first
		case r.Amount > second:
			second = r.Amount
		}
	}

	return second, true
}
