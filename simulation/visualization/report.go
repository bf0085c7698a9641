package visualization

import (
	"time"

	"github.com/GaryBoone/GoStats/stats"
	"github.com/marketsim/auction/auctiontypes"
)

type BidderSummary struct {
	ID             string                    `json:"id"`
	StartingBudget int                       `json:"starting_budget"`
	Budget         int                       `json:"budget"`
	Won            []auctiontypes.Settlement `json:"won"`
}

func (b BidderSummary) Spent() int {
	return b.StartingBudget - b.Budget
}

type Report struct {
	Mechanism   auctiontypes.Mechanism       `json:"mechanism"`
	Results     []auctiontypes.AuctionResult `json:"results"`
	Unauctioned []auctiontypes.Item          `json:"unauctioned"`
	Bidders     []BidderSummary              `json:"bidders"`
	Duration    time.Duration                `json:"duration"`
}

type Stat struct {
	Min    float64
	Max    float64
	Mean   float64
	StdDev float64
	Total  float64
}

func NewStat(data []float64) Stat {
	if len(data) == 0 {
		return Stat{}
	}

	return Stat{
		Min:    stats.StatsMin(data),
		Max:    stats.StatsMax(data),
		Mean:   stats.StatsMean(data),
		StdDev: stats.StatsPopulationStandardDeviation(data),
		Total:  stats.StatsSum(data),
	}
}

func NewReport(
	mechanism auctiontypes.Mechanism,
	results []auctiontypes.AuctionResult,
	unauctioned []auctiontypes.Item,
	bidders []BidderSummary,
	duration time.Duration,
) *Report {
	return &Report{
		Mechanism:   mechanism,
		Results:     results,
		Unauctioned: unauctioned,
		Bidders:     bidders,
		Duration:    duration,
	}
}

func (r *Report) NumAuctions() int {
	return len(r.Results)
}

func (r *Report) NumSold() int {
	return len(r.Sold())
}

func (r *Report) NumUnsold() int {
	return len(r.Results) - r.NumSold()
}

func (r *Report) Sold() []auctiontypes.AuctionResult {
	sold := []auctiontypes.AuctionResult{}
	for _, result := range r.Results {
		if result.Status == auctiontypes.ResultSold {
			sold = append(sold, result)
		}
	}
	return sold
}

func (r *Report) AuctionsPerSecond() float64 {
	if r.Duration <= 0 {
		return 0
	}
	return float64(r.NumAuctions()) / r.Duration.Seconds()
}

func (r *Report) PriceStats() Stat {
	prices := []float64{}
	for _, result := range r.Sold() {
		prices = append(prices, float64(result.Price))
	}
	return NewStat(prices)
}

// MarkupStats measures each sale price against the item's initial price.
// Items offered at zero are left out.
func (r *Report) MarkupStats() Stat {
	markups := []float64{}
	for _, result := range r.Sold() {
		if result.Item.InitialPrice > 0 {
			markups = append(markups, float64(result.Price)/float64(result.Item.InitialPrice))
		}
	}
	return NewStat(markups)
}

func (r *Report) RoundStats() Stat {
	rounds := []float64{}
	for _, result := range r.Results {
		rounds = append(rounds, float64(result.NumRounds))
	}
	return NewStat(rounds)
}

func (r *Report) BidStats() Stat {
	bids := []float64{}
	for _, result := range r.Results {
		bids = append(bids, float64(result.Bids.Len()))
	}
	return NewStat(bids)
}

func (r *Report) DurationStats() Stat {
	durations := []float64{}
	for _, result := range r.Results {
		durations = append(durations, result.Duration.Seconds())
	}
	return NewStat(durations)
}

func (r *Report) SpendStats() Stat {
	spent := []float64{}
	for _, bidder := range r.Bidders {
		spent = append(spent, float64(bidder.Spent()))
	}
	return NewStat(spent)
}

func (r *Report) BidAmountStats() Stat {
	amounts := []float64{}
	for _, result := range r.Results {
		amounts = append(amounts, result.Bids.Amounts()...)
	}
	return NewStat(amounts)
}
