package visualization

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/marketsim/auction/auctiontypes"
)

const defaultStyle = "\x1b[0m"
const boldStyle = "\x1b[1m"
const redColor = "\x1b[91m"
const greenColor = "\x1b[32m"
const yellowColor = "\x1b[33m"
const cyanColor = "\x1b[36m"
const grayColor = "\x1b[90m"

func PrintReport(w io.Writer, report *Report) {
	if report.NumAuctions() == 0 {
		fmt.Fprintln(w, "Got no results!")
		printUnauctioned(w, report)
		return
	}

	fmt.Fprintf(w, "%sFinished %d %s auctions (%d sold, %d unsold) among %d bidders in %s%s\n",
		boldStyle, report.NumAuctions(), report.Mechanism, report.NumSold(), report.NumUnsold(), len(report.Bidders), report.Duration, defaultStyle)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Auctions")
	nameWidth := 0
	for _, result := range report.Results {
		if len(result.Item.Name) > nameWidth {
			nameWidth = len(result.Item.Name)
		}
	}
	nameFormat := fmt.Sprintf("%%%ds", nameWidth)

	for _, result := range report.Results {
		name := fmt.Sprintf(nameFormat, result.Item.Name)
		switch result.Status {
		case auctiontypes.ResultSold:
			fmt.Fprintf(w, "  %s: %ssold%s to %s for %d (offered at %d, %d rounds, %d bids)\n",
				name, greenColor, defaultStyle, result.Winner, result.Price, result.Item.InitialPrice, result.NumRounds, result.Bids.Len())
		case auctiontypes.ResultNotAvailable:
			fmt.Fprintf(w, "  %s: %snot available%s (%d rounds)\n", name, yellowColor, defaultStyle, result.NumRounds)
		default:
			fmt.Fprintf(w, "  %s: %sunsold%s (offered at %d, %d rounds)\n", name, redColor, defaultStyle, result.Item.InitialPrice, result.NumRounds)
		}
	}
	printUnauctioned(w, report)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Bidders")
	bidders := append([]BidderSummary{}, report.Bidders...)
	sort.Slice(bidders, func(i, j int) bool { return bidders[i].Spent() > bidders[j].Spent() })
	for _, bidder := range bidders {
		won := []string{}
		for _, settlement := range bidder.Won {
			won = append(won, fmt.Sprintf("%s@%d", settlement.ItemName, settlement.Price))
		}
		fmt.Fprintf(w, "  %s: spent %d of %d %s%s%s\n",
			bidder.ID, bidder.Spent(), bidder.StartingBudget, cyanColor, strings.Join(won, " "), defaultStyle)
	}
	fmt.Fprintln(w)

	printStat(w, "Prices:", report.PriceStats())
	printStat(w, "Markup:", report.MarkupStats())
	printStat(w, "Rounds:", report.RoundStats())
	printStat(w, "Bids:", report.BidStats())
	printStat(w, "Bid Amounts:", report.BidAmountStats())
	printStat(w, "Spend:", report.SpendStats())

	durations := report.DurationStats()
	fmt.Fprintf(w, "%14s  Min: %14.3fs | Max: %14.3fs | Mean: %14.3fs | %.2f a/s\n",
		"Durations:", durations.Min, durations.Max, durations.Mean, report.AuctionsPerSecond())
}

func printStat(w io.Writer, label string, stat Stat) {
	fmt.Fprintf(w, "%14s  Min: %14.2f | Max: %14.2f | Mean: %14.2f | StdDev: %10.2f | Total: %14.2f\n",
		label, stat.Min, stat.Max, stat.Mean, stat.StdDev, stat.Total)
}

func printUnauctioned(w io.Writer, report *Report) {
	if len(report.Unauctioned) == 0 {
		return
	}

	names := []string{}
	for _, item := range report.Unauctioned {
		names = append(names, item.Name)
	}
	fmt.Fprintf(w, "%s!!!!NEVER AUCTIONED!!!! %s%s\n", grayColor, strings.Join(names, ", "), defaultStyle)
}
