package visualization

import (
	"fmt"
	"io"
	"sort"

	"github.com/GaryBoone/GoStats/stats"
	svg "github.com/ajstarks/svgo"
	"github.com/marketsim/auction/auctiontypes"
)

const border = 5
const saleLabelWidth = 120
const saleBarWidth = 400
const saleBarHeight = 12
const saleBarSpacing = 2
const maxSaleRows = 40
const saleBoxWidth = saleLabelWidth + saleBarWidth
const saleBoxHeight = maxSaleRows*(saleBarHeight+saleBarSpacing) - saleBarSpacing

const headerHeight = 100

const graphWidth = 300
const graphTextX = 50
const graphBinX = 55
const binHeight = 14
const binSpacing = 2
const maxBinLength = graphWidth - graphBinX

const ReportCardWidth = border*3 + saleBoxWidth + graphWidth
const ReportCardHeight = border*3 + saleBoxHeight

type SVGReport struct {
	SVG    *svg.SVG
	sold   []float64
	total  []float64
	rounds []float64
	width  int
	height int
}

// NewSVGReport lays out a width by height grid of report cards.
func NewSVGReport(w io.Writer, width, height int) *SVGReport {
	s := svg.New(w)
	s.Start(width*ReportCardWidth, headerHeight+height*ReportCardHeight)
	return &SVGReport{
		SVG:    s,
		width:  width,
		height: height,
	}
}

func (r *SVGReport) Done() {
	r.drawResults()
	r.SVG.End()
}

func (r *SVGReport) DrawHeader(title string) {
	r.SVG.Text(border, 40, title, `text-anchor:start;font-size:32px;font-family:Helvetica Neue`)
}

func (r *SVGReport) drawResults() {
	sellThrough := 0.0
	if stats.StatsSum(r.total) > 0 {
		sellThrough = stats.StatsSum(r.sold) / stats.StatsSum(r.total) * 100
	}
	r.SVG.Text(border, 90, fmt.Sprintf("Sold: %.0f / %.0f (%.1f%%) | Rounds: %.0f", stats.StatsSum(r.sold), stats.StatsSum(r.total), sellThrough, stats.StatsSum(r.rounds)), `text-anchor:start;font-size:32px;font-family:Helvetica Neue`)
}

func (r *SVGReport) DrawReportCard(x, y int, report *Report) {
	r.SVG.Translate(x*ReportCardWidth, headerHeight+y*ReportCardHeight)

	r.drawSales(report)
	y = r.drawRoundsHistogram(report)
	y = r.drawMarkupHistogram(report, y+binSpacing*4)
	r.drawText(report, y+binSpacing*4)

	r.sold = append(r.sold, float64(report.NumSold()))
	r.total = append(r.total, float64(report.NumAuctions()+len(report.Unauctioned)))
	r.rounds = append(r.rounds, report.RoundStats().Total)

	r.SVG.Gend()
}

func (r *SVGReport) drawSales(report *Report) {
	maxPrice := 1
	for _, result := range report.Results {
		if result.Price > maxPrice {
			maxPrice = result.Price
		}
		if result.Item.InitialPrice > maxPrice {
			maxPrice = result.Item.InitialPrice
		}
	}
	scale := float64(saleBarWidth) / float64(maxPrice)

	y := border
	for i, result := range report.Results {
		if i == maxSaleRows {
			break
		}

		x := border + saleLabelWidth
		r.SVG.Text(x-4, y+saleBarHeight-2, result.Item.Name, `text-anchor:end;font-size:10px;font-family:Helvetica Neue`)
		r.SVG.Rect(x, y, saleBarWidth, saleBarHeight, "fill:#f7f7f7")
		r.SVG.Rect(x, y+1, int(float64(result.Item.InitialPrice)*scale), saleBarHeight-2, "fill:#ccc")
		if result.Status == auctiontypes.ResultSold {
			r.SVG.Rect(x, y+3, int(float64(result.Price)*scale), saleBarHeight-6, statusStyle(result.Status))
		} else {
			r.SVG.Rect(x, y+3, saleBarWidth, saleBarHeight-6, statusStyle(result.Status)+";fill-opacity:0.2")
		}
		y += saleBarHeight + saleBarSpacing
	}
}

func (r *SVGReport) drawRoundsHistogram(report *Report) int {
	rounds := []float64{}
	for _, result := range report.Results {
		rounds = append(rounds, float64(result.NumRounds))
	}
	sort.Float64s(rounds)

	bins := binUp([]float64{0, 1, 2, 3, 4, 5, 10, 20, 40, 1e9}, rounds)
	labels := []string{"1 round", "2 rounds", "3 rounds", "4 rounds", "5 rounds", "5-10", "10-20", "20-40", ">40"}

	r.SVG.Translate(border*2+saleBoxWidth, border)

	yBottom := r.drawHistogram(bins, labels)

	r.SVG.Gend()

	return yBottom + border
}

func (r *SVGReport) drawMarkupHistogram(report *Report, y int) int {
	markups := []float64{}
	for _, result := range report.Sold() {
		if result.Item.InitialPrice > 0 {
			markups = append(markups, float64(result.Price)/float64(result.Item.InitialPrice))
		}
	}
	sort.Float64s(markups)

	bins := binUp([]float64{0, 1, 1.1, 1.25, 1.5, 2, 3, 5, 10, 1e9}, markups)
	labels := []string{"<=1x", "1-1.1x", "1.1-1.25x", "1.25-1.5x", "1.5-2x", "2-3x", "3-5x", "5-10x", ">10x"}

	r.SVG.Translate(border*2+saleBoxWidth, y)

	yBottom := r.drawHistogram(bins, labels)

	r.SVG.Gend()

	return yBottom + y
}

func (r *SVGReport) drawText(report *Report, y int) {
	priceStats := report.PriceStats()
	roundStats := report.RoundStats()
	spendStats := report.SpendStats()

	unauctioned := ""
	if len(report.Unauctioned) > 0 {
		unauctioned = fmt.Sprintf("NEVER AUCTIONED %d", len(report.Unauctioned))
	}

	lines := []string{
		fmt.Sprintf("%s: %d over %d bidders %s", report.Mechanism, report.NumAuctions(), len(report.Bidders), unauctioned),
		fmt.Sprintf("%.2fs (%.2f a/s)", report.Duration.Seconds(), report.AuctionsPerSecond()),
		fmt.Sprintf("%d sold | %d unsold", report.NumSold(), report.NumUnsold()),
		fmt.Sprintf("%.0f Spent | %.1f ± %.1f | %.0f - %.0f", spendStats.Total, spendStats.Mean, spendStats.StdDev, spendStats.Min, spendStats.Max),
	}
	statLines := []string{
		"Prices",
		fmt.Sprintf("...%.0f | %.2f ± %.2f", priceStats.Total, priceStats.Mean, priceStats.StdDev),
		fmt.Sprintf("...%.0f - %.0f", priceStats.Min, priceStats.Max),
		"Rounds",
		fmt.Sprintf("...%.0f | %.2f ± %.2f", roundStats.Total, roundStats.Mean, roundStats.StdDev),
		fmt.Sprintf("...%.0f - %.0f", roundStats.Min, roundStats.Max),
	}

	r.SVG.Translate(border*2+saleBoxWidth, y)
	r.SVG.Gstyle("font-family:Helvetica Neue")
	r.SVG.Textlines(8, 8, lines, 16, 18, "#333", "start")
	r.SVG.Textlines(8, 88, statLines, 13, 16, "#333", "start")
	r.SVG.Gend()
	r.SVG.Gend()
}

func (r *SVGReport) drawHistogram(bins []float64, labels []string) int {
	y := 0
	for i, percentage := range bins {
		r.SVG.Rect(graphBinX, y, maxBinLength, binHeight, `fill:#eee`)
		r.SVG.Text(graphTextX, y+binHeight-4, labels[i], `text-anchor:end;font-size:10px;font-family:Helvetica Neue`)
		if percentage > 0 {
			r.SVG.Rect(graphBinX, y, int(percentage*float64(maxBinLength)), binHeight, `fill:#333`)
			r.SVG.Text(graphBinX+binSpacing, y+binHeight-4, fmt.Sprintf("%.1f%%", percentage*100.0), `text-anchor:start;font-size:10px;font-family:Helvetica Neue;fill:#fff`)
		}
		y += binHeight + binSpacing
	}

	return y
}

// binUp returns the fraction of sortedData falling in each (lo, hi] bin.
func binUp(binBoundaries []float64, sortedData []float64) []float64 {
	bins := make([]float64, len(binBoundaries)-1)
	if len(sortedData) == 0 {
		return bins
	}

	currentBin := 0
	for _, d := range sortedData {
		for currentBin < len(bins)-1 && binBoundaries[currentBin+1] < d {
			currentBin += 1
		}
		bins[currentBin] += 1
	}

	for i := range bins {
		bins[i] = bins[i] / float64(len(sortedData))
	}

	return bins
}

func statusStyle(status auctiontypes.ResultStatus) string {
	switch status {
	case auctiontypes.ResultSold:
		return "fill:seagreen;stroke:none"
	case auctiontypes.ResultNotAvailable:
		return "fill:orange;stroke:none"
	}
	return "fill:firebrick;stroke:none"
}
