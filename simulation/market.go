package simulation

import (
	"os"
	"sync"
	"time"

	"code.cloudfoundry.org/clock"
	"code.cloudfoundry.org/lager/v3"
	"code.cloudfoundry.org/workpool"
	"github.com/marketsim/auction/auctionrep"
	"github.com/marketsim/auction/auctionrunner"
	"github.com/marketsim/auction/auctiontypes"
	"github.com/marketsim/auction/catalog"
	"github.com/marketsim/auction/communication/inprocess"
	"github.com/marketsim/auction/config"
	"github.com/marketsim/auction/directory"
	"github.com/marketsim/auction/simulation/visualization"
	"github.com/marketsim/auction/util"
	"github.com/tedsuo/ifrit"
	"github.com/tedsuo/ifrit/grouper"
)

const AuctioneerID = "auctioneer"

// Market wires one coordinator and a crowd of bidders together over an
// in-process post office and registry.
type Market struct {
	config config.SimulationConfig
	clock  clock.Clock
	logger lager.Logger

	postOffice  *inprocess.PostOffice
	registry    *directory.Registry
	catalog     *catalog.Catalog
	batch       *auctionrunner.Batch
	coordinator *auctionrunner.Coordinator
	collector   *ResultCollector
	agents      []*auctionrep.Agent
	budgets     map[string]int
}

func NewMarket(cfg config.SimulationConfig, clock clock.Clock, logger lager.Logger) *Market {
	logger = logger.Session("market", lager.Data{"mechanism": cfg.Mechanism, "bidders": cfg.NumBidders})

	postOffice := inprocess.NewPostOffice(clock, logger)
	if cfg.LatencyMax > 0 {
		postOffice.SetLatency(inprocess.Latency{
			Min: time.Duration(cfg.LatencyMin),
			Max: time.Duration(cfg.LatencyMax),
		}, randSource(cfg.Seed, -1))
	}

	m := &Market{
		config:     cfg,
		clock:      clock,
		logger:     logger,
		postOffice: postOffice,
		registry:   directory.NewRegistry(),
		catalog:    catalog.New(),
		batch:      auctionrunner.NewBatch(),
		collector:  NewResultCollector(distinctItems(cfg.Items)),
		budgets:    map[string]int{},
	}

	m.coordinator = auctionrunner.NewCoordinator(
		auctionrunner.CoordinatorConfig{
			PartyID:      AuctioneerID,
			Mechanism:    cfg.Mechanism,
			RoundTimeout: time.Duration(cfg.RoundTimeout),
			PollInterval: time.Duration(cfg.PollInterval),
		},
		m.catalog,
		m.registry,
		postOffice.Connect(AuctioneerID),
		m.batch,
		m.collector,
		clock,
		logger,
	)

	budgetSource := randSource(cfg.Seed, 0)
	for i := 0; i < cfg.NumBidders; i++ {
		id := util.NewGuid("bidder")
		budget := util.RandomIntIn(budgetSource, cfg.Budget.Min, cfg.Budget.Max)
		bidder := auctionrep.NewBidder(id, budget, cfg.Strategy, cfg.ParticipationOdds, randSource(cfg.Seed, i+1), logger)

		m.budgets[id] = budget
		m.agents = append(m.agents, auctionrep.NewAgent(bidder, cfg.Mechanism, m.registry, postOffice.Connect(id), logger))
	}

	return m
}

// Runner starts the bidders, then the coordinator. The group exits once
// every item has been resolved or every bidder has left.
func (m *Market) Runner() ifrit.Runner {
	return grouper.NewOrdered(os.Interrupt, grouper.Members{
		{Name: "bidders", Runner: ifrit.RunFunc(m.runBidders)},
		{Name: "coordinator", Runner: m.coordinator},
		{Name: "results", Runner: ifrit.RunFunc(m.awaitResults)},
	})
}

// Simulate submits the configured items and runs the market until it
// settles or the deadline passes.
func (m *Market) Simulate() (*visualization.Report, error) {
	startTime := m.clock.Now()
	m.batch.AddItems(m.config.Items)

	process := ifrit.Invoke(m.Runner())

	var err error
	if m.config.Deadline > 0 {
		select {
		case err = <-process.Wait():
		case <-m.clock.After(time.Duration(m.config.Deadline)):
			m.logger.Info("deadline-reached", lager.Data{"results": len(m.collector.Results())})
			process.Signal(os.Interrupt)
			err = <-process.Wait()
		}
	} else {
		err = <-process.Wait()
	}

	if err != nil {
		m.logger.Error("market-exited-with-error", err)
		return nil, err
	}

	return m.Report(m.clock.Since(startTime))
}

func (m *Market) Report(duration time.Duration) (*visualization.Report, error) {
	bidders, err := m.fetchBidderSummaries()
	if err != nil {
		return nil, err
	}

	return visualization.NewReport(
		m.config.Mechanism,
		m.collector.Results(),
		m.unauctioned(),
		bidders,
		duration,
	), nil
}

// unauctioned lists the catalog's leftovers followed by anything the
// coordinator never drained from the batch.
func (m *Market) unauctioned() []auctiontypes.Item {
	items := m.catalog.Items()
	for _, item := range m.batch.DedupeAndDrain() {
		if !containsItem(items, item.Name) {
			items = append(items, item)
		}
	}
	return items
}

func (m *Market) Registry() *directory.Registry {
	return m.registry
}

func (m *Market) Agents() []*auctionrep.Agent {
	return m.agents
}

func (m *Market) runBidders(signals <-chan os.Signal, ready chan<- struct{}) error {
	processes := make([]ifrit.Process, 0, len(m.agents))
	for _, agent := range m.agents {
		processes = append(processes, ifrit.Invoke(agent))
	}
	close(ready)

	allExited := make(chan struct{})
	go func() {
		for _, process := range processes {
			<-process.Wait()
		}
		close(allExited)
	}()

	select {
	case <-signals:
		for _, process := range processes {
			process.Signal(os.Interrupt)
		}
		<-allExited
	case <-allExited:
		m.logger.Info("all-bidders-left")
	}

	return nil
}

func (m *Market) awaitResults(signals <-chan os.Signal, ready chan<- struct{}) error {
	close(ready)

	select {
	case <-signals:
	case <-m.collector.Done():
		m.logger.Info("all-items-resolved", lager.Data{"results": len(m.collector.Results())})
	}

	return nil
}

func (m *Market) fetchBidderSummaries() ([]visualization.BidderSummary, error) {
	workPool, err := workpool.NewWorkPool(8)
	if err != nil {
		return nil, err
	}
	defer workPool.Stop()

	wg := &sync.WaitGroup{}
	wg.Add(len(m.agents))
	lock := &sync.Mutex{}
	summaries := make([]visualization.BidderSummary, len(m.agents))

	for i, agent := range m.agents {
		i := i
		bidder := agent.Bidder()
		workPool.Submit(func() {
			summary := visualization.BidderSummary{
				ID:             bidder.ID(),
				StartingBudget: m.budgets[bidder.ID()],
				Budget:         bidder.Budget(),
				Won:            bidder.Won(),
			}
			lock.Lock()
			summaries[i] = summary
			lock.Unlock()
			wg.Done()
		})
	}
	wg.Wait()

	return summaries, nil
}

func randSource(seed int64, offset int) util.RandSource {
	if seed == 0 {
		return util.NewEntropySource(offset)
	}
	return util.NewRandSource(seed + int64(offset))
}

func containsItem(items []auctiontypes.Item, name string) bool {
	for _, item := range items {
		if item.Name == name {
			return true
		}
	}
	return false
}

func distinctItems(items []auctiontypes.Item) int {
	names := map[string]bool{}
	for _, item := range items {
		names[item.Name] = true
	}
	return len(names)
}
