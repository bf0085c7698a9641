package main

import (
	"flag"
	"net/http"
	"os"
	"time"

	"code.cloudfoundry.org/lager/v3"
	"code.cloudfoundry.org/lager/v3/lagerflags"
	"code.cloudfoundry.org/workpool"
	"github.com/marketsim/auction/auctionrep"
	"github.com/marketsim/auction/communication/nats/nats_mailbox"
	"github.com/marketsim/auction/config"
	"github.com/marketsim/auction/directory"
	"github.com/marketsim/auction/util"
	"github.com/nats-io/nats.go"
	"github.com/tedsuo/ifrit"
	"github.com/tedsuo/ifrit/grouper"
	"github.com/tedsuo/ifrit/sigmon"
)

var configPath = flag.String("config", "", "path to the bidder's JSON config")
var partyID = flag.String("partyID", "", "party id used when the config omits one")
var communicationTimeout = flag.Duration("communicationTimeout", 10*time.Second, "timeout for directory requests")

func main() {
	flag.Parse()

	if *configPath == "" {
		panic("need config")
	}

	cfg := config.DefaultBidderConfig()
	if *partyID != "" {
		cfg.PartyID = *partyID
	}
	err := config.Load(*configPath, &cfg)
	if err != nil {
		panic(err)
	}

	logger, _ := lagerflags.NewFromConfig("bidder", cfg.LagerConfig)

	var rand util.RandSource = util.NewEntropySource(0)
	if cfg.Seed != 0 {
		rand = util.NewRandSource(cfg.Seed)
	}
	budget := util.RandomIntIn(rand, cfg.Budget.Min, cfg.Budget.Max)

	conn, err := nats.Connect(cfg.NATSAddress, nats.Name(cfg.PartyID))
	if err != nil {
		logger.Fatal("failed-to-connect-to-nats", err)
	}
	defer conn.Close()

	workPool, err := workpool.NewWorkPool(10)
	if err != nil {
		logger.Fatal("failed-to-create-work-pool", err)
	}
	defer workPool.Stop()

	channel := nats_mailbox.New(conn, cfg.PartyID, workPool, logger)
	directoryClient := directory.NewClient(&http.Client{Timeout: *communicationTimeout}, cfg.DirectoryURL, logger)

	bidder := auctionrep.NewBidder(cfg.PartyID, budget, cfg.Strategy, cfg.ParticipationOdds, rand, logger)
	agent := auctionrep.NewAgent(bidder, cfg.Mechanism, directoryClient, channel, logger)

	members := grouper.Members{
		{Name: "nats-mailbox", Runner: channel},
		{Name: "agent", Runner: agent},
	}

	monitor := ifrit.Invoke(sigmon.New(grouper.NewOrdered(os.Interrupt, members)))

	err = <-monitor.Wait()
	if err != nil {
		logger.Error("exited-with-failure", err)
		os.Exit(1)
	}

	logger.Info("exited", lager.Data{"budget": bidder.Budget(), "won": bidder.Won()})
}
