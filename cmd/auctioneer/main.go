package main

import (
	"flag"
	"net/http"
	"os"
	"time"

	"code.cloudfoundry.org/clock"
	"code.cloudfoundry.org/lager/v3"
	"code.cloudfoundry.org/lager/v3/lagerflags"
	"code.cloudfoundry.org/workpool"
	"github.com/marketsim/auction/auctionrunner"
	"github.com/marketsim/auction/auctiontypes"
	"github.com/marketsim/auction/catalog"
	"github.com/marketsim/auction/communication/http/intake"
	"github.com/marketsim/auction/communication/nats/nats_mailbox"
	"github.com/marketsim/auction/config"
	"github.com/marketsim/auction/directory"
	"github.com/nats-io/nats.go"
	"github.com/tedsuo/ifrit"
	"github.com/tedsuo/ifrit/grouper"
	"github.com/tedsuo/ifrit/http_server"
	"github.com/tedsuo/ifrit/sigmon"
)

var configPath = flag.String("config", "", "path to the auctioneer's JSON config")
var communicationTimeout = flag.Duration("communicationTimeout", 10*time.Second, "timeout for directory requests")

type resultLogger struct {
	logger lager.Logger
}

func (r resultLogger) AuctionCompleted(result auctiontypes.AuctionResult) {
	r.logger.Info("auction-completed", lager.Data{
		"item":     result.Item.Name,
		"status":   result.Status,
		"winner":   result.Winner,
		"price":    result.Price,
		"rounds":   result.NumRounds,
		"bids":     result.Bids.Len(),
		"duration": result.Duration.String(),
	})
}

func main() {
	flag.Parse()

	if *configPath == "" {
		panic("need config")
	}

	cfg := config.DefaultAuctioneerConfig()
	err := config.Load(*configPath, &cfg)
	if err != nil {
		panic(err)
	}

	logger, _ := lagerflags.NewFromConfig("auctioneer", cfg.LagerConfig)

	conn, err := nats.Connect(cfg.NATSAddress, nats.Name(cfg.PartyID))
	if err != nil {
		logger.Fatal("failed-to-connect-to-nats", err)
	}
	defer conn.Close()

	workPool, err := workpool.NewWorkPool(50)
	if err != nil {
		logger.Fatal("failed-to-create-work-pool", err)
	}
	defer workPool.Stop()

	channel := nats_mailbox.New(conn, cfg.PartyID, workPool, logger)
	directoryClient := directory.NewClient(&http.Client{Timeout: *communicationTimeout}, cfg.DirectoryURL, logger)

	batch := auctionrunner.NewBatch()
	batch.AddItems(cfg.Items)

	coordinator := auctionrunner.NewCoordinator(
		auctionrunner.CoordinatorConfig{
			PartyID:      cfg.PartyID,
			Mechanism:    cfg.Mechanism,
			RoundTimeout: time.Duration(cfg.RoundTimeout),
			PollInterval: time.Duration(cfg.PollInterval),
		},
		catalog.New(),
		directoryClient,
		channel,
		batch,
		resultLogger{logger: logger.Session("results")},
		clock.NewClock(),
		logger,
	)

	intakeHandler, err := intake.NewHandler(batch, logger)
	if err != nil {
		logger.Fatal("failed-to-build-intake-handler", err)
	}

	members := grouper.Members{
		{Name: "nats-mailbox", Runner: channel},
		{Name: "coordinator", Runner: coordinator},
		{Name: "intake", Runner: http_server.New(cfg.ListenAddress, intakeHandler)},
	}

	monitor := ifrit.Invoke(sigmon.New(grouper.NewOrdered(os.Interrupt, members)))
	logger.Info("started", lager.Data{"intake-address": cfg.ListenAddress})

	err = <-monitor.Wait()
	if err != nil {
		logger.Error("exited-with-failure", err)
		os.Exit(1)
	}

	logger.Info("exited")
}
