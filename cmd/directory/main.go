package main

import (
	"flag"
	"os"

	"code.cloudfoundry.org/lager/v3"
	"code.cloudfoundry.org/lager/v3/lagerflags"
	"github.com/marketsim/auction/config"
	"github.com/marketsim/auction/directory"
	"github.com/tedsuo/ifrit"
	"github.com/tedsuo/ifrit/http_server"
	"github.com/tedsuo/ifrit/sigmon"
)

var configPath = flag.String("config", "", "path to the directory's JSON config")

func main() {
	flag.Parse()

	cfg := config.DefaultDirectoryConfig()
	if *configPath != "" {
		err := config.Load(*configPath, &cfg)
		if err != nil {
			panic(err)
		}
	}

	logger, _ := lagerflags.NewFromConfig("directory", cfg.LagerConfig)

	handler, err := directory.NewHandler(directory.NewRegistry(), logger)
	if err != nil {
		logger.Fatal("failed-to-build-handler", err)
	}

	monitor := ifrit.Invoke(sigmon.New(http_server.New(cfg.ListenAddress, handler)))
	logger.Info("listening", lager.Data{"address": cfg.ListenAddress})

	err = <-monitor.Wait()
	if err != nil {
		logger.Error("exited-with-failure", err)
		os.Exit(1)
	}

	logger.Info("exited")
}
