package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"code.cloudfoundry.org/clock"
	"code.cloudfoundry.org/lager/v3/lagerflags"
	"github.com/marketsim/auction/config"
	"github.com/marketsim/auction/simulation"
	"github.com/marketsim/auction/simulation/visualization"
)

var configPath = flag.String("config", "", "path to the simulation's JSON config")
var jsonReportPath = flag.String("jsonReport", "", "write the report as JSON to this path")

func main() {
	flag.Parse()

	if *configPath == "" {
		panic("need config")
	}

	cfg := config.DefaultSimulationConfig()
	err := config.Load(*configPath, &cfg)
	if err != nil {
		panic(err)
	}

	logger, _ := lagerflags.NewFromConfig("simulate", cfg.LagerConfig)

	report, err := simulation.NewMarket(cfg, clock.NewClock(), logger).Simulate()
	if err != nil {
		logger.Fatal("simulation-failed", err)
	}

	visualization.PrintReport(os.Stdout, report)

	if cfg.SVGReportPath != "" {
		err = writeSVGReport(cfg.SVGReportPath, report)
		if err != nil {
			logger.Fatal("failed-to-write-svg-report", err)
		}
	}

	if *jsonReportPath != "" {
		data, err := json.Marshal(report)
		if err != nil {
			logger.Fatal("failed-to-marshal-report", err)
		}
		err = os.WriteFile(*jsonReportPath, data, 0644)
		if err != nil {
			logger.Fatal("failed-to-write-json-report", err)
		}
	}
}

func writeSVGReport(path string, report *visualization.Report) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	svgReport := visualization.NewSVGReport(f, 1, 1)
	svgReport.DrawHeader(fmt.Sprintf("%s auction - %d bidders", report.Mechanism, len(report.Bidders)))
	svgReport.DrawReportCard(0, 0, report)
	svgReport.Done()

	return f.Close()
}
