package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/openquant-labs/gocta/backtester"
	"github.com/openquant-labs/gocta/backtester/config"
	"github.com/openquant-labs/gocta/engine"
	"github.com/openquant-labs/gocta/log"
)

func main() {
	app := &cli.App{
		Name:  "backtester",
		Usage: "replay recorded minute bars through a strategy and report the result",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to the backtest run configuration",
				Value:   "backtest.json",
			},
			&cli.StringFlag{
				Name:  "symbol",
				Usage: "canonical symbol to trade",
				Value: "ETH-USDT-SWAP",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "enable debug logging",
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	if c.Bool("verbose") {
		levels := log.SplitLevel("DEBUG|INFO|WARN|ERROR")
		for _, sl := range []*log.SubLogger{
			log.Global, log.EngineMgr, log.GatewayMgr, log.BackTester, log.Strategy,
		} {
			sl.SetLevels(levels)
		}
	}

	cfg, err := config.ReadConfigFromFile(c.String("config"))
	if err != nil {
		return err
	}
	if err = cfg.Validate(); err != nil {
		return err
	}

	gateway, err := backtester.New(cfg)
	if err != nil {
		return err
	}

	e := engine.New()
	e.AddGateway(gateway)
	e.AddStrategy(newDualMAStrategy(gateway, c.String("symbol")))

	if err = e.Start(); err != nil {
		return err
	}

	report := gateway.Report()
	if report == nil {
		return fmt.Errorf("replay produced no report")
	}
	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
