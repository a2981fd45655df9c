package main

import (
	"context"
	"errors"

	"github.com/urfave/cli/v2"

	"github.com/zaburoh/pointing"
	"github.com/zaburoh/pointing/adapter"
	"github.com/zaburoh/pointing/cmd/pointing/console"
	"github.com/zaburoh/pointing/optical"
)

var opticalCmd = cli.Command{
	Name:  "optical",
	Usage: "optical motion sensor operations",
	Subcommands: cli.Commands{
		&opticalIDCmd,
		&opticalWatchCmd,
	},
}

func opticalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "spi",
			Usage:   "spi port name",
			Value:   "/dev/spidev0.0",
			Aliases: []string{"s"},
		},
		&cli.StringFlag{
			Name:  "cs",
			Usage: "chip-select pin name",
			Value: "GPIO8",
		},
		&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}},
	}
}

var opticalIDCmd = cli.Command{
	Name:  "id",
	Usage: "reset the sensor and verify its identity",
	Flags: opticalFlags(),
	Action: func(c *cli.Context) error {
		ctx := console.SetVerbose(context.Background(), c.Bool("verbose"))
		bus, err := adapter.NewSPISession(c.String("spi"), c.String("cs"))
		if err != nil {
			return console.Exit(1, "bus initialization error: %s", console.Red(err))
		}
		defer func() { _ = bus.Close() }()

		dev := optical.NewPMW3360(bus)
		if err := dev.Init(ctx); err != nil {
			var idErr *pointing.IdentityError
			if errors.As(err, &idErr) {
				return console.Exit(1, "identity check failed: %s", console.Red(idErr))
			}
			return console.Exit(1, "bring-up failed: %s", console.Red(err))
		}
		console.PInfof(console.PictoMouse, "sensor identified and configured")
		return nil
	},
}

var opticalWatchCmd = cli.Command{
	Name:  "watch",
	Usage: "poll the sensor and print relative motion events",
	Flags: append(opticalFlags(),
		&cli.DurationFlag{Name: "duration", Usage: "stop after this long (0 = until interrupted)"},
	),
	Action: func(c *cli.Context) error {
		ctx := console.SetVerbose(context.Background(), c.Bool("verbose"))
		cfg, err := loadConfig(c)
		if err != nil {
			return console.Exit(1, "configuration error: %s", console.Red(err))
		}
		if c.IsSet("spi") {
			cfg.Optical.SPIDevice = c.String("spi")
		}
		if c.IsSet("cs") {
			cfg.Optical.CSPin = c.String("cs")
		}

		bus, err := adapter.NewSPISession(cfg.Optical.SPIDevice, cfg.Optical.CSPin)
		if err != nil {
			return console.Exit(1, "bus initialization error: %s", console.Red(err))
		}
		defer func() { _ = bus.Close() }()

		dev := optical.NewPMW3360(bus, optical.WithCPI(cfg.Optical.CPI))
		if err := dev.Init(ctx); err != nil {
			return console.Exit(1, "bring-up failed: %s", console.Red(err))
		}
		console.PInfof(console.PictoMouse, "polling every %s", cfg.Optical.PollInterval())
		return watch(c, dev.SampleMotion, cfg.Optical.PollInterval())
	},
}
