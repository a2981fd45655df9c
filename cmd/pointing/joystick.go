package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v2"
	"gobot.io/x/gobot/v2/platforms/firmata"

	"github.com/zaburoh/pointing"
	"github.com/zaburoh/pointing/adapter"
	"github.com/zaburoh/pointing/analog"
	"github.com/zaburoh/pointing/cmd/pointing/console"
	"github.com/zaburoh/pointing/config"
)

var joystickCmd = cli.Command{
	Name:  "joystick",
	Usage: "analog joystick operations",
	Subcommands: cli.Commands{
		&joystickCalibrateCmd,
		&joystickWatchCmd,
	},
}

func joystickFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "adapter",
			Usage:   "analog adapter (mcp2221, firmata)",
			Value:   "mcp2221",
			Aliases: []string{"a"},
		},
		&cli.StringFlag{
			Name:  "port",
			Usage: "serial port for the firmata adapter",
			Value: "/dev/ttyACM0",
		},
		&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}},
	}
}

func analogReader(c *cli.Context, cfg config.Joystick) (pointing.AnalogReader, error) {
	switch c.String("adapter") {
	case "mcp2221":
		return adapter.NewMCP2221(), nil
	case "firmata":
		board := firmata.NewAdaptor(c.String("port"))
		if err := board.Connect(); err != nil {
			return nil, fmt.Errorf("firmata connect: %w", err)
		}
		return adapter.NewGobotADC(board, map[uint8]string{
			cfg.XChannel: fmt.Sprintf("%d", cfg.XChannel),
			cfg.YChannel: fmt.Sprintf("%d", cfg.YChannel),
		}), nil
	default:
		return nil, fmt.Errorf("unknown adapter: %s", c.String("adapter"))
	}
}

func joystickFromConfig(reader pointing.AnalogReader, cfg config.Joystick) *analog.Joystick {
	return analog.NewJoystick(reader,
		analog.WithChannels(cfg.XChannel, cfg.YChannel),
		analog.WithDeadzone(cfg.Deadzone),
		analog.WithScaleDivisor(cfg.ScaleDivisor),
		analog.WithInvert(cfg.InvertX, cfg.InvertY),
	)
}

var joystickCalibrateCmd = cli.Command{
	Name:  "calibrate",
	Usage: "measure the at-rest baseline of both axes",
	Flags: joystickFlags(),
	Action: func(c *cli.Context) error {
		ctx := console.SetVerbose(context.Background(), c.Bool("verbose"))
		cfg, err := loadConfig(c)
		if err != nil {
			return console.Exit(1, "configuration error: %s", console.Red(err))
		}
		reader, err := analogReader(c, cfg.Joystick)
		if err != nil {
			return console.Exit(1, "adapter initialization error: %s", console.Red(err))
		}

		answer, err := console.YesOrNo("leave the stick at rest; start calibration?")
		if err != nil {
			return err
		}
		if answer != console.Yes {
			return nil
		}

		j := joystickFromConfig(reader, cfg.Joystick)
		if err := j.Init(ctx); err != nil {
			return console.Exit(1, "calibration failed: %s", console.Red(err))
		}
		x, y := j.Center()
		console.PInfof(console.PictoPin, "center x=%d y=%d", x, y)
		return nil
	},
}

var joystickWatchCmd = cli.Command{
	Name:  "watch",
	Usage: "poll the joystick and print relative motion events",
	Flags: append(joystickFlags(),
		&cli.DurationFlag{Name: "duration", Usage: "stop after this long (0 = until interrupted)"},
	),
	Action: func(c *cli.Context) error {
		ctx := console.SetVerbose(context.Background(), c.Bool("verbose"))
		cfg, err := loadConfig(c)
		if err != nil {
			return console.Exit(1, "configuration error: %s", console.Red(err))
		}
		reader, err := analogReader(c, cfg.Joystick)
		if err != nil {
			return console.Exit(1, "adapter initialization error: %s", console.Red(err))
		}

		j := joystickFromConfig(reader, cfg.Joystick)
		if err := j.Init(ctx); err != nil {
			return console.Exit(1, "bring-up failed: %s", console.Red(err))
		}
		x, y := j.Center()
		console.PInfof(console.PictoJoystick, "calibrated center x=%d y=%d, polling every %s",
			x, y, cfg.Joystick.PollInterval())
		return watch(c, j.SampleTick, cfg.Joystick.PollInterval())
	},
}
