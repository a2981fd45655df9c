package main

import (
	"context"
	"os"
	"os/signal"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/zaburoh/pointing"
	"github.com/zaburoh/pointing/cmd/pointing/console"
	"github.com/zaburoh/pointing/config"
	"github.com/zaburoh/pointing/poll"
)

// consoleSink prints emitted relative events; a trailing + marks an event
// whose batch is closed by the next one.
type consoleSink struct{}

func (consoleSink) ReportRel(axis pointing.Axis, value int16, more bool) {
	batch := ""
	if more {
		batch = " +"
	}
	console.Printf("%s rel %s %+d%s\n", console.PictoTarget, axis, value, batch)
}

func loadConfig(c *cli.Context) (config.Config, error) {
	path := c.String("config")
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

// watch polls the given sampler until the duration elapses or the process is
// interrupted, then prints the poller diagnostics.
func watch(c *cli.Context, sample poll.SampleFunc, interval time.Duration) error {
	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if d := c.Duration("duration"); d > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(runCtx, d)
		defer cancel()
	}

	p := poll.New(sample, consoleSink{}, poll.WithInterval(interval))
	p.Start(runCtx)
	<-runCtx.Done()

	stats := p.Stats()
	console.PInfof(console.PictoFinish, "ticks=%d emitted=%d failed=%d",
		stats.Ticks, stats.Emitted, stats.FailedTicks)
	if stats.FailedTicks > 0 {
		console.Warnf("last transport failure at %s", stats.LastFailure.Format(time.DateTime))
	}
	return nil
}
