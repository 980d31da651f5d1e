// Command ladderd runs the real-time weekly user-ranking service: it
// serves one TCP client at a time, maintains the weekly leaderboard and
// pushes personalized rating packets back every second.
package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/urfave/cli/v2"

	"github.com/linchenxuan/ladderd/config"
	"github.com/linchenxuan/ladderd/log"
	"github.com/linchenxuan/ladderd/metrics"
	"github.com/linchenxuan/ladderd/service"
	"github.com/linchenxuan/ladderd/utils/file"
)

func main() {
	app := &cli.App{
		Name:      "ladderd",
		Usage:     "real-time weekly user-ranking service",
		ArgsUsage: "<port>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Usage: "path to the YAML configuration file",
			},
			&cli.StringFlag{
				Name:  "metrics-addr",
				Usage: "expose prometheus metrics on this address",
			},
			&cli.StringFlag{
				Name:  "lock-file",
				Usage: "acquire an exclusive run lock on this file",
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		// One-line diagnostic, conventional success status: a misused
		// invocation is not a service failure.
		fmt.Fprintln(os.Stderr, err)
	}
}

func run(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}

	if c.Args().Len() > 0 {
		port, err := strconv.ParseUint(c.Args().First(), 10, 16)
		if err != nil {
			return fmt.Errorf("invalid port %q: expected an integer in [0, 65535]", c.Args().First())
		}
		cfg.Transport.Addr = fmt.Sprintf(":%d", port)
	}
	if addr := c.String("metrics-addr"); addr != "" {
		cfg.MetricsAddr = addr
	}

	if err := log.Initialize(&cfg.Log); err != nil {
		return err
	}
	defer log.Close()

	if path := c.String("lock-file"); path != "" {
		lock := file.NewLock(path)
		if err := lock.Acquire(); err != nil {
			return err
		}
		defer lock.Release()
	}

	if cfg.MetricsAddr != "" {
		addr, err := metrics.Serve(cfg.MetricsAddr, cfg.MetricsPath)
		if err != nil {
			return err
		}
		log.Info().Str("address", addr.String()).Msg("metrics endpoint up")
	}

	if err := service.NewSupervisor(cfg).Run(); err != nil {
		log.Error().Err(err).Msg("service terminated")
		os.Exit(1)
	}
	return nil
}
