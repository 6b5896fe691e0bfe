package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/allisson/barrier/cmd/app/commands"
	"github.com/allisson/barrier/internal/app"
	"github.com/allisson/barrier/internal/config"
)

func getBarrierCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "generate-unseal-shares",
			Usage: "Split a fresh unseal secret into checksummed Shamir shares",
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:    "shares",
					Aliases: []string{"n"},
					Value:   5,
					Usage:   "Number of shares to generate (2-255)",
				},
				&cli.IntFlag{
					Name:    "threshold",
					Aliases: []string{"t"},
					Value:   3,
					Usage:   "Number of shares required to reconstruct the secret",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				return commands.RunGenerateUnsealShares(
					container.Logger(),
					commands.DefaultIO().Writer,
					int(cmd.Int("shares")),
					int(cmd.Int("threshold")),
				)
			},
		},
		{
			Name:  "init",
			Usage: "Initialize the barrier (first boot creates the key hierarchy)",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				provider, err := container.UnsealProvider()
				if err != nil {
					return err
				}

				barrierUseCase, err := container.BarrierUseCase()
				if err != nil {
					return err
				}

				return commands.RunInit(ctx, provider, barrierUseCase, container.Logger())
			},
		},
		{
			Name:  "rotate",
			Usage: "Rotate one layer of the key hierarchy to a new version",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "layer",
					Aliases:  []string{"l"},
					Required: true,
					Usage:    "Layer to rotate (root, intermediate, or content)",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				provider, err := container.UnsealProvider()
				if err != nil {
					return err
				}

				barrierUseCase, err := container.BarrierUseCase()
				if err != nil {
					return err
				}

				return commands.RunRotate(
					ctx,
					provider,
					barrierUseCase,
					container.Logger(),
					cmd.String("layer"),
				)
			},
		},
		{
			Name:  "rewrap",
			Usage: "Re-wrap key records still wrapped under an old parent key",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "layer",
					Aliases:  []string{"l"},
					Required: true,
					Usage:    "Layer to rewrap (root, intermediate, or content)",
				},
				&cli.IntFlag{
					Name:    "batch-size",
					Aliases: []string{"b"},
					Value:   100,
					Usage:   "Number of key records to process per batch",
				},
				&cli.FloatFlag{
					Name:    "rate",
					Aliases: []string{"r"},
					Value:   0,
					Usage:   "Batches per second (0 uses REWRAP_RATE_PER_SEC)",
				},
				&cli.IntFlag{
					Name:    "burst",
					Value:   0,
					Usage:   "Pacing burst size (0 uses REWRAP_BURST)",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				ratePerSec := cmd.Float("rate")
				if ratePerSec == 0 {
					ratePerSec = cfg.RewrapRatePerSec
				}

				burst := int(cmd.Int("burst"))
				if burst == 0 {
					burst = cfg.RewrapBurst
				}

				provider, err := container.UnsealProvider()
				if err != nil {
					return err
				}

				barrierUseCase, err := container.BarrierUseCase()
				if err != nil {
					return err
				}

				return commands.RunRewrap(
					ctx,
					provider,
					barrierUseCase,
					container.Logger(),
					cmd.String("layer"),
					int(cmd.Int("batch-size")),
					ratePerSec,
					burst,
				)
			},
		},
	}
}
