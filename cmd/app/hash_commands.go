package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/allisson/barrier/cmd/app/commands"
	"github.com/allisson/barrier/internal/app"
	"github.com/allisson/barrier/internal/config"
)

func getHashCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "hash",
			Usage: "Hash a value read from stdin and print the encoded string",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "registry-id",
					Aliases:  []string{"r"},
					Required: true,
					Usage:    "Pepper registry identifier (e.g. passwords, emails)",
				},
				&cli.StringFlag{
					Name:    "entropy",
					Aliases: []string{"e"},
					Value:   "low",
					Usage:   "Entropy class of the input: 'low' or 'high'",
				},
				&cli.StringFlag{
					Name:    "salt",
					Aliases: []string{"s"},
					Value:   "random",
					Usage:   "Salt class: 'random' or 'fixed' (deterministic)",
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

				hashUseCase, err := container.HashUseCase()
				if err != nil {
					return err
				}

				return commands.RunHash(
					ctx,
					provider,
					barrierUseCase,
					hashUseCase,
					container.Logger(),
					commands.DefaultIO(),
					cmd.String("registry-id"),
					cmd.String("entropy"),
					cmd.String("salt"),
					cfg.HighEntropyMinBits,
				)
			},
		},
		{
			Name:  "validate",
			Usage: "Check a value against a stored hash (two stdin lines: value, then hash)",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "registry-id",
					Aliases:  []string{"r"},
					Required: true,
					Usage:    "Pepper registry identifier (e.g. passwords, emails)",
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

				hashUseCase, err := container.HashUseCase()
				if err != nil {
					return err
				}

				return commands.RunValidate(
					ctx,
					provider,
					barrierUseCase,
					hashUseCase,
					container.Logger(),
					commands.DefaultIO(),
					cmd.String("registry-id"),
				)
			},
		},
	}
}
