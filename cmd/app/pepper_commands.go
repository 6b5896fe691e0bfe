package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/allisson/barrier/cmd/app/commands"
	"github.com/allisson/barrier/internal/app"
	"github.com/allisson/barrier/internal/config"
)

func getPepperCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "create-pepper",
			Usage: "Create version 1 of a registry's pepper",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "registry-id",
					Aliases:  []string{"r"},
					Required: true,
					Usage:    "Pepper registry identifier (e.g. passwords, emails)",
				},
				&cli.StringFlag{
					Name:    "algorithm",
					Aliases: []string{"alg"},
					Value:   "aes-gcm-siv",
					Usage:   "AEAD for applying the pepper (aes-gcm-siv or aes-gcm)",
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

				pepperUseCase, err := container.PepperUseCase()
				if err != nil {
					return err
				}

				return commands.RunCreatePepper(
					ctx,
					provider,
					barrierUseCase,
					pepperUseCase,
					container.Logger(),
					cmd.String("registry-id"),
					cmd.String("algorithm"),
				)
			},
		},
		{
			Name:  "rotate-pepper",
			Usage: "Rotate a registry's pepper to a new version",
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

				pepperUseCase, err := container.PepperUseCase()
				if err != nil {
					return err
				}

				return commands.RunRotatePepper(
					ctx,
					provider,
					barrierUseCase,
					pepperUseCase,
					container.Logger(),
					cmd.String("registry-id"),
				)
			},
		},
	}
}
