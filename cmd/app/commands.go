package main

import (
	"github.com/urfave/cli/v3"
)

func getCommands() []*cli.Command {
	cmds := []*cli.Command{}
	cmds = append(cmds, getSystemCommands()...)
	cmds = append(cmds, getBarrierCommands()...)
	cmds = append(cmds, getPepperCommands()...)
	cmds = append(cmds, getHashCommands()...)
	return cmds
}
