package main

import (
	"github.com/alecthomas/kong"
)

type signCmd struct {
	Event  string `arg:"" default:"-" help:"The path to the unsigned event JSON, or - for stdin."`
	Output string `short:"o" default:"-" help:"The output path for the signed event."`
}

func (cmd *signCmd) Run(_ *kong.Context) error {
	e, err := readEvent(cmd.Event)
	if err != nil {
		return err
	}

	kp, err := askSecretKey()
	if err != nil {
		return err
	}
	defer kp.Zero()

	if err := e.Sign(kp); err != nil {
		return err
	}

	return writeEvent(cmd.Output, e)
}
