package main

import (
	"errors"

	"github.com/alecthomas/kong"
)

type verifyCmd struct {
	Event string `arg:"" default:"-" help:"The path to the event JSON, or - for stdin."`
}

var errInvalidEvent = errors.New("invalid event")

func (cmd *verifyCmd) Run(_ *kong.Context) error {
	e, err := readEvent(cmd.Event)
	if err != nil {
		return err
	}

	if !e.CheckID() || !e.Verify() {
		return errInvalidEvent
	}

	return nil
}
