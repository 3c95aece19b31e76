package main

import (
	"fmt"
	"time"

	"github.com/alecthomas/kong"

	nostr "github.com/unicitynetwork/nostr-sdk"
	"github.com/unicitynetwork/nostr-sdk/nip19"
)

type inspectCmd struct {
	Event string `arg:"" default:"-" help:"The path to the event JSON, or - for stdin."`
}

func (cmd *inspectCmd) Run(_ *kong.Context) error {
	e, err := readEvent(cmd.Event)
	if err != nil {
		return err
	}

	fmt.Printf("id:         %s\n", e.ID)
	fmt.Printf("kind:       %d (%s)\n", e.Kind, nostr.KindName(e.Kind))
	fmt.Printf("created at: %s\n", time.Unix(e.CreatedAt, 0).UTC().Format(time.RFC3339))

	if pk, err := parsePublicKey(e.PubKey); err == nil {
		fmt.Printf("author:     %s\n", nip19.EncodePublicKey(pk))
	} else {
		fmt.Printf("author:     %s\n", e.PubKey)
	}

	for _, tag := range e.Tags {
		fmt.Printf("tag:        %v\n", tag)
	}

	fmt.Printf("id valid:   %t\n", e.CheckID())
	fmt.Printf("sig valid:  %t\n", e.Verify())

	return nil
}
