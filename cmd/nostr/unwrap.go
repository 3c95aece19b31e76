package main

import (
	"fmt"
	"time"

	"github.com/alecthomas/kong"

	nostr "github.com/unicitynetwork/nostr-sdk"
	"github.com/unicitynetwork/nostr-sdk/nip17"
	"github.com/unicitynetwork/nostr-sdk/nip19"
)

type unwrapCmd struct {
	Event string `arg:"" default:"-" help:"The path to the gift wrap JSON, or - for stdin."`
}

func (cmd *unwrapCmd) Run(_ *kong.Context) error {
	e, err := readEvent(cmd.Event)
	if err != nil {
		return err
	}

	kp, err := askSecretKey()
	if err != nil {
		return err
	}
	defer kp.Zero()

	msg, err := nip17.Unwrap(e, kp)
	if err != nil {
		return err
	}

	sender := msg.SenderPubKey
	if pk, err := parsePublicKey(sender); err == nil {
		sender = nip19.EncodePublicKey(pk)
	}

	fmt.Printf("from:    %s\n", sender)

	if msg.SenderNametag != "" {
		fmt.Printf("nametag: %s\n", msg.SenderNametag)
	}

	fmt.Printf("sent:    %s\n", time.Unix(msg.Timestamp, 0).UTC().Format(time.RFC3339))
	fmt.Printf("kind:    %s\n", nostr.KindName(msg.Kind))

	if msg.ReplyTo != "" {
		fmt.Printf("replies: %s\n", msg.ReplyTo)
	}

	fmt.Println(msg.Content)

	return nil
}
