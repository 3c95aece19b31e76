package main

import (
	"github.com/alecthomas/kong"

	"github.com/unicitynetwork/nostr-sdk/nip17"
)

type wrapCmd struct {
	Recipient string `arg:"" help:"The recipient's public key, as npub or hex."`
	Message   string `arg:"" help:"The message text."`

	ReplyTo string `help:"The id of the message being replied to."`
	Nametag string `help:"A sender nametag to carry inside the message."`
	Output  string `short:"o" default:"-" help:"The output path for the wrapped event."`
}

func (cmd *wrapCmd) Run(_ *kong.Context) error {
	recipient, err := parsePublicKey(cmd.Recipient)
	if err != nil {
		return err
	}

	kp, err := askSecretKey()
	if err != nil {
		return err
	}
	defer kp.Zero()

	wrap, err := nip17.CreateChatMessage(kp, recipient, cmd.Message, &nip17.Options{
		ReplyTo:       cmd.ReplyTo,
		SenderNametag: cmd.Nametag,
	})
	if err != nil {
		return err
	}

	return writeEvent(cmd.Output, wrap)
}
