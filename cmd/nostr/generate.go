package main

import (
	"fmt"

	"github.com/alecthomas/kong"

	nostr "github.com/unicitynetwork/nostr-sdk"
)

type generateCmd struct {
	Hex bool `help:"Print the keys as hex instead of bech32."`
}

func (cmd *generateCmd) Run(_ *kong.Context) error {
	kp, err := nostr.GenerateKeyPair()
	if err != nil {
		return err
	}
	defer kp.Zero()

	if cmd.Hex {
		fmt.Printf("secret key: %s\n", kp.SecretKeyHex())
		fmt.Printf("public key: %s\n", kp.PublicKeyHex())

		return nil
	}

	fmt.Printf("secret key: %s\n", kp.Nsec())
	fmt.Printf("public key: %s\n", kp.Npub())

	return nil
}
