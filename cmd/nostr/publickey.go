package main

import (
	"fmt"

	"github.com/alecthomas/kong"
)

type publicKeyCmd struct {
	Hex bool `help:"Print the public key as hex instead of bech32."`
}

func (cmd *publicKeyCmd) Run(_ *kong.Context) error {
	kp, err := askSecretKey()
	if err != nil {
		return err
	}
	defer kp.Zero()

	if cmd.Hex {
		fmt.Println(kp.PublicKeyHex())

		return nil
	}

	fmt.Println(kp.Npub())

	return nil
}
