package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	"golang.org/x/term"

	nostr "github.com/unicitynetwork/nostr-sdk"
	"github.com/unicitynetwork/nostr-sdk/nip19"
)

type cli struct {
	Generate  generateCmd  `cmd:"" help:"Generate a new key pair."`
	PublicKey publicKeyCmd `cmd:"" help:"Derive the public key from a secret key."`
	Inspect   inspectCmd   `cmd:"" help:"Inspect an event and check its id and signature."`
	Sign      signCmd      `cmd:"" help:"Sign an event."`
	Verify    verifyCmd    `cmd:"" help:"Verify an event's id and signature."`
	Wrap      wrapCmd      `cmd:"" help:"Wrap a private message for a recipient."`
	Unwrap    unwrapCmd    `cmd:"" help:"Unwrap a private message."`
}

func main() {
	var cli cli

	ctx := kong.Parse(&cli)
	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}

// askSecretKey prompts for a secret key on the terminal without echo, then
// parses it as nsec or hex.
func askSecretKey() (*nostr.KeyPair, error) {
	defer func() { _, _ = fmt.Fprintln(os.Stderr) }()

	_, _ = fmt.Fprint(os.Stderr, "Enter secret key: ")

	b, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		return nil, err
	}

	return parseSecretKey(strings.TrimSpace(string(b)))
}

// parseSecretKey accepts a secret key as nsec or hex.
func parseSecretKey(s string) (*nostr.KeyPair, error) {
	if strings.HasPrefix(s, nip19.SecretKeyPrefix) {
		return nostr.KeyPairFromNsec(s)
	}

	return nostr.KeyPairFromHex(s)
}

// parsePublicKey accepts a public key as npub or hex.
func parsePublicKey(s string) ([]byte, error) {
	if strings.HasPrefix(s, nip19.PublicKeyPrefix) {
		return nip19.DecodePublicKey(s)
	}

	pk, err := hex.DecodeString(s)
	if err != nil {
		return nil, err
	}

	if len(pk) != 32 {
		return nil, fmt.Errorf("public key must be 32 bytes, got %d", len(pk))
	}

	return pk, nil
}

// readEvent reads an event as JSON from a file, or from stdin when path is
// "-".
func readEvent(path string) (*nostr.Event, error) {
	src := os.Stdin

	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}

		defer func() { _ = f.Close() }()

		src = f
	}

	b, err := io.ReadAll(src)
	if err != nil {
		return nil, err
	}

	var e nostr.Event
	if err := json.Unmarshal(b, &e); err != nil {
		return nil, err
	}

	return &e, nil
}

// writeEvent writes an event as indented JSON to a file, or to stdout when
// path is "-".
func writeEvent(path string, e *nostr.Event) error {
	dst := os.Stdout

	if path != "-" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}

		defer func() { _ = f.Close() }()

		dst = f
	}

	enc := json.NewEncoder(dst)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")

	return enc.Encode(e)
}
