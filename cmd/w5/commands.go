package main

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"github.com/tonkeeper/tongo/boc"
	"github.com/tonkeeper/tongo/config"
	"github.com/tonkeeper/tongo/liteapi"
	"github.com/tonkeeper/tongo/tlb"
	"github.com/tonkeeper/tongo/ton"
	tongowallet "github.com/tonkeeper/tongo/wallet"
	"github.com/txsociety/w5signer/pkg/wallet"
	"github.com/urfave/cli/v2"
	"golang.org/x/crypto/ed25519"
	"time"
)

func commandAddress() *cli.Command {
	return &cli.Command{
		Name:  "address",
		Usage: "print the wallet address and wallet id",
		Flags: append(identityFlags(), keyFlags()...),
		Action: func(c *cli.Context) error {
			w, _, err := walletFromFlags(c)
			if err != nil {
				return err
			}
			address, err := w.Address()
			if err != nil {
				return err
			}
			testnet := c.Bool("testnet")
			out := c.App.Writer
			fmt.Fprintf(out, "identity:     %v\n", w.Identity())
			fmt.Fprintf(out, "wallet id:    %d\n", w.Identity().SerializedID())
			fmt.Fprintf(out, "public key:   %x\n", []byte(w.PublicKey()))
			fmt.Fprintf(out, "raw:          %s\n", address.ToRaw())
			fmt.Fprintf(out, "bounceable:   %s\n", address.ToHuman(true, testnet))
			fmt.Fprintf(out, "non-bounce:   %s\n", address.ToHuman(false, testnet))
			return nil
		},
	}
}

func commandBuild() *cli.Command {
	flags := append(identityFlags(), keyFlags()...)
	flags = append(flags,
		&cli.StringFlag{Name: "to", Usage: "destination address", Required: true},
		&cli.Uint64Flag{Name: "amount", Usage: "amount in nanotons", Required: true},
		&cli.StringFlag{Name: "comment", Usage: "text comment"},
		&cli.BoolFlag{Name: "bounce", Usage: "bounceable transfer"},
		&cli.UintFlag{Name: "mode", Usage: "send mode", Value: uint(wallet.DefaultSendMode)},
		&cli.Int64Flag{Name: "seqno", Usage: "current wallet seqno, 0 attaches the state init"},
		&cli.DurationFlag{Name: "ttl", Usage: "message lifetime", Value: wallet.DefaultValidity},
		&cli.BoolFlag{Name: "dummy", Usage: "sign with a dummy signature for fee estimation"},
	)
	return &cli.Command{
		Name:  "build",
		Usage: "assemble a signed external transfer message",
		Flags: flags,
		Action: func(c *cli.Context) error {
			w, key, err := walletFromFlags(c)
			if err != nil {
				return err
			}
			if key == nil && !c.Bool("dummy") {
				return errors.New("private key is required unless --dummy is set")
			}
			if c.Uint("mode") > 255 {
				return fmt.Errorf("invalid send mode %d", c.Uint("mode"))
			}
			dest, err := ton.ParseAccountID(c.String("to"))
			if err != nil {
				return fmt.Errorf("invalid destination: %w", err)
			}
			t := wallet.Transfer{
				Destination: dest,
				Amount:      tlb.Grams(c.Uint64("amount")),
				Bounce:      c.Bool("bounce"),
				Mode:        uint8(c.Uint("mode")),
			}
			if len(c.String("comment")) > 0 {
				if t.Body, err = wallet.TextComment(c.String("comment")); err != nil {
					return err
				}
			}
			action, err := t.Action()
			if err != nil {
				return err
			}
			seqno := c.Int64("seqno")
			if seqno < 0 || seqno > int64(^uint32(0)) {
				return fmt.Errorf("invalid seqno %d", seqno)
			}
			msg, err := w.Identity().BuildSigningMessage(wallet.SigningRequest{
				Seqno:      uint32(seqno),
				ValidUntil: time.Now().Add(c.Duration("ttl")),
				Actions:    []wallet.Action{action},
				Auth:       wallet.AuthExternal,
			})
			if err != nil {
				return err
			}
			var opts []wallet.AssembleOption
			if c.Bool("dummy") {
				opts = append(opts, wallet.WithDummySignature())
			}
			ext, err := w.Assemble(msg, key, seqno, opts...)
			if err != nil {
				return err
			}
			payload, err := ext.ToBocBase64()
			if err != nil {
				return err
			}
			hash, err := ext.Hash()
			if err != nil {
				return err
			}
			fmt.Fprintf(c.App.Writer, "hash: %s\nboc:  %s\n", hash.Hex(), payload)
			return nil
		},
	}
}

func commandInspect() *cli.Command {
	return &cli.Command{
		Name:      "inspect",
		Usage:     "decode a wallet request body",
		ArgsUsage: "<base64 boc>",
		Flags:     []cli.Flag{
			&cli.StringFlag{Name: "pubkey", Usage: "verify the signature with the public key in hex"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return errors.New("exactly one base64 boc argument expected")
			}
			cells, err := boc.DeserializeBocBase64(c.Args().First())
			if err != nil {
				return err
			}
			if len(cells) != 1 {
				return errors.New("exactly one root cell expected")
			}
			msg, signature, err := wallet.V5R1.ParseSigningMessage(cells[0])
			if err != nil {
				return err
			}
			out := c.App.Writer
			fmt.Fprintf(out, "auth:        %v\n", msg.Auth)
			fmt.Fprintf(out, "opcode:      %#x\n", msg.Opcode)
			if msg.Auth == wallet.AuthExtension {
				fmt.Fprintf(out, "query id:    %d\n", msg.QueryID)
			} else {
				fmt.Fprintf(out, "wallet id:   %d\n", msg.WalletID)
				fmt.Fprintf(out, "valid until: %d\n", msg.ValidUntil)
				fmt.Fprintf(out, "seqno:       %d\n", msg.Seqno)
			}
			if signature != nil {
				fmt.Fprintf(out, "signature:   %s\n", hex.EncodeToString(signature))
			}
			if len(c.String("pubkey")) > 0 {
				if signature == nil {
					return errors.New("body is not signed")
				}
				if err := verifySignature(c.Args().First(), c.String("pubkey")); err != nil {
					return err
				}
				fmt.Fprintln(out, "signature:   valid")
			}
			for i, a := range msg.Actions {
				fmt.Fprintf(out, "action %d:    %s\n", i, describeAction(a))
			}
			return nil
		},
	}
}

func verifySignature(payload, pubkey string) error {
	pub, err := hex.DecodeString(pubkey)
	if err != nil {
		return err
	}
	if len(pub) != ed25519.PublicKeySize {
		return errors.New("invalid public key length")
	}
	cells, err := boc.DeserializeBocBase64(payload)
	if err != nil {
		return err
	}
	return tongowallet.MessageV5VerifySignature(*cells[0], ed25519.PublicKey(pub))
}

func describeAction(a wallet.Action) string {
	switch a := a.(type) {
	case wallet.SendMessage:
		return fmt.Sprintf("send message, mode %d, message %s", a.Mode, cellHash(a.Message))
	case wallet.SetCode:
		return "set code " + cellHash(a.NewCode)
	case wallet.AddExtension:
		return "add extension " + a.Address.ToRaw()
	case wallet.RemoveExtension:
		return "remove extension " + a.Address.ToRaw()
	case wallet.SetSignatureAuthAllowed:
		return fmt.Sprintf("set signature auth allowed %v", a.Allowed)
	}
	return fmt.Sprintf("%T", a)
}

func cellHash(c *boc.Cell) string {
	h, err := c.Hash()
	if err != nil {
		return "invalid cell"
	}
	return hex.EncodeToString(h)
}

func commandStatus() *cli.Command {
	flags := append(identityFlags(), keyFlags()...)
	flags = append(flags,
		&cli.StringFlag{Name: "address", Usage: "wallet address, derived from the key when empty"},
		&cli.StringFlag{Name: "lite-servers", Usage: "liteservers in ip:port:key format", EnvVars: []string{"LITE_SERVERS"}},
	)
	return &cli.Command{
		Name:  "status",
		Usage: "query the wallet state from liteservers",
		Flags: flags,
		Action: func(c *cli.Context) error {
			identity, err := identityFromFlags(c)
			if err != nil {
				return err
			}
			cfg := wallet.Config{Identity: identity}
			if len(c.String("address")) > 0 {
				addr, err := ton.ParseAccountID(c.String("address"))
				if err != nil {
					return err
				}
				cfg.Address = &addr
			} else {
				w, _, err := walletFromFlags(c)
				if err != nil {
					return err
				}
				cfg.PublicKey = w.PublicKey()
			}
			w, err := wallet.New(cfg)
			if err != nil {
				return err
			}
			client, err := liteClient(c.String("lite-servers"), c.Bool("testnet"))
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(c.Context, time.Minute)
			defer cancel()
			status, err := wallet.NewStateClient(w, client).Status(ctx)
			if err != nil {
				return err
			}
			address, err := w.Address()
			if err != nil {
				return err
			}
			out := c.App.Writer
			fmt.Fprintf(out, "address:        %s\n", address.ToRaw())
			fmt.Fprintf(out, "wallet id:      %d\n", status.WalletID)
			fmt.Fprintf(out, "public key:     %x\n", []byte(status.PublicKey))
			fmt.Fprintf(out, "seqno:          %d\n", status.Seqno)
			fmt.Fprintf(out, "signature auth: %d\n", status.SignatureAuth)
			for _, e := range status.Extensions {
				fmt.Fprintf(out, "extension:      %s\n", e.ToRaw())
			}
			return nil
		},
	}
}

func liteClient(servers string, testnet bool) (*liteapi.Client, error) {
	if len(servers) > 0 {
		parsed, err := config.ParseLiteServersEnvVar(servers)
		if err != nil {
			return nil, err
		}
		return liteapi.NewClient(liteapi.WithLiteServers(parsed))
	}
	if testnet {
		return liteapi.NewClientWithDefaultTestnet()
	}
	return liteapi.NewClientWithDefaultMainnet()
}
