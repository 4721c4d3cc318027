package main

import (
	"encoding/json"
	"fmt"

	"github.com/ledgerlink/go-ledgerlink/crypto"
	"github.com/urfave/cli/v2"
)

type outputKeygen struct {
	Public  string `json:"public"`
	Private string `json:"private"`
}

var jsonFlag = &cli.BoolFlag{
	Name:  "json",
	Usage: "output JSON instead of human-readable format",
}

var commandKeygen = &cli.Command{
	Name:  "keygen",
	Usage: "generate a fresh node keypair",
	Description: `
Generate a new secp256k1 keypair and print it in the text encodings the node
consumes: base64 DER SubjectPublicKeyInfo for KEY_PUB and base64 DER PKCS#8
for KEY_PRIV. The private key is printed to stdout and nowhere else; store it
yourself.
`,
	Flags: []cli.Flag{
		jsonFlag,
	},
	Action: func(ctx *cli.Context) error {
		key, err := crypto.GenerateKey()
		if err != nil {
			Fatalf("Failed to generate key: %v", err)
		}
		out := outputKeygen{
			Public:  crypto.EncodePublicKey(key.PubKey()),
			Private: crypto.EncodePrivateKey(key),
		}
		if ctx.Bool(jsonFlag.Name) {
			enc, _ := json.MarshalIndent(out, "", "  ")
			fmt.Println(string(enc))
		} else {
			fmt.Println("KEY_PUB: ", out.Public)
			fmt.Println("KEY_PRIV:", out.Private)
		}
		return nil
	},
}
