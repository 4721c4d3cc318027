// glink is the LedgerLink node: it keeps a replicated chain of signed value
// transfers in sync with a static set of neighbors and mints new blocks from
// its local mempool.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ledgerlink/go-ledgerlink/internal/flags"
	"github.com/ledgerlink/go-ledgerlink/log"
	"github.com/ledgerlink/go-ledgerlink/node"
	"github.com/ledgerlink/go-ledgerlink/p2p"
	"github.com/urfave/cli/v2"
)

// Git SHA1 commit hash of the release (set via linker flags).
var gitCommit = ""
var gitDate = ""

var (
	configFileFlag = &cli.StringFlag{
		Name:     "config",
		Usage:    "TOML configuration file",
		Category: flags.NodeCategory,
	}
	keyPubFlag = &cli.StringFlag{
		Name:     "key.pub",
		Usage:    "Base64 DER SubjectPublicKeyInfo of the node identity",
		EnvVars:  []string{"KEY_PUB"},
		Category: flags.NodeCategory,
	}
	keyPrivFlag = &cli.StringFlag{
		Name:     "key.priv",
		Usage:    "Base64 DER PKCS#8 of the node signing key",
		EnvVars:  []string{"KEY_PRIV"},
		Category: flags.NodeCategory,
	}
	listenAddrFlag = &cli.StringFlag{
		Name:     "addr",
		Usage:    "TCP listen address of the peer transport",
		EnvVars:  []string{"LISTEN_ADDR"},
		Category: flags.NetworkCategory,
	}
	peersFlag = &cli.StringFlag{
		Name:     "peers",
		Usage:    "Comma-separated neighbor list, each entry pubkey@host:port",
		EnvVars:  []string{"PEERS"},
		Category: flags.NetworkCategory,
	}
	mintIntervalFlag = &cli.Uint64Flag{
		Name:     "mint.interval",
		Usage:    "Seconds between mint ticks",
		EnvVars:  []string{"MINT_INTERVAL"},
		Category: flags.MinterCategory,
	}
	maxBlockTxsFlag = &cli.IntFlag{
		Name:     "mint.maxtxs",
		Usage:    "Maximum transactions per minted block",
		EnvVars:  []string{"MINT_MAX_TXS"},
		Category: flags.MinterCategory,
	}
	verbosityFlag = &cli.IntFlag{
		Name:     "verbosity",
		Usage:    "Logging verbosity: 0=crit, 1=error, 2=warn, 3=info, 4=debug, 5=trace",
		Value:    3,
		Category: flags.LoggingCategory,
	}
)

var app *cli.App

func init() {
	app = flags.NewApp(gitCommit, gitDate, "the LedgerLink node command line interface")
	app.Flags = []cli.Flag{
		configFileFlag,
		keyPubFlag,
		keyPrivFlag,
		listenAddrFlag,
		peersFlag,
		mintIntervalFlag,
		maxBlockTxsFlag,
		verbosityFlag,
	}
	app.Action = runNode
	app.Commands = []*cli.Command{
		commandKeygen,
	}
}

func main() {
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runNode(ctx *cli.Context) error {
	setupLogging(ctx)

	cfg := node.DefaultConfig
	if file := ctx.String(configFileFlag.Name); file != "" {
		if err := loadConfig(file, &cfg); err != nil {
			Fatalf("Could not load config file: %v", err)
		}
	}
	applyFlags(ctx, &cfg)

	if cfg.KeyPub == "" || cfg.KeyPriv == "" {
		Fatalf("Both the node identity (KEY_PUB) and signing key (KEY_PRIV) must be set")
	}

	n, err := node.New(cfg)
	if err != nil {
		Fatalf("Could not assemble the node: %v", err)
	}
	if err := n.Start(); err != nil {
		Fatalf("Could not start the node: %v", err)
	}

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigc
	log.Info("Shutting down", "signal", sig)
	n.Stop()
	return nil
}

func setupLogging(ctx *cli.Context) {
	lvl := log.Lvl(ctx.Int(verbosityFlag.Name))
	if lvl > log.LvlTrace {
		lvl = log.LvlTrace
	}
	handler := log.StderrHandler
	if lvl >= log.LvlTrace {
		handler = log.CallerFileHandler(handler)
	}
	log.Root().SetHandler(log.LvlFilterHandler(lvl, handler))
}

// applyFlags overrides cfg with every flag set on the command line or via
// the environment. Flag values win over the config file.
func applyFlags(ctx *cli.Context, cfg *node.Config) {
	if ctx.IsSet(keyPubFlag.Name) {
		cfg.KeyPub = ctx.String(keyPubFlag.Name)
	}
	if ctx.IsSet(keyPrivFlag.Name) {
		cfg.KeyPriv = ctx.String(keyPrivFlag.Name)
	}
	if ctx.IsSet(listenAddrFlag.Name) {
		cfg.ListenAddr = ctx.String(listenAddrFlag.Name)
	}
	if ctx.IsSet(mintIntervalFlag.Name) {
		cfg.MintIntervalSec = ctx.Uint64(mintIntervalFlag.Name)
	}
	if ctx.IsSet(maxBlockTxsFlag.Name) {
		cfg.MaxBlockTxs = ctx.Int(maxBlockTxsFlag.Name)
	}
	if ctx.IsSet(peersFlag.Name) {
		peers, err := parsePeers(ctx.String(peersFlag.Name))
		if err != nil {
			Fatalf("Bad --peers value: %v", err)
		}
		cfg.Peers = peers
	}
}

// parsePeers splits "pubkey@host:port,pubkey@host:port" into a peer list.
func parsePeers(spec string) ([]p2p.Peer, error) {
	var peers []p2p.Peer
	for _, entry := range strings.Split(spec, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		pub, addr, ok := strings.Cut(entry, "@")
		if !ok || pub == "" || addr == "" {
			return nil, fmt.Errorf("entry %q is not pubkey@host:port", entry)
		}
		peers = append(peers, p2p.Peer{PubKey: pub, Addr: addr})
	}
	return peers, nil
}

// Fatalf formats a message to stderr and exits with a non-zero status.
func Fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Fatal: "+format+"\n", args...)
	os.Exit(1)
}
