package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"basalt/config"
	"basalt/core"
	"basalt/core/types"
	"basalt/crypto"
	"basalt/observability"
	"basalt/observability/logging"
	"basalt/storage"

	"basalt/cmd/internal/passphrase"
)

const (
	defaultConfig  = "./config.toml"
	defaultPassEnv = "BASALT_KEY_PASSPHRASE"
)

var configPath = defaultConfig

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	args, err := applyGlobalFlags(args)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	if len(args) == 0 {
		printUsage(stderr)
		return 1
	}

	command, rest := strings.ToLower(args[0]), args[1:]
	if command == "keygen" {
		return runKeygen(rest, stdout, stderr)
	}
	handler, ok := commands[command]
	if !ok {
		fmt.Fprintf(stderr, "Unknown command %q\n", args[0])
		printUsage(stderr)
		return 1
	}

	env, err := openEnv()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer env.Close()

	out, err := handler(env, rest)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if out != nil {
		if err := printJSON(stdout, out); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
	}
	return 0
}

func applyGlobalFlags(args []string) ([]string, error) {
	remaining := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "--config" || arg == "-config":
			if i+1 >= len(args) {
				return nil, errors.New("--config requires a value")
			}
			configPath = args[i+1]
			i++
		case strings.HasPrefix(arg, "--config="):
			configPath = strings.TrimPrefix(arg, "--config=")
		default:
			remaining = append(remaining, arg)
		}
	}
	return remaining, nil
}

// env is the per-invocation runtime and the resources it holds open.
type env struct {
	cfg *config.Config
	db  storage.Database
	rt  *core.Runtime
}

func openEnv() (*env, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	params, err := cfg.CDP.Params()
	if err != nil {
		return nil, err
	}
	paymentMint, err := cfg.Issuance.PaymentMintAddress()
	if err != nil {
		return nil, err
	}
	logOpts := cfg.LoggingOptions()
	if logOpts.File == "" {
		logOpts.Output = os.Stderr
	}
	logger := logging.Setup("basalt-cli", cfg.Environment, logOpts)

	db, err := storage.Open(cfg.Backend, cfg.DataDir)
	if err != nil {
		return nil, err
	}
	rt, err := core.NewRuntime(db, core.Config{
		CDPParams:   params,
		Pauses:      cfg.Global.Pauses.PauseView(),
		PaymentMint: paymentMint,
		Logger:      logger,
		Emitter:     observability.Events(),
		Metrics:     observability.Instructions(),
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &env{cfg: cfg, db: db, rt: rt}, nil
}

func (e *env) Close() {
	if e != nil && e.db != nil {
		e.db.Close()
	}
}

// submit signs an instruction for the keystore's account at its next nonce
// and executes it.
func (e *env) submit(keyFlag keyFlags, program, op string, args interface{}) (*core.Receipt, error) {
	key, err := keyFlag.load()
	if err != nil {
		return nil, err
	}
	nonce, err := e.rt.Nonce(key.PubKey().Address())
	if err != nil {
		return nil, err
	}
	ins := &types.Instruction{Program: program, Op: op, Nonce: nonce}
	if err := ins.EncodeArgs(args); err != nil {
		return nil, err
	}
	if err := ins.Sign(key); err != nil {
		return nil, err
	}
	return e.rt.Execute(ins)
}

type keyFlags struct {
	path    *string
	passEnv *string
}

func addKeyFlags(fs *flag.FlagSet) keyFlags {
	return keyFlags{
		path:    fs.String("key", "", "Path to the signing keystore"),
		passEnv: fs.String("pass-env", defaultPassEnv, "Environment variable containing the keystore passphrase"),
	}
}

func (k keyFlags) load() (*crypto.PrivateKey, error) {
	if k.path == nil || strings.TrimSpace(*k.path) == "" {
		return nil, errors.New("--key is required")
	}
	pass, err := passphrase.NewSource(*k.passEnv).Get()
	if err != nil {
		return nil, err
	}
	return crypto.LoadFromKeystore(*k.path, pass)
}

func printJSON(w io.Writer, v interface{}) error {
	pretty, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(pretty))
	return err
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: basalt-cli [--config path] <command> [flags]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Keys:")
	fmt.Fprintln(w, "  keygen           --out <path> [--pass-env VAR]")
	fmt.Fprintln(w, "  address          --key <path>")
	fmt.Fprintln(w, "CDP:")
	fmt.Fprintln(w, "  init-protocol    --key --collateral-mint --debt-mint [--ratio --threshold --rate]")
	fmt.Fprintln(w, "  mint             --key --deposit --amount")
	fmt.Fprintln(w, "  redeem           --key --amount")
	fmt.Fprintln(w, "  liquidate        --key --owner --amount")
	fmt.Fprintln(w, "  accrue           --key [--owner]")
	fmt.Fprintln(w, "  protocol")
	fmt.Fprintln(w, "  vault            --owner")
	fmt.Fprintln(w, "Issuance:")
	fmt.Fprintln(w, "  init-issuance    --key --token-mint [--max-supply --price]")
	fmt.Fprintln(w, "  mint-tokens      --key --amount")
	fmt.Fprintln(w, "  update-issuance  --key [--max-supply] [--price] [--active]")
	fmt.Fprintln(w, "  set-metadata     --key --mint --name --symbol --uri")
	fmt.Fprintln(w, "  issuance")
	fmt.Fprintln(w, "  minter           --user")
	fmt.Fprintln(w, "  metadata         --mint")
	fmt.Fprintln(w, "Ledger:")
	fmt.Fprintln(w, "  faucet           --mint --to --amount")
	fmt.Fprintln(w, "  balance          --mint --owner")
	fmt.Fprintln(w, "  nonce            --address")
}
