package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"basalt/core/types"
	"basalt/crypto"
	"basalt/native/fixedpoint"
	"basalt/native/issuance"

	"basalt/cmd/internal/passphrase"
)

type handler func(e *env, args []string) (interface{}, error)

var commands = map[string]handler{
	"address":         runAddress,
	"init-protocol":   runInitProtocol,
	"mint":            runMint,
	"redeem":          runRedeem,
	"liquidate":       runLiquidate,
	"accrue":          runAccrue,
	"protocol":        runProtocol,
	"vault":           runVault,
	"init-issuance":   runInitIssuance,
	"mint-tokens":     runMintTokens,
	"update-issuance": runUpdateIssuance,
	"set-metadata":    runSetMetadata,
	"issuance":        runIssuance,
	"minter":          runMinter,
	"metadata":        runMetadata,
	"faucet":          runFaucet,
	"balance":         runBalance,
	"nonce":           runNonce,
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func runKeygen(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("keygen")
	out := fs.String("out", "", "Output path for the new keystore")
	passEnv := fs.String("pass-env", defaultPassEnv, "Environment variable containing the keystore passphrase")
	force := fs.Bool("force", false, "Overwrite an existing keystore file")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if strings.TrimSpace(*out) == "" {
		fmt.Fprintln(stderr, "Usage: basalt-cli keygen --out <path> [--pass-env VAR] [--force]")
		return 1
	}
	if !*force {
		if _, err := os.Stat(*out); err == nil {
			fmt.Fprintf(stderr, "Error: keystore file %s already exists (use --force to overwrite)\n", *out)
			return 1
		}
	}
	pass, err := passphrase.NewSource(*passEnv).Get()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	key, err := crypto.GeneratePrivateKey()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if err := crypto.SaveToKeystore(*out, key, pass); err != nil {
		fmt.Fprintf(stderr, "Error: failed to write keystore: %v\n", err)
		return 1
	}
	if err := printJSON(stdout, map[string]string{"address": key.PubKey().Address().String(), "keystore": *out}); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func runAddress(_ *env, args []string) (interface{}, error) {
	fs := newFlagSet("address")
	key := addKeyFlags(fs)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	priv, err := key.load()
	if err != nil {
		return nil, err
	}
	return map[string]string{"address": priv.PubKey().Address().String()}, nil
}

func runInitProtocol(e *env, args []string) (interface{}, error) {
	defaults := e.cfg.CDP
	fs := newFlagSet("init-protocol")
	key := addKeyFlags(fs)
	collateral := fs.String("collateral-mint", "", "Collateral token mint (bech32 or name)")
	debt := fs.String("debt-mint", "", "Debt token mint (bech32 or name)")
	ratio := fs.String("ratio", defaults.CollateralRatio, "Collateral ratio as a decimal")
	threshold := fs.String("threshold", defaults.LiquidationThreshold, "Liquidation threshold as a decimal")
	rate := fs.String("rate", defaults.InterestRate, "Annual interest rate as a decimal")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	collateralMint, err := parseMint(*collateral)
	if err != nil {
		return nil, fmt.Errorf("--collateral-mint: %w", err)
	}
	debtMint, err := parseMint(*debt)
	if err != nil {
		return nil, fmt.Errorf("--debt-mint: %w", err)
	}
	scaled := make([]uint64, 3)
	for i, raw := range []string{*ratio, *threshold, *rate} {
		if scaled[i], err = fixedpoint.FromDecimal(raw); err != nil {
			return nil, err
		}
	}
	return e.submit(key, types.ProgramCDP, types.OpInitProtocol, types.InitProtocolArgs{
		CollateralMint:       collateralMint.Bytes(),
		DebtMint:             debtMint.Bytes(),
		CollateralRatio:      scaled[0],
		LiquidationThreshold: scaled[1],
		InterestRate:         scaled[2],
	})
}

func runMint(e *env, args []string) (interface{}, error) {
	fs := newFlagSet("mint")
	key := addKeyFlags(fs)
	deposit := fs.Uint64("deposit", 0, "Collateral to deposit")
	amount := fs.Uint64("amount", 0, "Debt tokens to mint")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return e.submit(key, types.ProgramCDP, types.OpMint, types.MintArgs{Deposit: *deposit, Amount: *amount})
}

func runRedeem(e *env, args []string) (interface{}, error) {
	fs := newFlagSet("redeem")
	key := addKeyFlags(fs)
	amount := fs.Uint64("amount", 0, "Debt tokens to burn")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return e.submit(key, types.ProgramCDP, types.OpRedeem, types.RedeemArgs{Amount: *amount})
}

func runLiquidate(e *env, args []string) (interface{}, error) {
	fs := newFlagSet("liquidate")
	key := addKeyFlags(fs)
	owner := fs.String("owner", "", "Owner of the vault to liquidate")
	amount := fs.Uint64("amount", 0, "Debt to repay")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	ownerAddr, err := parseAccount(*owner)
	if err != nil {
		return nil, fmt.Errorf("--owner: %w", err)
	}
	return e.submit(key, types.ProgramCDP, types.OpLiquidate, types.LiquidateArgs{Owner: ownerAddr.Bytes(), Amount: *amount})
}

func runAccrue(e *env, args []string) (interface{}, error) {
	fs := newFlagSet("accrue")
	key := addKeyFlags(fs)
	owner := fs.String("owner", "", "Vault owner; defaults to the signer")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	var accrueArgs types.AccrueArgs
	if strings.TrimSpace(*owner) != "" {
		ownerAddr, err := parseAccount(*owner)
		if err != nil {
			return nil, fmt.Errorf("--owner: %w", err)
		}
		accrueArgs.Owner = ownerAddr.Bytes()
	}
	return e.submit(key, types.ProgramCDP, types.OpAccrue, accrueArgs)
}

func runProtocol(e *env, args []string) (interface{}, error) {
	if err := newFlagSet("protocol").Parse(args); err != nil {
		return nil, err
	}
	return e.rt.Protocol()
}

func runVault(e *env, args []string) (interface{}, error) {
	fs := newFlagSet("vault")
	owner := fs.String("owner", "", "Vault owner")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	ownerAddr, err := parseAccount(*owner)
	if err != nil {
		return nil, fmt.Errorf("--owner: %w", err)
	}
	return e.rt.VaultHealth(ownerAddr)
}

func runInitIssuance(e *env, args []string) (interface{}, error) {
	fs := newFlagSet("init-issuance")
	key := addKeyFlags(fs)
	token := fs.String("token-mint", "", "Issued token mint (bech32 or name)")
	maxSupply := fs.Uint64("max-supply", e.cfg.Issuance.MaxSupply, "Supply cap")
	price := fs.Uint64("price", e.cfg.Issuance.MintPrice, "Price per token in the payment mint")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	mint, err := parseMint(*token)
	if err != nil {
		return nil, fmt.Errorf("--token-mint: %w", err)
	}
	return e.submit(key, types.ProgramIssuance, types.OpInitIssuance, types.InitIssuanceArgs{
		TokenMint: mint.Bytes(),
		MaxSupply: *maxSupply,
		MintPrice: *price,
	})
}

func runMintTokens(e *env, args []string) (interface{}, error) {
	fs := newFlagSet("mint-tokens")
	key := addKeyFlags(fs)
	amount := fs.Uint64("amount", 0, "Tokens to mint")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return e.submit(key, types.ProgramIssuance, types.OpMintTokens, types.MintTokensArgs{Amount: *amount})
}

func runUpdateIssuance(e *env, args []string) (interface{}, error) {
	fs := newFlagSet("update-issuance")
	key := addKeyFlags(fs)
	maxSupply := fs.Uint64("max-supply", 0, "New supply cap")
	price := fs.Uint64("price", 0, "New mint price")
	active := fs.Bool("active", true, "Whether minting is enabled")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	patch := types.UpdateIssuanceArgs{MaxSupply: *maxSupply, MintPrice: *price, IsActive: *active}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "max-supply":
			patch.SetMaxSupply = true
		case "price":
			patch.SetMintPrice = true
		case "active":
			patch.SetIsActive = true
		}
	})
	return e.submit(key, types.ProgramIssuance, types.OpUpdateIssuance, patch)
}

func runSetMetadata(e *env, args []string) (interface{}, error) {
	fs := newFlagSet("set-metadata")
	key := addKeyFlags(fs)
	mintFlag := fs.String("mint", "", "Token mint (bech32 or name)")
	name := fs.String("name", "", "Token name")
	symbol := fs.String("symbol", "", "Token symbol")
	uri := fs.String("uri", "", "Metadata URI")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	mint, err := parseMint(*mintFlag)
	if err != nil {
		return nil, fmt.Errorf("--mint: %w", err)
	}
	return e.submit(key, types.ProgramIssuance, types.OpSetMetadata, types.SetMetadataArgs{
		Mint:   mint.Bytes(),
		Name:   *name,
		Symbol: *symbol,
		URI:    *uri,
	})
}

func runIssuance(e *env, args []string) (interface{}, error) {
	if err := newFlagSet("issuance").Parse(args); err != nil {
		return nil, err
	}
	return e.rt.IssuanceConfig()
}

func runMinter(e *env, args []string) (interface{}, error) {
	fs := newFlagSet("minter")
	user := fs.String("user", "", "Minting account")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	addr, err := parseAccount(*user)
	if err != nil {
		return nil, fmt.Errorf("--user: %w", err)
	}
	return e.rt.Minter(addr)
}

func runMetadata(e *env, args []string) (interface{}, error) {
	fs := newFlagSet("metadata")
	mintFlag := fs.String("mint", "", "Token mint (bech32 or name)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	mint, err := parseMint(*mintFlag)
	if err != nil {
		return nil, fmt.Errorf("--mint: %w", err)
	}
	return e.rt.Metadata(mint)
}

func runFaucet(e *env, args []string) (interface{}, error) {
	fs := newFlagSet("faucet")
	mintFlag := fs.String("mint", "", "Token mint (bech32 or name)")
	to := fs.String("to", "", "Recipient account")
	amount := fs.Uint64("amount", 0, "Amount to credit")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if e.cfg.Environment == "production" {
		return nil, errors.New("faucet is disabled in production")
	}
	mint, err := parseMint(*mintFlag)
	if err != nil {
		return nil, fmt.Errorf("--mint: %w", err)
	}
	recipient, err := parseAccount(*to)
	if err != nil {
		return nil, fmt.Errorf("--to: %w", err)
	}
	if err := e.rt.Faucet(mint, recipient, *amount); err != nil {
		return nil, err
	}
	balance, err := e.rt.Balance(mint, recipient)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"mint": mint, "owner": recipient, "balance": balance}, nil
}

func runBalance(e *env, args []string) (interface{}, error) {
	fs := newFlagSet("balance")
	mintFlag := fs.String("mint", "", "Token mint (bech32 or name)")
	owner := fs.String("owner", "", "Account or program address")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	mint, err := parseMint(*mintFlag)
	if err != nil {
		return nil, fmt.Errorf("--mint: %w", err)
	}
	addr, err := crypto.DecodeAddress(strings.TrimSpace(*owner))
	if err != nil {
		return nil, fmt.Errorf("--owner: %w", err)
	}
	balance, err := e.rt.Balance(mint, addr)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"mint": mint, "owner": addr, "balance": balance}, nil
}

func runNonce(e *env, args []string) (interface{}, error) {
	fs := newFlagSet("nonce")
	address := fs.String("address", "", "Account address")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	addr, err := parseAccount(*address)
	if err != nil {
		return nil, fmt.Errorf("--address: %w", err)
	}
	nonce, err := e.rt.Nonce(addr)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"address": addr, "nonce": nonce}, nil
}

// parseMint accepts a bech32 mint address or a short name. Names map to a
// deterministic mint identity so development setups need no address juggling.
func parseMint(raw string) (crypto.Address, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return crypto.Address{}, errors.New("value required")
	}
	if addr, err := crypto.DecodeAddress(trimmed); err == nil {
		if addr.Prefix() != crypto.MintPrefix {
			return crypto.Address{}, fmt.Errorf("expected %s address, got %s", crypto.MintPrefix, addr.Prefix())
		}
		return addr, nil
	}
	if trimmed == "native" {
		return issuance.NativeMint, nil
	}
	return crypto.ProgramID("mint:" + strings.ToLower(trimmed)).WithPrefix(crypto.MintPrefix), nil
}

func parseAccount(raw string) (crypto.Address, error) {
	addr, err := crypto.DecodeAddress(strings.TrimSpace(raw))
	if err != nil {
		return crypto.Address{}, err
	}
	if addr.Prefix() != crypto.AccountPrefix {
		return crypto.Address{}, fmt.Errorf("expected %s address, got %s", crypto.AccountPrefix, addr.Prefix())
	}
	return addr, nil
}
