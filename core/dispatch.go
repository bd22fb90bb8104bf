package core

import (
	"fmt"

	"basalt/core/events"
	"basalt/core/state"
	"basalt/core/types"
	"basalt/crypto"
	"basalt/native/cdp"
	"basalt/native/fixedpoint"
	"basalt/native/issuance"
)

// RedeemResult reports the vault after a redeem and the collateral released.
type RedeemResult struct {
	Vault    *cdp.UserVault `json:"vault"`
	Released uint64         `json:"released"`
}

type LiquidateResult struct {
	Vault  *cdp.UserVault `json:"vault"`
	Seized uint64         `json:"seized"`
}

type AccrueResult struct {
	Vault    *cdp.UserVault `json:"vault"`
	Interest uint64         `json:"interest"`
}

func (r *Runtime) apply(m *state.Manager, emitter events.Emitter, signer crypto.Signer, ins *types.Instruction) (interface{}, error) {
	expected, err := m.Nonce(signer.Address())
	if err != nil {
		return nil, err
	}
	if ins.Nonce != expected {
		return nil, fmt.Errorf("%w: expected %d, got %d", ErrNonceMismatch, expected, ins.Nonce)
	}
	if err := m.SetNonce(signer.Address(), expected+1); err != nil {
		return nil, err
	}

	switch ins.Program {
	case types.ProgramCDP:
		return r.dispatchCDP(r.cdpEngine(m, emitter), signer, ins)
	case types.ProgramIssuance:
		return r.dispatchIssuance(r.issuanceEngine(m, emitter), signer, ins)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProgram, ins.Program)
	}
}

func (r *Runtime) dispatchCDP(engine *cdp.Engine, signer crypto.Signer, ins *types.Instruction) (interface{}, error) {
	switch ins.Op {
	case types.OpInitProtocol:
		var args types.InitProtocolArgs
		if err := decodeArgs(ins, &args); err != nil {
			return nil, err
		}
		collateral, err := addressArg("collateral mint", crypto.MintPrefix, args.CollateralMint)
		if err != nil {
			return nil, err
		}
		debt, err := addressArg("debt mint", crypto.MintPrefix, args.DebtMint)
		if err != nil {
			return nil, err
		}
		return engine.InitializeProtocol(signer, collateral, debt, args.CollateralRatio, args.InterestRate, args.LiquidationThreshold)
	case types.OpMint:
		var args types.MintArgs
		if err := decodeArgs(ins, &args); err != nil {
			return nil, err
		}
		return engine.Mint(signer, args.Deposit, args.Amount)
	case types.OpRedeem:
		var args types.RedeemArgs
		if err := decodeArgs(ins, &args); err != nil {
			return nil, err
		}
		vault, released, err := engine.Redeem(signer, args.Amount)
		if err != nil {
			return nil, err
		}
		return &RedeemResult{Vault: vault, Released: released}, nil
	case types.OpLiquidate:
		var args types.LiquidateArgs
		if err := decodeArgs(ins, &args); err != nil {
			return nil, err
		}
		owner, err := addressArg("owner", crypto.AccountPrefix, args.Owner)
		if err != nil {
			return nil, err
		}
		vault, seized, err := engine.Liquidate(signer, owner, args.Amount)
		if err != nil {
			return nil, err
		}
		return &LiquidateResult{Vault: vault, Seized: seized}, nil
	case types.OpAccrue:
		var args types.AccrueArgs
		if err := decodeArgs(ins, &args); err != nil {
			return nil, err
		}
		owner := signer.Address()
		if len(args.Owner) > 0 {
			var err error
			if owner, err = addressArg("owner", crypto.AccountPrefix, args.Owner); err != nil {
				return nil, err
			}
		}
		vault, interest, err := engine.AccrueInterest(owner)
		if err != nil {
			return nil, err
		}
		return &AccrueResult{Vault: vault, Interest: interest}, nil
	default:
		return nil, fmt.Errorf("%w: %s.%s", ErrUnknownOp, ins.Program, ins.Op)
	}
}

func (r *Runtime) dispatchIssuance(engine *issuance.Engine, signer crypto.Signer, ins *types.Instruction) (interface{}, error) {
	switch ins.Op {
	case types.OpInitIssuance:
		var args types.InitIssuanceArgs
		if err := decodeArgs(ins, &args); err != nil {
			return nil, err
		}
		mint, err := addressArg("token mint", crypto.MintPrefix, args.TokenMint)
		if err != nil {
			return nil, err
		}
		return engine.InitializeConfig(signer, mint, args.MaxSupply, args.MintPrice)
	case types.OpMintTokens:
		var args types.MintTokensArgs
		if err := decodeArgs(ins, &args); err != nil {
			return nil, err
		}
		return engine.MintTokens(signer, signer, args.Amount)
	case types.OpUpdateIssuance:
		var args types.UpdateIssuanceArgs
		if err := decodeArgs(ins, &args); err != nil {
			return nil, err
		}
		var patch issuance.ConfigPatch
		if args.SetMaxSupply {
			patch.MaxSupply = &args.MaxSupply
		}
		if args.SetMintPrice {
			patch.MintPrice = &args.MintPrice
		}
		if args.SetIsActive {
			patch.IsActive = &args.IsActive
		}
		return engine.UpdateConfig(signer, patch)
	case types.OpSetMetadata:
		var args types.SetMetadataArgs
		if err := decodeArgs(ins, &args); err != nil {
			return nil, err
		}
		mint, err := addressArg("mint", crypto.MintPrefix, args.Mint)
		if err != nil {
			return nil, err
		}
		return engine.SetMetadata(signer, mint, args.Name, args.Symbol, args.URI)
	default:
		return nil, fmt.Errorf("%w: %s.%s", ErrUnknownOp, ins.Program, ins.Op)
	}
}

func decodeArgs(ins *types.Instruction, out interface{}) error {
	if err := ins.DecodeArgs(out); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArgs, err)
	}
	return nil
}

func addressArg(field string, prefix crypto.AddressPrefix, raw []byte) (crypto.Address, error) {
	addr, err := crypto.NewAddress(prefix, raw)
	if err != nil {
		return crypto.Address{}, fmt.Errorf("%w: %s: %v", ErrInvalidArgs, field, err)
	}
	return addr, nil
}

func formatRatio(ratio uint64) string {
	if ratio == fixedpoint.MaxRatio {
		return "max"
	}
	return fixedpoint.FormatDecimal(ratio)
}
