package routes

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"basalt/core"
	"basalt/core/types"
	"basalt/crypto"
	"basalt/native/cdp"
	nativecommon "basalt/native/common"
	"basalt/native/issuance"
)

const requestLimit = 1 << 20 // 1 MiB

type handlers struct {
	rt     Runtime
	logger *slog.Logger
}

type errorResponse struct {
	Error    string `json:"error"`
	Category string `json:"category,omitempty"`
}

type faucetRequest struct {
	Mint   string `json:"mint"`
	To     string `json:"to"`
	Amount uint64 `json:"amount"`
}

type balanceResponse struct {
	Mint    crypto.Address `json:"mint"`
	Owner   crypto.Address `json:"owner"`
	Balance uint64         `json:"balance"`
}

func (h *handlers) submitInstruction(w http.ResponseWriter, r *http.Request) {
	var ins types.Instruction
	if err := decodeBody(r, &ins); err != nil {
		writeBadRequest(w, err)
		return
	}
	receipt, err := h.rt.Execute(&ins)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, receipt)
}

func (h *handlers) getProtocol(w http.ResponseWriter, _ *http.Request) {
	cfg, err := h.rt.Protocol()
	h.respond(w, cfg, err)
}

func (h *handlers) getVault(w http.ResponseWriter, r *http.Request) {
	owner, ok := pathAddress(w, r, "owner", crypto.AccountPrefix)
	if !ok {
		return
	}
	view, err := h.rt.VaultHealth(owner)
	h.respond(w, view, err)
}

func (h *handlers) getIssuanceConfig(w http.ResponseWriter, _ *http.Request) {
	cfg, err := h.rt.IssuanceConfig()
	h.respond(w, cfg, err)
}

func (h *handlers) getMinter(w http.ResponseWriter, r *http.Request) {
	user, ok := pathAddress(w, r, "user", crypto.AccountPrefix)
	if !ok {
		return
	}
	record, err := h.rt.Minter(user)
	h.respond(w, record, err)
}

func (h *handlers) getMetadata(w http.ResponseWriter, r *http.Request) {
	mint, ok := pathAddress(w, r, "mint", crypto.MintPrefix)
	if !ok {
		return
	}
	meta, err := h.rt.Metadata(mint)
	h.respond(w, meta, err)
}

func (h *handlers) getNonce(w http.ResponseWriter, r *http.Request) {
	addr, ok := pathAddress(w, r, "address", crypto.AccountPrefix)
	if !ok {
		return
	}
	nonce, err := h.rt.Nonce(addr)
	h.respond(w, map[string]interface{}{"address": addr, "nonce": nonce}, err)
}

func (h *handlers) getBalance(w http.ResponseWriter, r *http.Request) {
	mint, ok := pathAddress(w, r, "mint", crypto.MintPrefix)
	if !ok {
		return
	}
	owner, ok := pathAddress(w, r, "owner", "")
	if !ok {
		return
	}
	balance, err := h.rt.Balance(mint, owner)
	h.respond(w, balanceResponse{Mint: mint, Owner: owner, Balance: balance}, err)
}

func (h *handlers) faucet(w http.ResponseWriter, r *http.Request) {
	var req faucetRequest
	if err := decodeBody(r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}
	mint, err := parseAddress(req.Mint, crypto.MintPrefix)
	if err != nil {
		writeBadRequest(w, fmt.Errorf("mint: %w", err))
		return
	}
	to, err := parseAddress(req.To, crypto.AccountPrefix)
	if err != nil {
		writeBadRequest(w, fmt.Errorf("to: %w", err))
		return
	}
	if err := h.rt.Faucet(mint, to, req.Amount); err != nil {
		h.writeError(w, err)
		return
	}
	balance, err := h.rt.Balance(mint, to)
	h.respond(w, balanceResponse{Mint: mint, Owner: to, Balance: balance}, err)
}

func (h *handlers) respond(w http.ResponseWriter, body interface{}, err error) {
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, body)
}

func (h *handlers) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", slog.Any("error", err))
	}
	resp := errorResponse{Error: err.Error()}
	if category := nativecommon.CategoryOf(err); category != nativecommon.CategoryUnknown {
		resp.Category = category.String()
	}
	writeJSON(w, status, resp)
}

var notFound = []error{
	cdp.ErrProtocolNotInitialized,
	cdp.ErrVaultNotFound,
	issuance.ErrConfigNotInitialized,
	issuance.ErrMinterNotFound,
	issuance.ErrMetadataNotFound,
}

var badRequest = []error{
	core.ErrInvalidArgs,
	core.ErrUnknownProgram,
	core.ErrUnknownOp,
	types.ErrUnsigned,
	crypto.ErrInvalidSignature,
}

func statusFor(err error) int {
	for _, target := range notFound {
		if errors.Is(err, target) {
			return http.StatusNotFound
		}
	}
	for _, target := range badRequest {
		if errors.Is(err, target) {
			return http.StatusBadRequest
		}
	}
	if errors.Is(err, core.ErrNonceMismatch) {
		return http.StatusConflict
	}
	switch nativecommon.CategoryOf(err) {
	case nativecommon.CategoryAuthorization:
		return http.StatusForbidden
	case nativecommon.CategoryPrecondition, nativecommon.CategoryArithmetic:
		return http.StatusUnprocessableEntity
	case nativecommon.CategoryState:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func pathAddress(w http.ResponseWriter, r *http.Request, param string, prefix crypto.AddressPrefix) (crypto.Address, bool) {
	addr, err := parseAddress(chi.URLParam(r, param), prefix)
	if err != nil {
		writeBadRequest(w, fmt.Errorf("%s: %w", param, err))
		return crypto.Address{}, false
	}
	return addr, true
}

// parseAddress decodes a bech32 address. An empty prefix accepts any.
func parseAddress(raw string, prefix crypto.AddressPrefix) (crypto.Address, error) {
	addr, err := crypto.DecodeAddress(strings.TrimSpace(raw))
	if err != nil {
		return crypto.Address{}, err
	}
	if prefix != "" && addr.Prefix() != prefix {
		return crypto.Address{}, fmt.Errorf("expected %s address, got %s", prefix, addr.Prefix())
	}
	return addr, nil
}

func decodeBody(r *http.Request, out interface{}) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, requestLimit+1))
	if err != nil {
		return err
	}
	if len(body) > requestLimit {
		return errors.New("request body too large")
	}
	decoder := json.NewDecoder(strings.NewReader(string(body)))
	decoder.DisallowUnknownFields()
	return decoder.Decode(out)
}

func writeBadRequest(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
