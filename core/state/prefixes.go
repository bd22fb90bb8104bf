package state

var (
	protocolPrefix   = []byte("cdp/protocol/")
	vaultPrefix      = []byte("cdp/vault/")
	vaultCountPrefix = []byte("cdp/vault-count/")

	mintingConfigPrefix = []byte("issuance/config/")
	minterPrefix        = []byte("issuance/minter/")
	metadataPrefix      = []byte("issuance/metadata/")

	mintPrefix    = []byte("token/mint/")
	balancePrefix = []byte("token/balance/")

	noncePrefix = []byte("account/nonce/")
)
