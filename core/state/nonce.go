package state

import "basalt/crypto"

// Nonce returns the next instruction nonce expected from addr.
func (m *Manager) Nonce(addr crypto.Address) (uint64, error) {
	var nonce uint64
	if _, err := m.getRLP(hashKey(noncePrefix, addr.Bytes()), &nonce); err != nil {
		return 0, err
	}
	return nonce, nil
}

func (m *Manager) SetNonce(addr crypto.Address, nonce uint64) error {
	return m.putRLP(hashKey(noncePrefix, addr.Bytes()), nonce)
}
