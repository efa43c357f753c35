package ledger

import "github.com/colorfulnotion/sidechain/common"

func (s *State) EvmCode(addr common.Address) ([]byte, bool, error) {
	return get[[]byte](s, EvmAccountCodesKey(addr))
}

func (s *State) SetEvmCode(addr common.Address, code []byte) error {
	return s.put(EvmAccountCodesKey(addr), code)
}

func (s *State) EvmStorage(addr common.Address, slot common.Hash) (common.Hash, bool, error) {
	return get[common.Hash](s, EvmAccountStoragesKey(addr, slot))
}

func (s *State) SetEvmStorage(addr common.Address, slot, value common.Hash) error {
	return s.put(EvmAccountStoragesKey(addr, slot), value)
}
