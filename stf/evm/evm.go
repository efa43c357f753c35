// Package evm adds the EVM call and getter variants to the stf tables.
// Contract bytecode is stored but never executed here.
package evm

import (
	"errors"
	"sync"

	"github.com/colorfulnotion/sidechain/common"
	"github.com/colorfulnotion/sidechain/ledger"
	"github.com/colorfulnotion/sidechain/log"
	"github.com/colorfulnotion/sidechain/stf"
	ethcommon "github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

var (
	ErrBadOrigin       = errors.New("BadOrigin")
	ErrInvalidNonce    = errors.New("InvalidNonce")
	ErrNoCode          = errors.New("TargetHasNoCode")
	ErrCreateCollision = errors.New("CreateCollision")
	ErrValueOverflow   = errors.New("BalanceOverflow")
)

// Withdraw moves native balance from the account backing Address to From.
type Withdraw struct {
	From    common.AccountId
	Address common.Address
	Value   common.Balance
}

type Call struct {
	From                 common.AccountId
	Source               common.Address
	Target               common.Address
	Input                []byte
	Value                U256
	GasLimit             uint64
	MaxFeePerGas         U256
	MaxPriorityFeePerGas *U256
	Nonce                *U256
	AccessList           []AccessListItem
}

type Create struct {
	From                 common.AccountId
	Source               common.Address
	Init                 []byte
	Value                U256
	GasLimit             uint64
	MaxFeePerGas         U256
	MaxPriorityFeePerGas *U256
	Nonce                *U256
	AccessList           []AccessListItem
}

type Create2 struct {
	From                 common.AccountId
	Source               common.Address
	Init                 []byte
	Salt                 common.Hash
	Value                U256
	GasLimit             uint64
	MaxFeePerGas         U256
	MaxPriorityFeePerGas *U256
	Nonce                *U256
	AccessList           []AccessListItem
}

func (c Withdraw) Signer() common.AccountId { return c.From }
func (c Call) Signer() common.AccountId     { return c.From }
func (c Create) Signer() common.AccountId   { return c.From }
func (c Create2) Signer() common.AccountId  { return c.From }

// NonceOf returns the EVM nonce of who's truncated address.
type NonceOf struct {
	Who common.AccountId
}

type AccountCodes struct {
	Who     common.AccountId
	Address common.Address
}

type AccountStorages struct {
	Who     common.AccountId
	Address common.Address
	Index   common.Hash
}

func (q NonceOf) Signer() common.AccountId         { return q.Who }
func (q AccountCodes) Signer() common.AccountId    { return q.Who }
func (q AccountStorages) Signer() common.AccountId { return q.Who }

// Module is the name to list in stf.Env.Modules to enable the EVM variants.
const Module = "evm"

var once sync.Once

// Register adds the EVM variants. It is safe to call more than once.
func Register() {
	once.Do(func() {
		stf.RegisterCall(stf.CallSpec{Index: 22, Name: "evm_withdraw", Module: Module, Variant: Withdraw{}, Dispatch: stf.HandleCall(withdraw)})
		stf.RegisterCall(stf.CallSpec{Index: 23, Name: "evm_call", Module: Module, Variant: Call{}, Dispatch: stf.HandleCall(call)})
		stf.RegisterCall(stf.CallSpec{Index: 24, Name: "evm_create", Module: Module, Variant: Create{}, Dispatch: stf.HandleCall(create)})
		stf.RegisterCall(stf.CallSpec{Index: 25, Name: "evm_create2", Module: Module, Variant: Create2{}, Dispatch: stf.HandleCall(create2)})

		stf.RegisterTrustedGetter(stf.GetterSpec{Index: 17, Name: "evm_nonce", Module: Module, Variant: NonceOf{}, Execute: stf.HandleGetter(nonce)})
		stf.RegisterTrustedGetter(stf.GetterSpec{Index: 18, Name: "evm_account_codes", Module: Module, Variant: AccountCodes{}, Execute: stf.HandleGetter(accountCodes)})
		stf.RegisterTrustedGetter(stf.GetterSpec{Index: 19, Name: "evm_account_storages", Module: Module, Variant: AccountStorages{}, Execute: stf.HandleGetter(accountStorages)})
		log.Debug(log.EvmMonitoring, "evm variants registered")
	})
}

func ensureOrigin(from common.AccountId, source common.Address) error {
	if AddressOf(from) != source {
		return ErrBadOrigin
	}
	return nil
}

func withdraw(ctx *stf.Context, c Withdraw) error {
	log.Debug(log.EvmMonitoring, "evm_withdraw", "from", c.From.Short(), "address", c.Address, "value", c.Value)
	if err := ensureOrigin(c.From, c.Address); err != nil {
		return stf.Failed("Evm Withdraw", err)
	}
	return stf.Failed("Evm Withdraw", ctx.State.Transfer(AccountOf(c.Address), c.From, c.Value))
}

// begin checks the origin and the optional nonce of a transaction from source,
// then bumps the source nonce. It returns the nonce the transaction ran at.
func begin(w ledger.Writer, from common.AccountId, source common.Address, want *U256) (uint32, error) {
	if err := ensureOrigin(from, source); err != nil {
		return 0, err
	}
	account := AccountOf(source)
	n, err := w.AccountNonce(account)
	if err != nil {
		return 0, err
	}
	if want != nil && (want.Int().BitLen() > 32 || uint32(want.Int().Uint64()) != n) {
		return 0, ErrInvalidNonce
	}
	return n, w.IncAccountNonce(account)
}

func transferValue(w ledger.Writer, from, to common.Address, value U256) error {
	if value.IsZero() {
		return nil
	}
	v, err := value.Balance()
	if err != nil {
		return err
	}
	return w.Transfer(AccountOf(from), AccountOf(to), v)
}

// call records keccak(code ++ input) under slot keccak(input) of the target.
func call(ctx *stf.Context, c Call) error {
	log.Debug(log.EvmMonitoring, "evm_call", "from", c.From.Short(), "source", c.Source, "target", c.Target)
	if _, err := begin(ctx.State, c.From, c.Source, c.Nonce); err != nil {
		return stf.Failed("Evm Call", err)
	}
	code, ok, err := ctx.State.EvmCode(c.Target)
	if err != nil {
		return err
	}
	if !ok {
		return stf.Failed("Evm Call", ErrNoCode)
	}
	if err := transferValue(ctx.State, c.Source, c.Target, c.Value); err != nil {
		return stf.Failed("Evm Call", err)
	}
	slot := common.Keccak256(c.Input)
	value := common.Keccak256(append(append([]byte{}, code...), c.Input...))
	return stf.Failed("Evm Call", ctx.State.SetEvmStorage(c.Target, slot, value))
}

func deploy(w ledger.Writer, source, addr common.Address, init []byte, value U256) error {
	if _, exists, err := w.EvmCode(addr); err != nil {
		return err
	} else if exists {
		return ErrCreateCollision
	}
	if err := transferValue(w, source, addr, value); err != nil {
		return err
	}
	return w.SetEvmCode(addr, init)
}

// CreateAddress is the address of a contract deployed by source at nonce.
func CreateAddress(source common.Address, nonce uint32) common.Address {
	return common.Address(ethcrypto.CreateAddress(ethcommon.Address(source), uint64(nonce)))
}

// Create2Address is the address of a contract deployed with CREATE2.
func Create2Address(source common.Address, salt common.Hash, init []byte) common.Address {
	codeHash := common.Keccak256(init)
	return common.Address(ethcrypto.CreateAddress2(ethcommon.Address(source), salt, codeHash[:]))
}

func create(ctx *stf.Context, c Create) error {
	n, err := begin(ctx.State, c.From, c.Source, c.Nonce)
	if err != nil {
		return stf.Failed("Evm Create", err)
	}
	addr := CreateAddress(c.Source, n)
	log.Info(log.EvmMonitoring, "Trying to create evm contract", "address", addr, "source", c.Source, "value", c.Value)
	return stf.Failed("Evm Create", deploy(ctx.State, c.Source, addr, c.Init, c.Value))
}

func create2(ctx *stf.Context, c Create2) error {
	if _, err := begin(ctx.State, c.From, c.Source, c.Nonce); err != nil {
		return stf.Failed("Evm Create2", err)
	}
	addr := Create2Address(c.Source, c.Salt, c.Init)
	log.Info(log.EvmMonitoring, "Trying to create evm contract", "address", addr, "source", c.Source, "value", c.Value)
	return stf.Failed("Evm Create2", deploy(ctx.State, c.Source, addr, c.Init, c.Value))
}

func nonce(r ledger.Reader, q NonceOf) ([]byte, bool, error) {
	n, err := r.AccountNonce(AccountOf(AddressOf(q.Who)))
	if err != nil {
		return nil, false, err
	}
	return stf.EncodeResult(n)
}

func accountCodes(r ledger.Reader, q AccountCodes) ([]byte, bool, error) {
	code, ok, err := r.EvmCode(q.Address)
	if err != nil || !ok {
		return nil, false, err
	}
	return stf.EncodeResult(code)
}

func accountStorages(r ledger.Reader, q AccountStorages) ([]byte, bool, error) {
	v, ok, err := r.EvmStorage(q.Address, q.Index)
	if err != nil || !ok {
		return nil, false, err
	}
	return stf.EncodeResult(v)
}
