package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/colorfulnotion/sidechain/codec"
	"github.com/colorfulnotion/sidechain/common"
	"github.com/colorfulnotion/sidechain/crypto"
	"github.com/colorfulnotion/sidechain/engine"
	"github.com/colorfulnotion/sidechain/ledger"
	"github.com/colorfulnotion/sidechain/stf"
	"github.com/colorfulnotion/sidechain/storageproof"
	"github.com/mr-tron/base58"
	"github.com/spf13/cobra"
)

func printJSON(w io.Writer, v interface{}) error {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(jsonData))
	return err
}

// parseHash32 accepts 0x hex or base58, the form the worker prints mrenclave
// and shard identifiers in.
func parseHash32(s string) ([32]byte, error) {
	var out [32]byte
	var raw []byte
	if strings.HasPrefix(s, "0x") {
		raw = common.FromHex(s)
	} else {
		b, err := base58.Decode(s)
		if err != nil {
			return out, fmt.Errorf("%q is neither 0x hex nor base58: %w", s, err)
		}
		raw = b
	}
	if len(raw) != len(out) {
		return out, fmt.Errorf("%q: want 32 bytes, got %d", s, len(raw))
	}
	copy(out[:], raw)
	return out, nil
}

// parsePair resolves "//name" to a dev key, or a 0x seed of the given scheme.
func parsePair(s string, scheme crypto.Scheme) (crypto.Pair, error) {
	if name, ok := strings.CutPrefix(s, "//"); ok {
		return crypto.DevPair(name), nil
	}
	return crypto.PairFromSeed(scheme, common.FromHex(s))
}

// parseAccount resolves "//name" to a dev account, otherwise 0x hex.
func parseAccount(s string) (common.AccountId, error) {
	if name, ok := strings.CutPrefix(s, "//"); ok {
		return crypto.DevPair(name).AccountId(), nil
	}
	raw := common.FromHex(s)
	if len(raw) != 32 {
		return common.AccountId{}, fmt.Errorf("account %q: want 32 bytes, got %d", s, len(raw))
	}
	return common.BytesToAccountId(raw), nil
}

// enclaveFlags binds --mrenclave and --shard, falling back to the config.
type enclaveFlags struct {
	mrenclave string
	shard     string
}

func (f *enclaveFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.mrenclave, "mrenclave", "", "Enclave measurement (0x hex or base58)")
	cmd.Flags().StringVar(&f.shard, "shard", "", "Shard identifier (0x hex or base58), defaults to the mrenclave")
}

func (f *enclaveFlags) resolve(cfg engine.Config) (common.MrEnclave, common.ShardIdentifier, error) {
	if f.mrenclave != "" {
		m, err := parseHash32(f.mrenclave)
		if err != nil {
			return common.MrEnclave{}, common.Hash{}, err
		}
		cfg.MrEnclave = m
	}
	if f.shard != "" {
		s, err := parseHash32(f.shard)
		if err != nil {
			return common.MrEnclave{}, common.Hash{}, err
		}
		cfg.Shard = s
	}
	return cfg.MrEnclave, cfg.ShardId(), nil
}

type keyOutput struct {
	Scheme  string           `json:"scheme"`
	Account common.AccountId `json:"account"`
	Base58  string           `json:"account_base58"`
	Seed    string           `json:"seed"`
	Address *common.Address  `json:"evm_address,omitempty"`
}

func keygenCmd() *cobra.Command {
	var scheme, seed, name string
	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate or restore a signing key",
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := crypto.ParseScheme(scheme)
			if err != nil {
				return err
			}
			var pair crypto.Pair
			switch {
			case name != "":
				pair = crypto.DevPair(name)
			case seed != "":
				pair, err = crypto.PairFromSeed(sc, common.FromHex(seed))
			default:
				pair, err = crypto.GeneratePair(sc)
			}
			if err != nil {
				return err
			}
			account := pair.AccountId()
			out := keyOutput{
				Scheme:  pair.Scheme().String(),
				Account: account,
				Base58:  base58.Encode(account[:]),
				Seed:    common.Bytes2Hex(pair.Seed()),
			}
			if ep, ok := pair.(*crypto.EcdsaPair); ok {
				addr := ep.Address()
				out.Address = &addr
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().StringVar(&scheme, "scheme", "ed25519", "Signature scheme (ed25519, ecdsa)")
	cmd.Flags().StringVar(&seed, "seed", "", "Restore from a 0x hex seed")
	cmd.Flags().StringVar(&name, "dev", "", "Derive the deterministic dev key of this name")
	return cmd
}

type signedOutput struct {
	Variant   string      `json:"variant"`
	Sender    string      `json:"sender"`
	Nonce     uint32      `json:"nonce"`
	CallHash  common.Hash `json:"call_hash"`
	MrEnclave string      `json:"mrenclave"`
	Shard     string      `json:"shard"`
	Signed    string      `json:"signed"`
	Valid     *bool       `json:"valid,omitempty"`
}

func describe(signed stf.TrustedCallSigned, mrenclave common.MrEnclave, shard common.ShardIdentifier) (signedOutput, error) {
	hash, err := signed.Call.Hash()
	if err != nil {
		return signedOutput{}, err
	}
	enc, err := codec.Marshal(signed)
	if err != nil {
		return signedOutput{}, err
	}
	return signedOutput{
		Variant:   signed.Call.Name(),
		Sender:    signed.Sender().Hex(),
		Nonce:     signed.Nonce,
		CallHash:  hash,
		MrEnclave: base58.Encode(mrenclave[:]),
		Shard:     base58.Encode(shard[:]),
		Signed:    common.Bytes2Hex(enc),
	}, nil
}

func signCallCmd(cfg *engine.Config) *cobra.Command {
	var (
		ef       enclaveFlags
		scheme   string
		signer   string
		to       string
		amount   string
		nonce    uint32
		unshield bool
	)
	cmd := &cobra.Command{
		Use:   "sign-call",
		Short: "Sign a balance transfer or unshield call",
		RunE: func(cmd *cobra.Command, args []string) error {
			mrenclave, shard, err := ef.resolve(*cfg)
			if err != nil {
				return err
			}
			sc, err := crypto.ParseScheme(scheme)
			if err != nil {
				return err
			}
			pair, err := parsePair(signer, sc)
			if err != nil {
				return err
			}
			dest, err := parseAccount(to)
			if err != nil {
				return err
			}
			value, err := common.ParseBalance(amount)
			if err != nil {
				return err
			}
			var call stf.Call = stf.BalanceTransfer{From: pair.AccountId(), To: dest, Value: value}
			if unshield {
				call = stf.BalanceUnshield{Incognito: pair.AccountId(), Beneficiary: dest, Value: value, Shard: shard}
			}
			signed, err := stf.NewTrustedCall(call).Sign(pair, nonce, mrenclave, shard)
			if err != nil {
				return err
			}
			out, err := describe(signed, mrenclave, shard)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
	ef.bind(cmd)
	cmd.Flags().StringVar(&scheme, "scheme", "ed25519", "Signature scheme of --signer")
	cmd.Flags().StringVar(&signer, "signer", "//alice", "Signer: //name for a dev key or a 0x seed")
	cmd.Flags().StringVar(&to, "to", "//bob", "Recipient: //name or 0x account")
	cmd.Flags().StringVar(&amount, "amount", "1", "Amount in base units")
	cmd.Flags().Uint32Var(&nonce, "nonce", 0, "Account nonce of the signer")
	cmd.Flags().BoolVar(&unshield, "unshield", false, "Unshield to the parentchain instead of transferring")
	return cmd
}

func verifyCallCmd(cfg *engine.Config) *cobra.Command {
	var ef enclaveFlags
	cmd := &cobra.Command{
		Use:   "verify-call <0x signed call>",
		Short: "Decode a signed call and check its signature",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mrenclave, shard, err := ef.resolve(*cfg)
			if err != nil {
				return err
			}
			var signed stf.TrustedCallSigned
			if err := codec.UnmarshalExact(common.FromHex(args[0]), &signed); err != nil {
				return fmt.Errorf("decode signed call: %w", err)
			}
			out, err := describe(signed, mrenclave, shard)
			if err != nil {
				return err
			}
			valid := signed.VerifySignature(mrenclave, shard)
			out.Valid = &valid
			if err := printJSON(cmd.OutOrStdout(), out); err != nil {
				return err
			}
			if !valid {
				return stf.ErrInvalidSignature
			}
			return nil
		},
	}
	ef.bind(cmd)
	return cmd
}

// storageKey derives a value key, or a map key when key material is given.
// Key material is already SCALE encoded.
func storageKey(pallet, item string, keys [][]byte, hashers []common.StorageHasher) []byte {
	out := common.StorageValueKey(pallet, item)
	for i, k := range keys {
		out = append(out, hashers[i].Hash(k)...)
	}
	return out
}

func storageKeyCmd() *cobra.Command {
	var key1, key2, hasher1, hasher2 string
	cmd := &cobra.Command{
		Use:   "storage-key <pallet> <item>",
		Short: "Derive a runtime storage key",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var keys [][]byte
			var hashers []common.StorageHasher
			for _, kh := range [][2]string{{key1, hasher1}, {key2, hasher2}} {
				if kh[0] == "" {
					break
				}
				h, err := common.ParseStorageHasher(kh[1])
				if err != nil {
					return err
				}
				keys = append(keys, common.FromHex(kh[0]))
				hashers = append(hashers, h)
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), common.Bytes2Hex(storageKey(args[0], args[1], keys, hashers)))
			return err
		},
	}
	cmd.Flags().StringVar(&key1, "key", "", "Encoded first map key (0x hex)")
	cmd.Flags().StringVar(&hasher1, "hasher", "Blake2_128Concat", "Hasher of the first map key")
	cmd.Flags().StringVar(&key2, "key2", "", "Encoded second map key (0x hex)")
	cmd.Flags().StringVar(&hasher2, "hasher2", "Blake2_128Concat", "Hasher of the second map key")
	return cmd
}

type proofOutput struct {
	Key   string  `json:"key"`
	Value *string `json:"value"`
	Error string  `json:"error,omitempty"`
}

func verifyProof(entries []storageproof.StorageEntry, root common.Hash) ([]proofOutput, int) {
	header := storageproof.SimpleHeader{Root: root}
	verified, errs := storageproof.VerifyStorageEntriesLenient(entries, header)
	out := make([]proofOutput, len(entries))
	failed, next := 0, 0
	for i, e := range entries {
		out[i].Key = common.Bytes2Hex(e.Key)
		if errs[i] != nil {
			out[i].Error = errs[i].Error()
			failed++
			continue
		}
		if v := verified[next].Value; v != nil {
			s := common.Bytes2Hex(*v)
			out[i].Value = &s
		}
		next++
	}
	return out, failed
}

func verifyProofCmd() *cobra.Command {
	var entriesPath, root string
	cmd := &cobra.Command{
		Use:   "verify-proof",
		Short: "Verify storage entries against a state root",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(entriesPath)
			if err != nil {
				return err
			}
			var entries []storageproof.StorageEntry
			if err := json.Unmarshal(data, &entries); err != nil {
				return fmt.Errorf("parse %s: %w", entriesPath, err)
			}
			out, failed := verifyProof(entries, common.HexToHash(root))
			if err := printJSON(cmd.OutOrStdout(), out); err != nil {
				return err
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d entries failed verification", failed, len(entries))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&entriesPath, "entries", "", "JSON file of storage entries")
	cmd.Flags().StringVar(&root, "root", "", "Trusted state root (0x hex)")
	cmd.MarkFlagRequired("entries")
	cmd.MarkFlagRequired("root")
	return cmd
}

func demoCmd(cfg *engine.Config) *cobra.Command {
	var evmFlag bool
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run calls, getters and proofs against an in-memory engine",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := *cfg
			c.DataDir = ""
			c.EnableEVM = c.EnableEVM || evmFlag
			return runDemo(c, cmd.OutOrStdout())
		},
	}
	cmd.Flags().BoolVar(&evmFlag, "evm", false, "Register the evm variants")
	return cmd
}

func runDemo(cfg engine.Config, w io.Writer) error {
	alice, bob, charlie := crypto.DevPair("alice"), crypto.DevPair("bob"), crypto.DevPair("charlie")
	if cfg.CeremonyMaster == nil {
		master := alice.AccountId()
		cfg.CeremonyMaster = &master
	}
	outbox := &engine.Outbox{}
	e, err := engine.New(cfg, outbox)
	if err != nil {
		return err
	}
	defer e.Close()

	fmt.Fprintf(w, "[1/5] Genesis for shard %s\n", base58.Encode(e.Shard().Bytes()))
	if err := e.Genesis(func(st *ledger.State) error {
		if err := st.SetSudoKey(alice.AccountId()); err != nil {
			return err
		}
		return st.SetBalance(alice.AccountId(), common.NewBalance(1000), common.Balance{})
	}); err != nil {
		return err
	}

	submit := func(pair crypto.Pair, call stf.Call) (*engine.Result, error) {
		n, err := e.Nonce(pair.AccountId())
		if err != nil {
			return nil, err
		}
		signed, err := stf.NewTrustedCall(call).Sign(pair, n, cfg.MrEnclave, e.Shard())
		if err != nil {
			return nil, err
		}
		return e.ExecuteCall(signed)
	}

	fmt.Fprintf(w, "[2/5] alice transfers 100 to bob\n")
	res, err := submit(alice, stf.BalanceTransfer{From: alice.AccountId(), To: bob.AccountId(), Value: common.NewBalance(100)})
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "  call hash %s\n", res.CallHash)

	fmt.Fprintf(w, "[3/5] bob unshields 30 to charlie\n")
	if _, err := submit(bob, stf.BalanceUnshield{Incognito: bob.AccountId(), Beneficiary: charlie.AccountId(), Value: common.NewBalance(30), Shard: e.Shard()}); err != nil {
		return err
	}
	for _, oc := range outbox.Drain() {
		fmt.Fprintf(w, "  parentchain call %s\n", common.Bytes2Hex(oc))
	}

	fmt.Fprintf(w, "[4/5] bob queries his free balance\n")
	q, err := stf.NewTrustedGetter(stf.FreeBalance{Who: bob.AccountId()}).Sign(bob)
	if err != nil {
		return err
	}
	got, err := e.ExecuteGetter(stf.GetterFromTrusted(q))
	if err != nil {
		return err
	}
	var free common.Balance
	if err := codec.UnmarshalExact(got.Value, &free); err != nil {
		return err
	}
	fmt.Fprintf(w, "  free balance %s\n", free)

	fmt.Fprintf(w, "[5/5] prove bob's account against the state root\n")
	root, entries, err := e.ProveStorage([][]byte{ledger.AccountKey(bob.AccountId())})
	if err != nil {
		return err
	}
	out, failed := verifyProof(entries, root)
	if failed > 0 {
		return fmt.Errorf("proof of %s did not verify: %s", out[0].Key, out[0].Error)
	}
	fmt.Fprintf(w, "  state root %s, %d proof nodes verified\n", root, len(entries[0].Proof))
	return nil
}
