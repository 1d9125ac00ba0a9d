package config

import (
	"fmt"
	"os"

	"github.com/gagliardetto/solana-go"
	"gopkg.in/yaml.v3"

	"perpcrank/internal/account"
	"perpcrank/internal/market"
	"perpcrank/internal/token"
)

// File is the YAML deployment description. Addresses are base58.
type File struct {
	Program string       `yaml:"program"`
	Group   GroupFile    `yaml:"group"`
	Tokens  []TokenFile  `yaml:"tokens"`
	Markets []MarketFile `yaml:"markets"`
	Account AccountFile  `yaml:"account"`
}

type GroupFile struct {
	Name     string   `yaml:"name"`
	Address  string   `yaml:"address"`
	Cache    string   `yaml:"cache"`
	Signer   string   `yaml:"signer"`
	MngoBank BankFile `yaml:"mngo_bank"`
}

// BankFile names the banking trio for the group's liquidity incentive
// token. Token refers to an entry in the tokens list.
type BankFile struct {
	Token    string `yaml:"token"`
	RootBank string `yaml:"root_bank"`
	NodeBank string `yaml:"node_bank"`
	Vault    string `yaml:"vault"`
}

type TokenFile struct {
	Symbol   string `yaml:"symbol"`
	Name     string `yaml:"name"`
	Decimals int32  `yaml:"decimals"`
	Mint     string `yaml:"mint"`
}

// MarketFile describes one perp market. The base instrument is declared
// inline; quote refers to an entry in the tokens list.
type MarketFile struct {
	Symbol   string `yaml:"symbol"`
	Name     string `yaml:"name"`
	Decimals int32  `yaml:"decimals"`
	Quote    string `yaml:"quote"`
	Address  string `yaml:"address"`
}

type AccountFile struct {
	Address    string   `yaml:"address"`
	Owner      string   `yaml:"owner"`
	OpenOrders []string `yaml:"open_orders"`
}

// Deployment is the parsed and validated deployment: market stubs still need
// their on-chain details loaded before instructions can be built.
type Deployment struct {
	Program solana.PublicKey
	Group   market.Group
	Tokens  []token.Token
	Markets []market.PerpMarket
	Margin  account.MarginAccount
}

// LoadDeployment reads and builds the deployment from a YAML file.
func LoadDeployment(path string) (Deployment, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Deployment{}, fmt.Errorf("config: reading %s: %w", path, err)
	}
	return ParseDeployment(raw)
}

// ParseDeployment unmarshals and builds the deployment from YAML bytes.
func ParseDeployment(raw []byte) (Deployment, error) {
	var file File
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return Deployment{}, fmt.Errorf("config: parsing deployment: %w", err)
	}
	return file.Build()
}

// Build validates the file and produces the domain objects.
func (f File) Build() (Deployment, error) {
	program, err := parseKey("program", f.Program)
	if err != nil {
		return Deployment{}, err
	}

	tokens := make([]token.Token, 0, len(f.Tokens))
	for _, t := range f.Tokens {
		if t.Symbol == "" {
			return Deployment{}, fmt.Errorf("config: token with empty symbol")
		}
		if t.Decimals < 0 {
			return Deployment{}, fmt.Errorf("config: token %s: negative decimals", t.Symbol)
		}
		mint, err := parseKey(fmt.Sprintf("token %s mint", t.Symbol), t.Mint)
		if err != nil {
			return Deployment{}, err
		}
		tokens = append(tokens, token.NewToken(t.Symbol, t.Name, t.Decimals, mint))
	}

	group, err := f.Group.build(tokens)
	if err != nil {
		return Deployment{}, err
	}

	markets := make([]market.PerpMarket, 0, len(f.Markets))
	seen := make(map[string]bool)
	for _, m := range f.Markets {
		if m.Symbol == "" {
			return Deployment{}, fmt.Errorf("config: market with empty symbol")
		}
		if seen[m.Symbol] {
			return Deployment{}, fmt.Errorf("config: market %s declared twice", m.Symbol)
		}
		seen[m.Symbol] = true

		address, err := parseKey(fmt.Sprintf("market %s address", m.Symbol), m.Address)
		if err != nil {
			return Deployment{}, err
		}
		quote, err := token.FindBySymbol(tokens, m.Quote)
		if err != nil {
			return Deployment{}, fmt.Errorf("config: market %s: %w", m.Symbol, err)
		}
		base := token.NewInstrument(m.Symbol, m.Name, m.Decimals)
		markets = append(markets, market.NewPerpMarketStub(program, address, base, quote))
	}

	margin, err := f.Account.build()
	if err != nil {
		return Deployment{}, err
	}

	return Deployment{
		Program: program,
		Group:   group,
		Tokens:  tokens,
		Markets: markets,
		Margin:  margin,
	}, nil
}

func (g GroupFile) build(tokens []token.Token) (market.Group, error) {
	address, err := parseKey("group address", g.Address)
	if err != nil {
		return market.Group{}, err
	}
	cache, err := parseKey("group cache", g.Cache)
	if err != nil {
		return market.Group{}, err
	}
	signer, err := parseKey("group signer", g.Signer)
	if err != nil {
		return market.Group{}, err
	}

	bankToken, err := token.FindBySymbol(tokens, g.MngoBank.Token)
	if err != nil {
		return market.Group{}, fmt.Errorf("config: group mngo bank: %w", err)
	}
	rootBank, err := parseKey("mngo bank root_bank", g.MngoBank.RootBank)
	if err != nil {
		return market.Group{}, err
	}
	nodeBank, err := parseKey("mngo bank node_bank", g.MngoBank.NodeBank)
	if err != nil {
		return market.Group{}, err
	}
	vault, err := parseKey("mngo bank vault", g.MngoBank.Vault)
	if err != nil {
		return market.Group{}, err
	}

	return market.Group{
		Name:      g.Name,
		Address:   address,
		Cache:     cache,
		SignerKey: signer,
		LiquidityIncentiveTokenBank: market.TokenBank{
			Token:    bankToken,
			RootBank: rootBank,
			NodeBank: nodeBank,
			Vault:    vault,
		},
	}, nil
}

func (a AccountFile) build() (account.MarginAccount, error) {
	address, err := parseKey("account address", a.Address)
	if err != nil {
		return account.MarginAccount{}, err
	}
	owner, err := parseKey("account owner", a.Owner)
	if err != nil {
		return account.MarginAccount{}, err
	}

	openOrders := make([]solana.PublicKey, 0, len(a.OpenOrders))
	for i, raw := range a.OpenOrders {
		key, err := parseKey(fmt.Sprintf("account open_orders[%d]", i), raw)
		if err != nil {
			return account.MarginAccount{}, err
		}
		openOrders = append(openOrders, key)
	}

	return account.MarginAccount{
		Address:             address,
		Owner:               owner,
		OpenOrdersAddresses: openOrders,
	}, nil
}

func parseKey(field, raw string) (solana.PublicKey, error) {
	if raw == "" {
		return solana.PublicKey{}, fmt.Errorf("config: %s is required", field)
	}
	key, err := solana.PublicKeyFromBase58(raw)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("config: %s: %w", field, err)
	}
	return key, nil
}
