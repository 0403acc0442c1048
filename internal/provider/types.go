package provider

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Transaction is an enhanced (decoded) transaction.
type Transaction struct {
	Signature       string           `json:"signature"`
	Timestamp       int64            `json:"timestamp"`
	Slot            uint64           `json:"slot"`
	Fee             uint64           `json:"fee"`
	FeePayer        string           `json:"feePayer"`
	Type            string           `json:"type"`
	Source          string           `json:"source"`
	Description     string           `json:"description"`
	TokenTransfers  []TokenTransfer  `json:"tokenTransfers"`
	NativeTransfers []NativeTransfer `json:"nativeTransfers"`
	Accounts        []string         `json:"accounts"`
}

// TokenTransfer is a decoded SPL token movement within a transaction.
type TokenTransfer struct {
	FromUserAccount string  `json:"fromUserAccount"`
	ToUserAccount   string  `json:"toUserAccount"`
	TokenAmount     float64 `json:"tokenAmount"`
	Mint            string  `json:"mint"`
}

// NativeTransfer is a SOL movement within a transaction, amount in lamports.
type NativeTransfer struct {
	FromUserAccount string `json:"fromUserAccount"`
	ToUserAccount   string `json:"toUserAccount"`
	Amount          int64  `json:"amount"`
}

// Asset is token metadata for a mint. Supply is nil when the metadata
// service does not report it.
type Asset struct {
	Mint     string           `json:"mint"`
	Name     string           `json:"name"`
	Symbol   string           `json:"symbol"`
	Decimals int              `json:"decimals"`
	Supply   *decimal.Decimal `json:"supply"`
	Image    string           `json:"image"`
}

// TokenHolder is one token account owner with its raw balance.
type TokenHolder struct {
	Address string          `json:"address"`
	Amount  decimal.Decimal `json:"amount"`
}

// TokenAccountsResult is a page-capped holder listing, sorted descending
// by balance. TotalHolders is the provider's count, which can exceed
// len(Holders) when pagination was capped.
type TokenAccountsResult struct {
	Holders      []TokenHolder `json:"holders"`
	TotalHolders int           `json:"totalHolders"`
}

// Identity is a point-in-time wallet identity snapshot.
type Identity struct {
	Address  string   `json:"address"`
	Name     string   `json:"name"`
	Category string   `json:"category"`
	Type     string   `json:"type"`
	Tags     []string `json:"tags"`
}

// IsExchange reports whether the identity's category marks an exchange.
func (i *Identity) IsExchange() bool { return i != nil && categoryContains(i, "exchange") }

// IsMixer reports whether the identity's category marks a mixer.
func (i *Identity) IsMixer() bool { return i != nil && categoryContains(i, "mixer") }

// IsBridge reports whether the identity's category marks a bridge.
func (i *Identity) IsBridge() bool { return i != nil && categoryContains(i, "bridge") }

func categoryContains(i *Identity, s string) bool {
	return strings.Contains(strings.ToLower(i.Category), s) ||
		strings.Contains(strings.ToLower(i.Type), s)
}

// FundingRecord describes a wallet's first/primary inbound funding source.
// One hop only; it is not a full ledger.
type FundingRecord struct {
	Funder     string  `json:"funder"`
	FunderName string  `json:"funderName"`
	FunderType string  `json:"funderType"`
	Amount     float64 `json:"amount"` // SOL
	Timestamp  int64   `json:"timestamp"`
	Signature  string  `json:"signature"`
}

// TransferDirection is a transfer's direction from the wallet's perspective.
type TransferDirection string

const (
	DirectionIn  TransferDirection = "in"
	DirectionOut TransferDirection = "out"
)

// WalletTransfer is one token or SOL transfer with counterparty info.
type WalletTransfer struct {
	Signature        string            `json:"signature"`
	Timestamp        int64             `json:"timestamp"`
	Direction        TransferDirection `json:"direction"`
	Counterparty     string            `json:"counterparty"`
	CounterpartyName string            `json:"counterpartyName"`
	Token            TransferToken     `json:"token"`
}

// TransferToken is the asset side of a wallet transfer.
type TransferToken struct {
	Mint     string  `json:"mint"`
	Symbol   string  `json:"symbol"`
	Amount   float64 `json:"amount"`
	Decimals int     `json:"decimals"`
}

// WrappedSOLMint is the native SOL wrapper mint.
const WrappedSOLMint = "So11111111111111111111111111111111111111112"

// IsNative reports whether the transfer moves SOL rather than an SPL token.
func (t WalletTransfer) IsNative() bool { return t.Token.Mint == WrappedSOLMint }
