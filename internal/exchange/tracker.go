// Package exchange classifies a wallet's transfers against known
// exchange wallets and detects cash-out patterns.
package exchange

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/cannedoxygen/trench-transparency-terminal/internal/provider"
	"github.com/cannedoxygen/trench-transparency-terminal/internal/signals"
)

// knownHotWallets is a partial table of exchange deposit addresses; the
// identity service covers the rest.
var knownHotWallets = map[string]string{
	"5tzFkiKscXHK5ZXCGbBiKuV8XhE3oLkYbYpW8Wd8Vqne": "Binance",
	"9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM": "FTX", // defunct but still relevant
	"2ojv9BAiHUrvsm9gxDe7fJSzbNZSJcxZvf8dqmWGHG8S": "Coinbase",
	"H8sMJSCQxfKiFTCfDR3DUMLPwcRbM61LGFJ8N4dK3WjS": "Kraken",
	"ASTyfSima4LLAdDgoFGkgqoKowG1LZFDr9fAQrg7iaJZ": "OKX",
	"BmFdpraQhkiDQE6SnfG5omcA1VwzqfXrwtNYBwWTymy6": "Bybit",
}

// KnownHotWallet returns the exchange name behind a known deposit
// address.
func KnownHotWallet(address string) (string, bool) {
	name, ok := knownHotWallets[address]
	return name, ok
}

const (
	transferScanLimit  = 100
	recentTransferKeep = 20
	largeDepositSOL    = 5.0
)

// FlowDirection is from the exchange's ledger perspective: an outbound
// wallet transfer to an exchange is a deposit.
type FlowDirection string

const (
	FlowDeposit    FlowDirection = "deposit"
	FlowWithdrawal FlowDirection = "withdrawal"
)

// Transfer is one classified exchange transfer.
type Transfer struct {
	Signature    string        `json:"signature"`
	Timestamp    int64         `json:"timestamp"`
	Direction    FlowDirection `json:"direction"`
	Exchange     string        `json:"exchange"`
	Amount       float64       `json:"amount"`
	Token        string        `json:"token"`
	Counterparty string        `json:"counterparty"`
}

// Analysis is the exchange-flow report for a wallet.
type Analysis struct {
	WalletAddress    string        `json:"wallet_address"`
	TotalDeposits    float64       `json:"total_deposits"`
	TotalWithdrawals float64       `json:"total_withdrawals"`
	NetFlow          float64       `json:"net_flow"` // negative = cash out
	RecentTransfers  []Transfer    `json:"recent_transfers"`
	ExchangesUsed    []string      `json:"exchanges_used"`
	LargestDeposit   *Transfer     `json:"largest_deposit,omitempty"`
	CashOutDetected  bool          `json:"cash_out_detected"`
	CashOutAmount    float64       `json:"cash_out_amount"`
	RiskLevel        signals.Level `json:"risk_level"`
	Warnings         []string      `json:"warnings"`
}

// Tracker classifies wallet transfers against exchanges.
type Tracker struct {
	client provider.Client
	log    zerolog.Logger
}

// NewTracker creates an exchange-flow tracker over the given provider.
func NewTracker(client provider.Client, log zerolog.Logger) *Tracker {
	return &Tracker{client: client, log: log.With().Str("component", "exchange").Logger()}
}

// Analyze classifies the wallet's recent transfers. now is unix seconds
// and anchors the 24-hour recent-deposit window.
func (t *Tracker) Analyze(ctx context.Context, walletAddress string, now int64) *Analysis {
	analysis := emptyAnalysis(walletAddress)

	transfers, err := t.client.GetWalletTransfers(ctx, walletAddress, transferScanLimit)
	if err != nil {
		t.log.Debug().Err(err).Str("address", walletAddress).Msg("transfers fetch failed")
		return analysis
	}
	if len(transfers) == 0 {
		return analysis
	}

	counterparties := make([]string, 0, len(transfers))
	seen := make(map[string]struct{})
	for _, tr := range transfers {
		if _, ok := seen[tr.Counterparty]; ok || tr.Counterparty == "" {
			continue
		}
		seen[tr.Counterparty] = struct{}{}
		counterparties = append(counterparties, tr.Counterparty)
	}
	identities, err := t.client.BatchGetIdentities(ctx, counterparties)
	if err != nil {
		identities = nil
	}

	exchangesUsed := make(map[string]struct{})
	var classified []Transfer

	for _, tr := range transfers {
		name, isExchange := classifyCounterparty(tr.Counterparty, identities)
		if !isExchange {
			continue
		}
		exchangesUsed[name] = struct{}{}

		direction := FlowWithdrawal
		if tr.Direction == provider.DirectionOut {
			direction = FlowDeposit
		}
		token := tr.Token.Symbol
		if token == "" {
			token = "SOL"
		}
		et := Transfer{
			Signature:    tr.Signature,
			Timestamp:    tr.Timestamp,
			Direction:    direction,
			Exchange:     name,
			Amount:       tr.Token.Amount,
			Token:        token,
			Counterparty: tr.Counterparty,
		}
		classified = append(classified, et)

		if direction == FlowDeposit {
			analysis.TotalDeposits += et.Amount
			if analysis.LargestDeposit == nil || et.Amount > analysis.LargestDeposit.Amount {
				deposit := et
				analysis.LargestDeposit = &deposit
			}
		} else {
			analysis.TotalWithdrawals += et.Amount
		}
	}

	sort.Slice(classified, func(i, j int) bool { return classified[i].Timestamp > classified[j].Timestamp })

	analysis.NetFlow = analysis.TotalWithdrawals - analysis.TotalDeposits
	analysis.CashOutDetected = analysis.TotalDeposits > 1 && analysis.TotalDeposits > analysis.TotalWithdrawals*2
	if analysis.CashOutDetected {
		analysis.CashOutAmount = analysis.TotalDeposits - analysis.TotalWithdrawals
		analysis.Warnings = append(analysis.Warnings,
			fmt.Sprintf("Cash out detected: %.2f SOL sent to exchanges", analysis.CashOutAmount))
	}

	if analysis.LargestDeposit != nil && analysis.LargestDeposit.Amount > 10 {
		analysis.Warnings = append(analysis.Warnings,
			fmt.Sprintf("Large deposit: %.2f SOL to %s", analysis.LargestDeposit.Amount, analysis.LargestDeposit.Exchange))
	}

	var recentLargeTotal float64
	recentLargeCount := 0
	dayAgo := now - 86400
	for _, et := range classified {
		if et.Direction == FlowDeposit && et.Timestamp > dayAgo && et.Amount > largeDepositSOL {
			recentLargeTotal += et.Amount
			recentLargeCount++
		}
	}
	if recentLargeCount > 0 {
		analysis.Warnings = append(analysis.Warnings,
			fmt.Sprintf("%.2f SOL deposited to exchanges in last 24h", recentLargeTotal))
	}

	switch {
	case analysis.CashOutDetected && analysis.CashOutAmount > 50:
		analysis.RiskLevel = signals.LevelExtreme
	case analysis.CashOutDetected && analysis.CashOutAmount > 10:
		analysis.RiskLevel = signals.LevelHigh
	case analysis.TotalDeposits > 20 || recentLargeCount > 0:
		analysis.RiskLevel = signals.LevelMedium
	default:
		analysis.RiskLevel = signals.LevelLow
	}

	if len(classified) > recentTransferKeep {
		classified = classified[:recentTransferKeep]
	}
	analysis.RecentTransfers = classified
	if analysis.RecentTransfers == nil {
		analysis.RecentTransfers = []Transfer{}
	}

	for name := range exchangesUsed {
		analysis.ExchangesUsed = append(analysis.ExchangesUsed, name)
	}
	sort.Strings(analysis.ExchangesUsed)

	return analysis
}

// classifyCounterparty resolves an exchange name for a counterparty via
// the hot-wallet table first, then the identity service.
func classifyCounterparty(counterparty string, identities map[string]provider.Identity) (string, bool) {
	if name, ok := knownHotWallets[counterparty]; ok {
		return name, true
	}
	identity, ok := identities[counterparty]
	if !ok {
		return "", false
	}

	isExchange := identity.IsExchange()
	if !isExchange {
		for _, tag := range identity.Tags {
			if strings.Contains(strings.ToLower(tag), "exchange") {
				isExchange = true
				break
			}
		}
	}
	if !isExchange {
		return "", false
	}
	if identity.Name != "" {
		return identity.Name, true
	}
	return "Unknown Exchange", true
}

func emptyAnalysis(walletAddress string) *Analysis {
	return &Analysis{
		WalletAddress:   walletAddress,
		RecentTransfers: []Transfer{},
		ExchangesUsed:   []string{},
		RiskLevel:       signals.LevelLow,
		Warnings:        []string{},
	}
}
