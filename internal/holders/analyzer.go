// Package holders ranks token holders and flags concentration, sniper,
// and insider patterns.
package holders

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/cannedoxygen/trench-transparency-terminal/internal/provider"
	"github.com/cannedoxygen/trench-transparency-terminal/internal/signals"
)

// Scan bounds.
const (
	holderPageCap  = 10  // 1000 holders per page
	topHolderLimit = 20
	earlyTxWindow  = 10  // receivers in the first N chronological txs are snipers
	tokenTxLimit   = 100
)

// Warning thresholds. Each fires independently.
const (
	warnTop10Concentration = 80.0
	warnSniperCount        = 5
	warnDeployerHolding    = 20.0
	warnInsiderCount       = 3
)

// HolderIdentity is the resolved identity attached to a top holder.
type HolderIdentity struct {
	Name       string   `json:"name,omitempty"`
	Tags       []string `json:"tags,omitempty"`
	IsExchange bool     `json:"is_exchange"`
}

// Holder is one ranked top holder with derived flags.
type Holder struct {
	Address    string          `json:"address"`
	Balance    decimal.Decimal `json:"balance"`
	Percentage float64         `json:"percentage"` // of supply, 2-decimal rounded
	IsDeployer bool            `json:"is_deployer"`
	IsSniper   bool            `json:"is_sniper"`
	IsInsider  bool            `json:"is_insider"`
	BoughtAt   int64           `json:"bought_at,omitempty"`
	Identity   *HolderIdentity `json:"identity,omitempty"`
	RiskFlags  []string        `json:"risk_flags,omitempty"`
}

// Analysis is the holder-concentration report for a mint.
type Analysis struct {
	Mint               string        `json:"mint"`
	TotalHolders       int           `json:"total_holders"`
	TopHolders         []Holder      `json:"top_holders"`
	SniperCount        int           `json:"sniper_count"`
	InsiderCount       int           `json:"insider_count"`
	DeployerHolding    float64       `json:"deployer_holding"`
	Top10Concentration float64       `json:"top10_concentration"`
	ExchangeHoldings   float64       `json:"exchange_holdings"`
	RiskLevel          signals.Level `json:"risk_level"`
	Warnings           []string      `json:"warnings"`
}

// Analyzer computes holder analyses.
type Analyzer struct {
	client provider.Client
	log    zerolog.Logger
}

// NewAnalyzer creates a holder analyzer over the given provider.
func NewAnalyzer(client provider.Client, log zerolog.Logger) *Analyzer {
	return &Analyzer{client: client, log: log.With().Str("component", "holders").Logger()}
}

// Analyze ranks the mint's top holders and derives concentration
// metrics. deployerAddress may be empty when resolution failed.
func (a *Analyzer) Analyze(ctx context.Context, mint, deployerAddress string) *Analysis {
	accountsResult, err := a.client.GetTokenAccounts(ctx, mint, holderPageCap)
	if err != nil {
		a.log.Warn().Err(err).Str("mint", mint).Msg("token accounts fetch failed")
		return emptyAnalysis(mint)
	}
	if accountsResult == nil || len(accountsResult.Holders) == 0 {
		return emptyAnalysis(mint)
	}
	accounts := accountsResult.Holders

	top := accounts
	if len(top) > topHolderLimit {
		top = top[:topHolderLimit]
	}

	supply := a.resolveSupply(ctx, mint, accounts)

	earlyBuyers, buyTimestamps := a.findEarlyBuyers(ctx, mint)

	addresses := make([]string, len(top))
	for i, h := range top {
		addresses[i] = h.Address
	}
	identities, err := a.client.BatchGetIdentities(ctx, addresses)
	if err != nil {
		a.log.Debug().Err(err).Msg("batch identity lookup failed")
		identities = nil
	}

	analysis := &Analysis{
		Mint:       mint,
		TopHolders: make([]Holder, 0, len(top)),
	}
	if analysis.TotalHolders = accountsResult.TotalHolders; analysis.TotalHolders == 0 {
		analysis.TotalHolders = len(accounts)
	}

	for _, account := range top {
		holder := Holder{
			Address:    account.Address,
			Balance:    account.Amount,
			IsDeployer: deployerAddress != "" && account.Address == deployerAddress,
			IsSniper:   earlyBuyers[account.Address],
			BoughtAt:   buyTimestamps[account.Address],
		}
		holder.IsInsider = holder.IsSniper || holder.IsDeployer
		holder.Percentage = percentageOf(account.Amount, supply)

		if id, ok := identities[account.Address]; ok {
			holder.Identity = &HolderIdentity{
				Name:       id.Name,
				Tags:       id.Tags,
				IsExchange: id.IsExchange(),
			}
		}

		if holder.IsSniper && holder.Percentage > 5 {
			holder.RiskFlags = append(holder.RiskFlags, "Early sniper with large position")
		}
		if holder.IsDeployer && holder.Percentage > 10 {
			holder.RiskFlags = append(holder.RiskFlags, "Deployer holding significant supply")
		}
		if holder.Percentage > 20 {
			holder.RiskFlags = append(holder.RiskFlags, "Whale concentration risk")
		}

		analysis.TopHolders = append(analysis.TopHolders, holder)
	}

	a.finalize(analysis)
	return analysis
}

// resolveSupply prefers metadata supply and falls back to summing the
// fetched holder set. The fallback undercounts when pagination was
// capped; callers see a warning in the log, not the report.
func (a *Analyzer) resolveSupply(ctx context.Context, mint string, accounts []provider.TokenHolder) decimal.Decimal {
	if asset, err := a.client.GetAsset(ctx, mint); err == nil && asset != nil && asset.Supply != nil && asset.Supply.IsPositive() {
		return *asset.Supply
	}

	sum := decimal.Zero
	for _, h := range accounts {
		sum = sum.Add(h.Amount)
	}
	a.log.Warn().Str("mint", mint).Msg("no supply in metadata, using fetched-holder sum")
	return sum
}

// findEarlyBuyers collects token receivers in the first earlyTxWindow
// chronological transactions. Receipt size does not matter.
func (a *Analyzer) findEarlyBuyers(ctx context.Context, mint string) (map[string]bool, map[string]int64) {
	earlyBuyers := make(map[string]bool)
	buyTimestamps := make(map[string]int64)

	history, err := a.client.GetAddressHistory(ctx, mint, tokenTxLimit)
	if err != nil || len(history) == 0 {
		return earlyBuyers, buyTimestamps
	}

	sorted := make([]provider.Transaction, len(history))
	copy(sorted, history)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Timestamp < sorted[j].Timestamp })

	window := sorted
	if len(window) > earlyTxWindow {
		window = window[:earlyTxWindow]
	}
	for _, tx := range window {
		for _, transfer := range tx.TokenTransfers {
			if transfer.Mint != mint || transfer.ToUserAccount == "" {
				continue
			}
			earlyBuyers[transfer.ToUserAccount] = true
			if _, ok := buyTimestamps[transfer.ToUserAccount]; !ok {
				buyTimestamps[transfer.ToUserAccount] = tx.Timestamp
			}
		}
	}
	return earlyBuyers, buyTimestamps
}

func (a *Analyzer) finalize(analysis *Analysis) {
	for i, h := range analysis.TopHolders {
		if h.IsSniper {
			analysis.SniperCount++
		}
		if h.IsInsider {
			analysis.InsiderCount++
		}
		if h.IsDeployer {
			analysis.DeployerHolding = h.Percentage
		}
		if i < 10 {
			analysis.Top10Concentration += h.Percentage
		}
		if h.Identity != nil && h.Identity.IsExchange {
			analysis.ExchangeHoldings += h.Percentage
		}
	}
	analysis.DeployerHolding = round2(analysis.DeployerHolding)
	analysis.Top10Concentration = round2(analysis.Top10Concentration)
	analysis.ExchangeHoldings = round2(analysis.ExchangeHoldings)

	if analysis.Top10Concentration > warnTop10Concentration {
		analysis.Warnings = append(analysis.Warnings,
			fmt.Sprintf("Top 10 holders control %.0f%% of supply", analysis.Top10Concentration))
	}
	if analysis.SniperCount >= warnSniperCount {
		analysis.Warnings = append(analysis.Warnings,
			fmt.Sprintf("%d sniper wallets detected in top holders", analysis.SniperCount))
	}
	if analysis.DeployerHolding > warnDeployerHolding {
		analysis.Warnings = append(analysis.Warnings,
			fmt.Sprintf("Deployer still holds %.0f%% of supply", analysis.DeployerHolding))
	}
	if analysis.InsiderCount >= warnInsiderCount {
		analysis.Warnings = append(analysis.Warnings,
			fmt.Sprintf("%d likely insider wallets detected", analysis.InsiderCount))
	}

	switch {
	case analysis.Top10Concentration > 90 || analysis.SniperCount >= 7 || analysis.DeployerHolding > 50:
		analysis.RiskLevel = signals.LevelExtreme
	case analysis.Top10Concentration > 80 || analysis.SniperCount >= 5 || analysis.DeployerHolding > 30:
		analysis.RiskLevel = signals.LevelHigh
	case analysis.Top10Concentration > 60 || analysis.SniperCount >= 3 || analysis.DeployerHolding > 15:
		analysis.RiskLevel = signals.LevelMedium
	default:
		analysis.RiskLevel = signals.LevelLow
	}
}

func percentageOf(amount, supply decimal.Decimal) float64 {
	if !supply.IsPositive() {
		return 0
	}
	pct, _ := amount.Div(supply).Mul(decimal.NewFromInt(100)).Round(2).Float64()
	return pct
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func emptyAnalysis(mint string) *Analysis {
	return &Analysis{
		Mint:       mint,
		TopHolders: []Holder{},
		RiskLevel:  signals.LevelLow,
		Warnings:   []string{"Unable to analyze holders"},
	}
}

// TopHolderSummary renders a compact log line of the biggest holders.
func (a *Analysis) TopHolderSummary(limit int) string {
	if limit > len(a.TopHolders) {
		limit = len(a.TopHolders)
	}
	parts := make([]string, 0, limit)
	for _, h := range a.TopHolders[:limit] {
		parts = append(parts, fmt.Sprintf("%s=%.2f%%", shortAddr(h.Address), h.Percentage))
	}
	return strings.Join(parts, " ")
}

func shortAddr(addr string) string {
	if len(addr) <= 8 {
		return addr
	}
	return addr[:8]
}
