// Package smartmoney finds high-reputation wallets among a token's top
// holders and reads their presence as a sentiment signal.
package smartmoney

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/cannedoxygen/trench-transparency-terminal/internal/provider"
	"github.com/cannedoxygen/trench-transparency-terminal/internal/reputation"
)

const (
	// smartMoneyMinScore is the reputation floor for a holder to count
	// as smart money: trusted wallets plus the upper neutral band.
	smartMoneyMinScore = 60

	// earlyBuyWindowSeconds marks a buy as early when it lands within
	// this many seconds of token creation.
	earlyBuyWindowSeconds = 600

	holderCheckLimit  = 20
	transferScanLimit = 50
	topWalletKeep     = 10
)

// Sentiment summarizes what smart-money presence implies for the token.
type Sentiment string

const (
	SentimentBullish Sentiment = "bullish"
	SentimentNeutral Sentiment = "neutral"
	SentimentBearish Sentiment = "bearish"
)

// Activity describes what smart money is currently doing.
type Activity string

const (
	ActivityEntering Activity = "entering"
	ActivityHolding  Activity = "holding"
	ActivityExiting  Activity = "exiting"
	ActivityNone     Activity = "none"
)

// Candidate is a top holder to screen for smart money.
type Candidate struct {
	Address    string
	Percentage float64
}

// Wallet is one holder that cleared the reputation floor.
type Wallet struct {
	Address           string  `json:"address"`
	Reputation        int     `json:"reputation"`
	ReputationLabel   string  `json:"reputation_label"`
	HoldingPercentage float64 `json:"holding_percentage"`
	EntryTimestamp    int64   `json:"entry_timestamp,omitempty"`
	KnownAs           string  `json:"known_as,omitempty"`
	IsEarlyBuyer      bool    `json:"is_early_buyer"`
}

// Analysis is the smart-money read for one token.
type Analysis struct {
	TokenMint         string    `json:"token_mint"`
	SmartMoneyCount   int       `json:"smart_money_count"`
	SmartMoneyHolding float64   `json:"smart_money_holding"`
	TopSmartMoney     []Wallet  `json:"top_smart_money"`
	Sentiment         Sentiment `json:"sentiment"`
	RecentActivity    Activity  `json:"recent_activity"`
	Warnings          []string  `json:"warnings"`
	Positives         []string  `json:"positives"`
}

// Tracker screens top holders against the reputation scorer.
type Tracker struct {
	client provider.Client
	scorer *reputation.Scorer
	log    zerolog.Logger
}

// NewTracker creates a smart-money tracker.
func NewTracker(client provider.Client, scorer *reputation.Scorer, log zerolog.Logger) *Tracker {
	return &Tracker{
		client: client,
		scorer: scorer,
		log:    log.With().Str("component", "smartmoney").Logger(),
	}
}

// Analyze screens the top holders of mint for smart money. tokenCreatedAt
// is the creation timestamp used for the early-buy window, or zero when
// unknown. A per-holder reputation failure skips that holder only.
func (t *Tracker) Analyze(ctx context.Context, mint string, topHolders []Candidate, tokenCreatedAt, now int64) *Analysis {
	t.log.Debug().Str("mint", mint).Int("holders", len(topHolders)).Msg("screening holders for smart money")

	analysis := &Analysis{
		TokenMint:      mint,
		Sentiment:      SentimentNeutral,
		RecentActivity: ActivityNone,
		Warnings:       []string{},
		Positives:      []string{},
	}

	candidates := topHolders
	if len(candidates) > holderCheckLimit {
		candidates = candidates[:holderCheckLimit]
	}

	var wallets []Wallet
	for _, holder := range candidates {
		rep := t.scorer.Score(ctx, holder.Address, now)
		if rep.Score < smartMoneyMinScore || rep.Label == reputation.LabelUnknown {
			continue
		}

		entry, early := t.entryTiming(ctx, holder.Address, mint, tokenCreatedAt)
		wallets = append(wallets, Wallet{
			Address:           holder.Address,
			Reputation:        rep.Score,
			ReputationLabel:   rep.Label,
			HoldingPercentage: holder.Percentage,
			EntryTimestamp:    entry,
			KnownAs:           rep.Details.KnownEntity,
			IsEarlyBuyer:      early,
		})
	}

	sort.SliceStable(wallets, func(i, j int) bool { return wallets[i].Reputation > wallets[j].Reputation })

	analysis.SmartMoneyCount = len(wallets)
	for _, w := range wallets {
		analysis.SmartMoneyHolding += w.HoldingPercentage
	}

	switch {
	case analysis.SmartMoneyCount >= 5 && analysis.SmartMoneyHolding > 10:
		analysis.Sentiment = SentimentBullish
		analysis.Positives = append(analysis.Positives,
			fmt.Sprintf("%d high-reputation wallets hold %.1f%%", analysis.SmartMoneyCount, analysis.SmartMoneyHolding))
	case analysis.SmartMoneyCount == 0 && len(topHolders) >= 10:
		analysis.Sentiment = SentimentBearish
		analysis.Warnings = append(analysis.Warnings, "No high-reputation wallets among top holders")
	}

	earlyCount := 0
	var known []string
	for _, w := range wallets {
		if w.IsEarlyBuyer {
			earlyCount++
		}
		if w.KnownAs != "" {
			known = append(known, w.KnownAs)
		}
	}
	if earlyCount > 0 {
		analysis.Positives = append(analysis.Positives,
			fmt.Sprintf("%d smart money wallet(s) bought early", earlyCount))
	}
	if len(known) > 0 {
		analysis.Positives = append(analysis.Positives,
			fmt.Sprintf("Known entities: %s", strings.Join(known, ", ")))
	}

	if analysis.SmartMoneyCount > 0 {
		analysis.RecentActivity = ActivityHolding
	}

	if len(wallets) > topWalletKeep {
		wallets = wallets[:topWalletKeep]
	}
	analysis.TopSmartMoney = wallets

	t.log.Debug().
		Int("smart_money", analysis.SmartMoneyCount).
		Float64("holding_pct", analysis.SmartMoneyHolding).
		Msg("smart money screen complete")
	return analysis
}

// entryTiming finds the wallet's oldest inbound transfer of the mint.
func (t *Tracker) entryTiming(ctx context.Context, address, mint string, tokenCreatedAt int64) (int64, bool) {
	transfers, err := t.client.GetWalletTransfers(ctx, address, transferScanLimit)
	if err != nil {
		t.log.Debug().Err(err).Str("wallet", address).Msg("transfer history unavailable")
		return 0, false
	}

	var entry int64
	for _, tr := range transfers {
		if tr.Token.Mint != mint || tr.Direction != provider.DirectionIn {
			continue
		}
		if entry == 0 || tr.Timestamp < entry {
			entry = tr.Timestamp
		}
	}
	if entry == 0 {
		return 0, false
	}
	early := tokenCreatedAt > 0 && entry-tokenCreatedAt < earlyBuyWindowSeconds
	return entry, early
}
