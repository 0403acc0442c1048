// Package reputation computes a standalone 0-100 trust score for any
// wallet, reusable outside token analysis.
package reputation

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/cannedoxygen/trench-transparency-terminal/internal/deployer"
	"github.com/cannedoxygen/trench-transparency-terminal/internal/provider"
)

// Labels derived from the final score.
const (
	LabelTrusted    = "trusted"    // >= 70
	LabelNeutral    = "neutral"    // >= 45
	LabelSuspicious = "suspicious" // >= 25
	LabelDangerous  = "dangerous"
	LabelUnknown    = "unknown" // hard fetch failure only
)

const baseline = 50

// Breakdown itemizes the five score components. Each is independently
// bounded; the sum against the baseline is clamped afterward.
type Breakdown struct {
	AccountAge         int `json:"account_age"`          // 0..20
	ActivityLevel      int `json:"activity_level"`       // 0..15
	TokenDeployHistory int `json:"token_deploy_history"` // -25..25
	AssociationRisk    int `json:"association_risk"`     // -20..5
	TradingPatterns    int `json:"trading_patterns"`     // -20..15
}

// Details carries the raw observations behind the score.
type Details struct {
	FirstTx                int64  `json:"first_tx,omitempty"`
	TxCount                int    `json:"tx_count"`
	IsDeployer             bool   `json:"is_deployer"`
	TokensDeployed         int    `json:"tokens_deployed"`
	RugRate                int    `json:"rug_rate,omitempty"`
	AssociatedWithMixer    bool   `json:"associated_with_mixer"`
	AssociatedWithExchange bool   `json:"associated_with_exchange"`
	KnownEntity            string `json:"known_entity,omitempty"`
}

// Reputation is the scored result for one wallet.
type Reputation struct {
	Address   string    `json:"address"`
	Score     int       `json:"score"`
	Label     string    `json:"label"`
	Breakdown Breakdown `json:"breakdown"`
	Details   Details   `json:"details"`
	Flags     []string  `json:"flags"`
	Positives []string  `json:"positives"`
}

// Scorer computes wallet reputations.
type Scorer struct {
	client  provider.Client
	history *deployer.HistoryEngine
	log     zerolog.Logger
}

// NewScorer creates a reputation scorer over the given provider.
func NewScorer(client provider.Client, history *deployer.HistoryEngine, log zerolog.Logger) *Scorer {
	return &Scorer{
		client:  client,
		history: history,
		log:     log.With().Str("component", "reputation").Logger(),
	}
}

// Score rates the wallet from baseline 50. Sub-fetch failures degrade
// individual components; only a total identity+age failure yields the
// unknown label.
func (s *Scorer) Score(ctx context.Context, address string, now int64) *Reputation {
	rep := &Reputation{
		Address:   address,
		Flags:     []string{},
		Positives: []string{},
	}

	var (
		wg       sync.WaitGroup
		identity *provider.Identity
		fundedBy *provider.FundingRecord
		firstTx  *provider.Transaction
		history  *deployer.History

		identityErr, firstTxErr error
	)
	wg.Add(4)
	go func() {
		defer wg.Done()
		identity, identityErr = s.client.GetWalletIdentity(ctx, address)
	}()
	go func() {
		defer wg.Done()
		fundedBy, _ = s.client.GetWalletFundedBy(ctx, address)
	}()
	go func() {
		defer wg.Done()
		firstTx, firstTxErr = s.client.GetFirstTransaction(ctx, address)
	}()
	go func() {
		defer wg.Done()
		history = s.history.History(ctx, address, now)
	}()
	wg.Wait()

	if identityErr != nil && firstTxErr != nil {
		s.log.Warn().Str("address", address).Msg("wallet data unavailable")
		rep.Score = baseline
		rep.Label = LabelUnknown
		rep.Flags = append(rep.Flags, "Unable to fetch wallet data")
		return rep
	}

	s.scoreAccountAge(rep, firstTx, now)
	s.scoreActivity(ctx, rep, address)
	s.scoreDeployHistory(rep, history)
	s.scoreAssociation(rep, fundedBy)
	s.scoreIdentity(rep, identity)

	score := baseline +
		rep.Breakdown.AccountAge +
		rep.Breakdown.ActivityLevel +
		rep.Breakdown.TokenDeployHistory +
		rep.Breakdown.AssociationRisk +
		rep.Breakdown.TradingPatterns
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	rep.Score = score
	rep.Label = labelFor(score)
	return rep
}

func (s *Scorer) scoreAccountAge(rep *Reputation, firstTx *provider.Transaction, now int64) {
	if firstTx == nil || firstTx.Timestamp == 0 {
		return
	}
	rep.Details.FirstTx = firstTx.Timestamp
	ageDays := float64(now-firstTx.Timestamp) / 86400

	switch {
	case ageDays > 365:
		rep.Breakdown.AccountAge = 20
		rep.Positives = append(rep.Positives, "Account over 1 year old")
	case ageDays > 180:
		rep.Breakdown.AccountAge = 15
		rep.Positives = append(rep.Positives, "Account over 6 months old")
	case ageDays > 30:
		rep.Breakdown.AccountAge = 10
	case ageDays > 7:
		rep.Breakdown.AccountAge = 5
		rep.Flags = append(rep.Flags, "Account less than 1 month old")
	default:
		rep.Flags = append(rep.Flags, "Very new account (< 1 week)")
	}
}

func (s *Scorer) scoreActivity(ctx context.Context, rep *Reputation, address string) {
	transfers, err := s.client.GetWalletTransfers(ctx, address, 100)
	if err != nil {
		transfers = nil
	}
	rep.Details.TxCount = len(transfers)

	switch {
	case rep.Details.TxCount > 100:
		rep.Breakdown.ActivityLevel = 15
		rep.Positives = append(rep.Positives, "High activity wallet")
	case rep.Details.TxCount > 50:
		rep.Breakdown.ActivityLevel = 12
	case rep.Details.TxCount > 20:
		rep.Breakdown.ActivityLevel = 8
	case rep.Details.TxCount > 5:
		rep.Breakdown.ActivityLevel = 4
	default:
		rep.Flags = append(rep.Flags, "Low activity wallet")
	}
}

func (s *Scorer) scoreDeployHistory(rep *Reputation, history *deployer.History) {
	if history == nil || history.TotalTokens == 0 {
		// Not a deployer: mildly positive.
		rep.Breakdown.TokenDeployHistory = 10
		return
	}
	rep.Details.IsDeployer = true
	rep.Details.TokensDeployed = history.TotalTokens
	rep.Details.RugRate = history.RugRate

	switch {
	case history.RugRate == 0 && history.TotalTokens >= 3:
		rep.Breakdown.TokenDeployHistory = 25
		rep.Positives = append(rep.Positives,
			fmt.Sprintf("Clean deployer record (%d tokens, 0 rugs)", history.TotalTokens))
	case history.RugRate < 20:
		rep.Breakdown.TokenDeployHistory = 15
		rep.Positives = append(rep.Positives, "Low rug rate deployer")
	case history.RugRate < 50:
		rep.Flags = append(rep.Flags, fmt.Sprintf("Moderate rug rate: %d%%", history.RugRate))
	case history.RugRate < 75:
		rep.Breakdown.TokenDeployHistory = -15
		rep.Flags = append(rep.Flags, fmt.Sprintf("High rug rate: %d%%", history.RugRate))
	default:
		rep.Breakdown.TokenDeployHistory = -25
		rep.Flags = append(rep.Flags, fmt.Sprintf("Serial rugger: %d%% rug rate", history.RugRate))
	}
}

func (s *Scorer) scoreAssociation(rep *Reputation, fundedBy *provider.FundingRecord) {
	if fundedBy == nil {
		return
	}
	funderType := strings.ToLower(fundedBy.FunderType)
	funderName := strings.ToLower(fundedBy.FunderName)

	switch {
	case strings.Contains(funderType, "mixer") || strings.Contains(funderName, "mixer") ||
		strings.Contains(funderName, "tornado"):
		rep.Details.AssociatedWithMixer = true
		rep.Breakdown.AssociationRisk = -20
		rep.Flags = append(rep.Flags, "Funded from mixer/tumbler")
	case strings.Contains(funderType, "exchange") || strings.Contains(funderName, "binance") ||
		strings.Contains(funderName, "coinbase") || strings.Contains(funderName, "kraken"):
		rep.Details.AssociatedWithExchange = true
		// Exchange funding implies a KYC trail.
		rep.Breakdown.AssociationRisk = 5
		name := fundedBy.FunderName
		if name == "" {
			name = "exchange"
		}
		rep.Positives = append(rep.Positives, fmt.Sprintf("Funded from %s", name))
	case strings.Contains(funderType, "bridge"):
		rep.Breakdown.AssociationRisk = -5
		rep.Flags = append(rep.Flags, "Funded from bridge (harder to trace)")
	}
}

func (s *Scorer) scoreIdentity(rep *Reputation, identity *provider.Identity) {
	if identity == nil {
		return
	}
	if identity.Name != "" {
		rep.Details.KnownEntity = identity.Name
		rep.Positives = append(rep.Positives, fmt.Sprintf("Known entity: %s", identity.Name))
		rep.Breakdown.TradingPatterns += 10
	}
	for _, tag := range identity.Tags {
		lower := strings.ToLower(tag)
		switch {
		case strings.Contains(lower, "scammer") || strings.Contains(lower, "rugger") ||
			strings.Contains(lower, "exploiter"):
			rep.Breakdown.TradingPatterns = -20
			rep.Flags = append(rep.Flags, fmt.Sprintf("Tagged as: %s", tag))
		case strings.Contains(lower, "dex") || strings.Contains(lower, "protocol"):
			rep.Breakdown.TradingPatterns += 5
		}
	}
}

func labelFor(score int) string {
	switch {
	case score >= 70:
		return LabelTrusted
	case score >= 45:
		return LabelNeutral
	case score >= 25:
		return LabelSuspicious
	default:
		return LabelDangerous
	}
}
