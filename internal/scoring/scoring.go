// Package scoring turns funding and transfer evidence into a bounded
// risk score with human-readable reasons.
package scoring

import (
	"fmt"
	"strings"

	"github.com/cannedoxygen/trench-transparency-terminal/internal/signals"
)

// Score bounds and label thresholds.
const (
	ScoreMin = 0
	ScoreMax = 100

	LabelLow      = "low"
	LabelModerate = "moderate"
	LabelHigh     = "high"
	LabelExtreme  = "extreme"
)

// Transfer is the minimal transfer view the calculator needs.
type Transfer struct {
	Signature        string
	Timestamp        int64
	Direction        string // "in" | "out"
	Counterparty     string
	CounterpartyName string
	CounterpartyTags []string
	AmountSOL        float64
}

// Input carries the evidence the calculator scores. All timestamps are
// unix seconds; zero means unknown.
type Input struct {
	FundingType        signals.FundingType
	FunderName         string
	FundedAt           int64
	DeployedAt         int64
	FirstTxTimestamp   int64
	TxCount            int
	DeployerConfidence string // high|medium|low|unknown
	Transfers          []Transfer
}

// Result is the scored outcome. Unknowns record gaps in the evidence
// that kept signals from firing either way.
type Result struct {
	Score    int      `json:"score"`
	Label    string   `json:"label"`
	Reasons  []string `json:"reasons"`
	Unknowns []string `json:"unknowns"`
}

// Calculate produces a deterministic score from the input. The caller
// supplies now so repeated runs over the same evidence agree.
func Calculate(input Input, now int64) Result {
	score := 0
	var reasons []string
	var unknowns []string

	switch input.FundingType {
	case signals.FundingMixer:
		score += signals.WeightMixerFunded
		reasons = append(reasons, withDelta(fundingReason("mixer", input.FunderName, "obfuscated funding trail"), signals.WeightMixerFunded))
	case signals.FundingBridge:
		score += signals.WeightBridgeFunded
		reasons = append(reasons, withDelta(fundingReason("cross-chain bridge", input.FunderName, "origin chain unknown"), signals.WeightBridgeFunded))
	case signals.FundingExchange:
		score += signals.WeightExchangeFunded
		reasons = append(reasons, withDelta(fundingReason("centralized exchange", input.FunderName, "KYC trail exists but withdrawal wallets are cheap"), signals.WeightExchangeFunded))
	case signals.FundingUnknown:
		score += signals.WeightUnknownFunding
		reasons = append(reasons, withDelta("Funding source could not be determined", signals.WeightUnknownFunding))
		unknowns = append(unknowns, "Original funding source is unclear")
	}

	if signals.IsWalletFresh(input.FirstTxTimestamp, now, input.TxCount) {
		score += signals.WeightFreshWallet
		reasons = append(reasons, withDelta(fmt.Sprintf("Deployer wallet is fresh (%d prior transactions)", input.TxCount), signals.WeightFreshWallet))
	}

	timing := signals.CheckFundDeployTiming(input.FundedAt, input.DeployedAt)
	if timing.IsFast {
		weight := signals.WeightFastFundDeploy3h
		if timing.Severity == "30min" {
			weight = signals.WeightFastFundDeploy30m
		}
		score += weight
		reasons = append(reasons, withDelta(fmt.Sprintf("Token deployed %.0f minutes after wallet funding", timing.TimeMinutes), weight))
	}

	if exchange, ok := detectExchangeCashOut(input.Transfers); ok {
		score += signals.WeightExchangeCashout
		reasons = append(reasons, withDelta(fmt.Sprintf("Deployer moved funds to %s after deploy", exchange), signals.WeightExchangeCashout))
	}

	if recipients, ok := detectSprayTransfers(input.Transfers); ok {
		score += signals.WeightSprayTransfers
		reasons = append(reasons, withDelta(fmt.Sprintf("Deployer sprayed funds to %d wallets", recipients), signals.WeightSprayTransfers))
	}

	switch input.DeployerConfidence {
	case "unknown":
		unknowns = append(unknowns, "Deployer wallet could not be determined with confidence")
	case "low":
		unknowns = append(unknowns, "Deployer identification has low confidence")
	}
	if input.FundedAt == 0 {
		unknowns = append(unknowns, "Original funding timestamp unknown")
	}

	score = Clamp(score)
	return Result{Score: score, Label: LabelFor(score), Reasons: reasons, Unknowns: unknowns}
}

// withDelta appends the point contribution to a reason string.
func withDelta(reason string, points int) string {
	return fmt.Sprintf("%s (+%d)", reason, points)
}

func fundingReason(kind, name, detail string) string {
	if name != "" {
		return fmt.Sprintf("Deployer funded by %s (%s): %s", kind, name, detail)
	}
	return fmt.Sprintf("Deployer funded by %s: %s", kind, detail)
}

// Clamp bounds a score to [0, 100].
func Clamp(score int) int {
	if score < ScoreMin {
		return ScoreMin
	}
	if score > ScoreMax {
		return ScoreMax
	}
	return score
}

// LabelFor maps a clamped score to its verdict label.
func LabelFor(score int) string {
	switch {
	case score <= 25:
		return LabelLow
	case score <= 50:
		return LabelModerate
	case score <= 75:
		return LabelHigh
	default:
		return LabelExtreme
	}
}

// detectExchangeCashOut reports whether any outgoing transfer lands on an
// exchange-tagged counterparty, returning the exchange name when found.
func detectExchangeCashOut(transfers []Transfer) (string, bool) {
	for _, t := range transfers {
		if t.Direction != "out" {
			continue
		}
		if isExchangeCounterparty(t) {
			name := t.CounterpartyName
			if name == "" {
				name = "an exchange"
			}
			return name, true
		}
	}
	return "", false
}

func isExchangeCounterparty(t Transfer) bool {
	for _, tag := range t.CounterpartyTags {
		if strings.Contains(strings.ToLower(tag), "exchange") {
			return true
		}
	}
	return signals.MatchesExchange(t.CounterpartyName)
}

// detectSprayTransfers reports whether outgoing transfers fan out to at
// least SprayRecipientMin distinct wallets. Exchange counterparties
// count too; the signal measures fan-out, not destination kind.
func detectSprayTransfers(transfers []Transfer) (int, bool) {
	recipients := make(map[string]struct{})
	for _, t := range transfers {
		if t.Direction != "out" || t.Counterparty == "" {
			continue
		}
		recipients[t.Counterparty] = struct{}{}
	}
	if len(recipients) >= signals.SprayRecipientMin {
		return len(recipients), true
	}
	return 0, false
}
