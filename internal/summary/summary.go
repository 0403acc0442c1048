// Package summary turns a finished risk report into a short human verdict,
// either through an OpenAI-compatible completion API or a rule-based
// fallback when no model is configured.
package summary

import (
	"context"
	"fmt"
	"strings"

	"github.com/cannedoxygen/trench-transparency-terminal/internal/deployer"
	"github.com/cannedoxygen/trench-transparency-terminal/internal/holders"
	"github.com/cannedoxygen/trench-transparency-terminal/internal/signals"
)

// Verdict is the one-word call for a token.
type Verdict string

const (
	VerdictSafe          Verdict = "safe"
	VerdictCaution       Verdict = "caution"
	VerdictDanger        Verdict = "danger"
	VerdictExtremeDanger Verdict = "extreme_danger"
)

// VerdictFor maps a 0-100 risk score to a verdict.
func VerdictFor(score int) Verdict {
	switch {
	case score >= 75:
		return VerdictExtremeDanger
	case score >= 50:
		return VerdictDanger
	case score >= 25:
		return VerdictCaution
	default:
		return VerdictSafe
	}
}

// Input carries the report fields the summarizer needs. History and
// Holders may be nil when those stages produced nothing.
type Input struct {
	Mint               string
	TokenName          string
	TokenSymbol        string
	DeployerAddress    string
	DeployerConfidence deployer.Confidence
	DeployerTags       []string
	FundingType        signals.FundingType
	FundingEntity      string
	History            *deployer.History
	Holders            *holders.Analysis
	Score              int
	Label              string
	Reasons            []string
}

// Summary is the generated verdict block of a report.
type Summary struct {
	Verdict        Verdict  `json:"verdict"`
	Headline       string   `json:"headline"`
	Summary        string   `json:"summary"`
	KeyPoints      []string `json:"key_points"`
	Recommendation string   `json:"recommendation"`
}

// Summarizer produces a Summary for a report. Implementations must not
// fail: when generation is impossible they degrade to the rule-based text.
type Summarizer interface {
	Summarize(ctx context.Context, in Input) *Summary
}

// Fallback builds summaries from the report's own signals with no
// external calls.
type Fallback struct{}

// Summarize implements Summarizer.
func (Fallback) Summarize(_ context.Context, in Input) *Summary {
	verdict := VerdictFor(in.Score)

	var headline string
	switch {
	case in.History != nil && in.History.RugRate > 50:
		headline = fmt.Sprintf("Serial Rugger Alert - %d%% Rug Rate", in.History.RugRate)
	case in.FundingType == signals.FundingMixer:
		headline = "Mixer-Funded Deployer Detected"
	case in.Holders != nil && in.Holders.SniperCount >= 5:
		headline = "Heavy Sniper Activity Detected"
	case in.Score >= 75:
		headline = "Extreme Risk - Multiple Red Flags"
	case in.Score >= 50:
		headline = "High Risk - Proceed with Caution"
	case in.Score >= 25:
		headline = "Moderate Risk - Some Concerns"
	default:
		headline = "Lower Risk - Standard Signals"
	}

	var parts []string
	if in.History != nil && in.History.TotalTokens > 0 {
		parts = append(parts, fmt.Sprintf("Deployer has launched %d tokens with %d rugs (%d%% rug rate).",
			in.History.TotalTokens, in.History.RuggedTokens, in.History.RugRate))
	}
	switch {
	case in.FundingType == signals.FundingMixer:
		parts = append(parts, "Deployer wallet was funded through a mixer, obscuring the source of funds.")
	case in.FundingType == signals.FundingBridge:
		parts = append(parts, "Deployer wallet was funded via bridge, making origin harder to trace.")
	case in.FundingEntity != "":
		parts = append(parts, fmt.Sprintf("Deployer funded from %s.", in.FundingEntity))
	}
	if in.Holders != nil {
		if in.Holders.Top10Concentration > 80 {
			parts = append(parts, fmt.Sprintf("Top 10 wallets control %.0f%% of supply.", in.Holders.Top10Concentration))
		}
		if in.Holders.SniperCount >= 3 {
			parts = append(parts, fmt.Sprintf("%d sniper wallets among top holders.", in.Holders.SniperCount))
		}
	}
	text := strings.Join(parts, " ")
	if text == "" {
		text = "Limited data available for comprehensive analysis."
	}

	keyPoints := append([]string{}, firstN(in.Reasons, 3)...)
	if in.History != nil && in.History.RugRate > 0 {
		keyPoints = append(keyPoints, fmt.Sprintf("Deployer rug history: %d/%d tokens",
			in.History.RuggedTokens, in.History.TotalTokens))
	}
	if in.Holders != nil {
		keyPoints = append(keyPoints, firstN(in.Holders.Warnings, 2)...)
	}
	keyPoints = firstN(keyPoints, 5)

	var recommendation string
	switch verdict {
	case VerdictExtremeDanger:
		recommendation = "Strongly consider avoiding this token. Multiple high-risk indicators present."
	case VerdictDanger:
		recommendation = "High risk detected. If entering, use small size and set stop losses."
	case VerdictCaution:
		recommendation = "Some risk factors present. Research thoroughly before investing."
	default:
		recommendation = "Lower risk profile, but always DYOR. No token is completely safe."
	}

	return &Summary{
		Verdict:        verdict,
		Headline:       headline,
		Summary:        text,
		KeyPoints:      keyPoints,
		Recommendation: recommendation,
	}
}

func firstN(s []string, n int) []string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
