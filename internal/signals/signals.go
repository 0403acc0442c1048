package signals

import "strings"

// FundingType categorizes a wallet's funding origin.
type FundingType string

const (
	FundingMixer    FundingType = "mixer"
	FundingBridge   FundingType = "bridge"
	FundingExchange FundingType = "exchange"
	FundingDirect   FundingType = "direct"
	FundingUnknown  FundingType = "unknown"
)

// Signal weights for the base risk score. Strictly additive; the sum is
// clamped to 100 by the calculator.
const (
	WeightMixerFunded        = 35
	WeightBridgeFunded       = 15
	WeightExchangeFunded     = 10
	WeightUnknownFunding     = 5
	WeightFreshWallet        = 10
	WeightFastFundDeploy30m  = 15
	WeightFastFundDeploy3h   = 10
	WeightExchangeCashout    = 10
	WeightSprayTransfers     = 10
)

// Wallet freshness thresholds.
const (
	FreshWalletMaxAgeDays = 7
	FreshWalletMaxTxCount = 10
)

// SprayRecipientMin is the distinct-recipient count that flags spray transfers.
const SprayRecipientMin = 5

// ClassifyFunding maps identity tags and a label to a funding type.
// Matching is case-insensitive substring against the fixed pattern tables,
// in severity order: mixer first so a bridge or exchange mention cannot
// mask a mixer mention. Tagged-but-unrecognized input classifies as direct;
// empty input is unknown.
func ClassifyFunding(tags []string, label string) FundingType {
	parts := make([]string, 0, len(tags)+1)
	for _, t := range tags {
		parts = append(parts, strings.ToLower(t))
	}
	parts = append(parts, strings.ToLower(label))
	text := strings.Join(parts, " ")

	if matchesAny(text, MixerPatterns) {
		return FundingMixer
	}
	if matchesAny(text, BridgePatterns) {
		return FundingBridge
	}
	if matchesAny(text, ExchangePatterns) {
		return FundingExchange
	}
	if len(tags) > 0 || label != "" {
		return FundingDirect
	}
	return FundingUnknown
}

func matchesAny(text string, patterns []string) bool {
	for _, p := range patterns {
		if strings.Contains(text, p) {
			return true
		}
	}
	return false
}

// MatchesExchange reports whether the text mentions a known exchange.
func MatchesExchange(text string) bool {
	return matchesAny(strings.ToLower(text), ExchangePatterns)
}

// IsBadActorTag reports whether an identity tag marks a known offender.
func IsBadActorTag(tag string) bool {
	return matchesAny(strings.ToLower(tag), BadActorTags)
}

// IsWalletFresh reports whether a wallet looks newly created. A wallet with
// no observable first transaction is treated as fresh.
func IsWalletFresh(firstTxTimestamp, now int64, txCount int) bool {
	if firstTxTimestamp == 0 {
		return true
	}
	ageDays := float64(now-firstTxTimestamp) / 86400
	return ageDays < FreshWalletMaxAgeDays || txCount < FreshWalletMaxTxCount
}

// FundDeployTiming is the result of the fund-to-deploy timing check.
type FundDeployTiming struct {
	IsFast      bool
	TimeMinutes float64
	Severity    string // "30min" | "3h" | ""
}

// CheckFundDeployTiming flags suspiciously fast deployment after funding.
// The 30-minute band takes priority and excludes the 3-hour band. A deploy
// timestamp before the funding timestamp is not fast (likely resolver error).
func CheckFundDeployTiming(fundTimestamp, deployTimestamp int64) FundDeployTiming {
	if fundTimestamp == 0 || deployTimestamp == 0 {
		return FundDeployTiming{}
	}
	minutes := float64(deployTimestamp-fundTimestamp) / 60
	if minutes < 0 {
		return FundDeployTiming{}
	}
	if minutes <= 30 {
		return FundDeployTiming{IsFast: true, TimeMinutes: minutes, Severity: "30min"}
	}
	if minutes <= 180 {
		return FundDeployTiming{IsFast: true, TimeMinutes: minutes, Severity: "3h"}
	}
	return FundDeployTiming{TimeMinutes: minutes}
}
