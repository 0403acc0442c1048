package deployer

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/cannedoxygen/trench-transparency-terminal/internal/signals"
)

// ProfileType is the behavioral archetype derived from launch history.
type ProfileType string

const (
	ProfileSerialRugger  ProfileType = "serial_rugger"
	ProfilePumpAndDumper ProfileType = "pump_and_dumper"
	ProfileLegitimate    ProfileType = "legitimate"
	ProfileNewDeployer   ProfileType = "new_deployer"
	ProfileUnknown       ProfileType = "unknown"
)

// TimingPattern summarizes launch cadence. Day and time preferences are
// only reported when they clear the noise thresholds (30% / 40% of
// launches) so small samples stay quiet.
type TimingPattern struct {
	AvgDaysBetweenLaunches float64 `json:"avg_days_between_launches,omitempty"`
	PreferredDayOfWeek     string  `json:"preferred_day_of_week,omitempty"`
	PreferredTimeOfDay     string  `json:"preferred_time_of_day,omitempty"`
	LaunchFrequency        string  `json:"launch_frequency"` // rapid|regular|occasional|rare|unknown
}

// LiquidityPattern infers exit behavior from rug-indicator text rather
// than direct LP-pool monitoring. A proxy, not an on-chain measurement.
type LiquidityPattern struct {
	RemovalSpeed           string `json:"removal_speed"` // immediate|fast|gradual|holds|unknown
	SellPatternDescription string `json:"sell_pattern_description,omitempty"`
}

// NamingPattern classifies the deployer's token naming style.
type NamingPattern struct {
	UsesMemeCoinNames  bool     `json:"uses_meme_coin_names"`
	UsesTrendyKeywords bool     `json:"uses_trendy_keywords"`
	CommonThemes       []string `json:"common_themes,omitempty"`
	NamingStyle        string   `json:"naming_style"` // meme|professional|generic|trendy|mixed
}

// TokenLifespan pairs a token name with its observed age.
type TokenLifespan struct {
	Name string  `json:"name"`
	Days float64 `json:"days"`
}

// BehaviorMetrics aggregates token survival statistics.
type BehaviorMetrics struct {
	AvgTokenLifespanDays  float64        `json:"avg_token_lifespan_days,omitempty"`
	LongestSurvivingToken *TokenLifespan `json:"longest_surviving_token,omitempty"`
	ShortestLivedToken    *TokenLifespan `json:"shortest_lived_token,omitempty"`
	PercentTokensDead     float64        `json:"percent_tokens_dead"`
}

// Personality is the full behavioral profile for a deployer.
type Personality struct {
	DeployerAddress    string           `json:"deployer_address"`
	ProfileType        ProfileType      `json:"profile_type"`
	Confidence         Confidence       `json:"confidence"`
	Timing             TimingPattern    `json:"timing"`
	Liquidity          LiquidityPattern `json:"liquidity"`
	Naming             NamingPattern    `json:"naming"`
	Behavior           BehaviorMetrics  `json:"behavior"`
	RiskIndicators     []string         `json:"risk_indicators"`
	PositiveIndicators []string         `json:"positive_indicators"`
	Summary            string           `json:"summary"`
	RiskLevel          signals.Level    `json:"risk_level"`
}

// BuildPersonality derives a behavioral profile from an already-computed
// history. now is unix seconds and controls lifespan math.
func BuildPersonality(history *History, now int64) *Personality {
	if history == nil || history.TotalTokens == 0 {
		return newDeployerProfile(history)
	}

	timing := analyzeTiming(history.TokensLaunched)
	liquidity := analyzeLiquidity(history.TokensLaunched)
	naming := analyzeNaming(history.TokensLaunched)
	behavior := analyzeBehavior(history.TokensLaunched, now)

	p := &Personality{
		DeployerAddress: history.Address,
		Timing:          timing,
		Liquidity:       liquidity,
		Naming:          naming,
		Behavior:        behavior,
	}
	classifyProfile(p, history)
	p.Summary = buildSummary(p, history)
	p.RiskLevel = personalityRiskLevel(history.RugRate, len(p.RiskIndicators), len(p.PositiveIndicators), p.ProfileType)
	return p
}

var weekdays = []string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}

func analyzeTiming(tokens []DeployedToken) TimingPattern {
	if len(tokens) < 2 {
		return TimingPattern{LaunchFrequency: "unknown"}
	}

	sorted := make([]DeployedToken, len(tokens))
	copy(sorted, tokens)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].DeployedAt < sorted[j].DeployedAt })

	var totalGapDays float64
	for i := 1; i < len(sorted); i++ {
		totalGapDays += float64(sorted[i].DeployedAt-sorted[i-1].DeployedAt) / 86400
	}
	avg := totalGapDays / float64(len(sorted)-1)

	pattern := TimingPattern{AvgDaysBetweenLaunches: avg}
	switch {
	case avg < 1:
		pattern.LaunchFrequency = "rapid"
	case avg < 7:
		pattern.LaunchFrequency = "regular"
	case avg < 30:
		pattern.LaunchFrequency = "occasional"
	default:
		pattern.LaunchFrequency = "rare"
	}

	dayCount := make(map[string]int)
	timeSlots := make(map[string]int)
	for _, token := range tokens {
		t := time.Unix(token.DeployedAt, 0).UTC()
		dayCount[weekdays[int(t.Weekday())]]++
		hour := t.Hour()
		switch {
		case hour >= 5 && hour < 12:
			timeSlots["Morning"]++
		case hour >= 12 && hour < 17:
			timeSlots["Afternoon"]++
		case hour >= 17 && hour < 21:
			timeSlots["Evening"]++
		default:
			timeSlots["Night"]++
		}
	}
	if day, count := maxEntry(dayCount); float64(count) >= float64(len(tokens))*0.3 {
		pattern.PreferredDayOfWeek = day
	}
	if slot, count := maxEntry(timeSlots); float64(count) >= float64(len(tokens))*0.4 {
		pattern.PreferredTimeOfDay = slot
	}
	return pattern
}

func maxEntry(counts map[string]int) (string, int) {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	// Stable tie-break so repeated runs agree.
	sort.Strings(keys)
	var bestKey string
	var bestCount int
	for _, k := range keys {
		if counts[k] > bestCount {
			bestKey, bestCount = k, counts[k]
		}
	}
	return bestKey, bestCount
}

func analyzeLiquidity(tokens []DeployedToken) LiquidityPattern {
	var quickRugs, gradualSells, holds int
	for _, token := range tokens {
		joined := strings.ToLower(strings.Join(token.RugIndicators, " "))
		switch {
		case strings.Contains(joined, "immediate") || strings.Contains(joined, "instant"):
			quickRugs++
		case strings.Contains(joined, "gradual") || strings.Contains(joined, "slow"):
			gradualSells++
		case token.CurrentStatus == StatusActive:
			holds++
		}
	}

	total := float64(len(tokens))
	if total == 0 {
		total = 1
	}

	p := LiquidityPattern{RemovalSpeed: "unknown"}
	switch {
	case float64(quickRugs)/total > 0.5:
		p.RemovalSpeed = "immediate"
		p.SellPatternDescription = "Typically removes liquidity within hours of launch"
	case float64(quickRugs+gradualSells)/total > 0.5:
		p.RemovalSpeed = "fast"
		p.SellPatternDescription = "Usually exits positions within 1-2 days"
	case float64(gradualSells)/total > 0.3:
		p.RemovalSpeed = "gradual"
		p.SellPatternDescription = "Tends to sell gradually over multiple days"
	case float64(holds)/total > 0.5:
		p.RemovalSpeed = "holds"
		p.SellPatternDescription = "Often maintains positions for extended periods"
	}
	return p
}

func analyzeNaming(tokens []DeployedToken) NamingPattern {
	var names []string
	for _, token := range tokens {
		name := token.Name
		if name == "" {
			name = token.Symbol
		}
		if name != "" {
			names = append(names, strings.ToLower(name))
		}
	}
	if len(names) == 0 {
		return NamingPattern{NamingStyle: "generic"}
	}

	var memeCount, trendyCount int
	themes := make(map[string]int)
	for _, name := range names {
		hasMeme, hasTrendy := false, false
		for _, keyword := range signals.MemeKeywords {
			if strings.Contains(name, keyword) {
				hasMeme = true
				themes[keyword]++
			}
		}
		for _, keyword := range signals.TrendyKeywords {
			if strings.Contains(name, keyword) {
				hasTrendy = true
				themes[keyword]++
			}
		}
		if hasMeme {
			memeCount++
		}
		if hasTrendy {
			trendyCount++
		}
	}

	p := NamingPattern{
		UsesMemeCoinNames:  float64(memeCount)/float64(len(names)) > 0.3,
		UsesTrendyKeywords: float64(trendyCount)/float64(len(names)) > 0.3,
		CommonThemes:       topThemes(themes, 5),
	}
	switch {
	case p.UsesMemeCoinNames && p.UsesTrendyKeywords:
		p.NamingStyle = "mixed"
	case p.UsesMemeCoinNames:
		p.NamingStyle = "meme"
	case p.UsesTrendyKeywords:
		p.NamingStyle = "trendy"
	case anyLongName(names):
		p.NamingStyle = "professional"
	default:
		p.NamingStyle = "generic"
	}
	return p
}

func anyLongName(names []string) bool {
	for _, n := range names {
		if len(n) > 15 {
			return true
		}
	}
	return false
}

func topThemes(themes map[string]int, limit int) []string {
	type entry struct {
		theme string
		count int
	}
	entries := make([]entry, 0, len(themes))
	for theme, count := range themes {
		entries = append(entries, entry{theme, count})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].count != entries[j].count {
			return entries[i].count > entries[j].count
		}
		return entries[i].theme < entries[j].theme
	})
	if len(entries) > limit {
		entries = entries[:limit]
	}
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.theme
	}
	return out
}

func analyzeBehavior(tokens []DeployedToken, now int64) BehaviorMetrics {
	if len(tokens) == 0 {
		return BehaviorMetrics{}
	}

	lifespans := make([]TokenLifespan, 0, len(tokens))
	var totalDays float64
	var deadCount int
	for _, token := range tokens {
		name := token.Name
		if name == "" {
			name = "Unknown"
		}
		days := float64(now-token.DeployedAt) / 86400
		lifespans = append(lifespans, TokenLifespan{Name: name, Days: days})
		totalDays += days
		if token.CurrentStatus == StatusDead {
			deadCount++
		}
	}
	sort.Slice(lifespans, func(i, j int) bool { return lifespans[i].Days > lifespans[j].Days })

	longest := lifespans[0]
	shortest := lifespans[len(lifespans)-1]
	return BehaviorMetrics{
		AvgTokenLifespanDays:  totalDays / float64(len(lifespans)),
		LongestSurvivingToken: &longest,
		ShortestLivedToken:    &shortest,
		PercentTokensDead:     float64(deadCount) / float64(len(tokens)) * 100,
	}
}

// classifyProfile assigns the archetype, first match wins.
func classifyProfile(p *Personality, history *History) {
	switch {
	case history.RugRate > 70:
		p.RiskIndicators = append(p.RiskIndicators, fmt.Sprintf("%d%% of tokens have rug indicators", history.RugRate))
	case history.RugRate < 20 && history.TotalTokens >= 3:
		p.PositiveIndicators = append(p.PositiveIndicators, "Low historical rug rate")
	}

	if p.Timing.LaunchFrequency == "rapid" {
		p.RiskIndicators = append(p.RiskIndicators, "Launches tokens in rapid succession")
	}

	switch p.Liquidity.RemovalSpeed {
	case "immediate":
		p.RiskIndicators = append(p.RiskIndicators, "Pattern of immediate liquidity removal")
	case "holds":
		p.PositiveIndicators = append(p.PositiveIndicators, "Tends to maintain positions")
	}

	if p.Naming.UsesMemeCoinNames && p.Naming.UsesTrendyKeywords {
		p.RiskIndicators = append(p.RiskIndicators, "Focuses on trendy/meme token names")
	}

	switch {
	case p.Behavior.PercentTokensDead > 80 && history.TotalTokens >= 3:
		p.RiskIndicators = append(p.RiskIndicators, fmt.Sprintf("%.0f%% of tokens are dead", p.Behavior.PercentTokensDead))
	case p.Behavior.PercentTokensDead < 30 && history.TotalTokens >= 3:
		p.PositiveIndicators = append(p.PositiveIndicators, "Most tokens still active")
	}

	switch {
	case history.TotalTokens > 10:
		p.RiskIndicators = append(p.RiskIndicators, fmt.Sprintf("High volume: %d tokens deployed", history.TotalTokens))
	case history.TotalTokens >= 3 && history.TotalTokens <= 5:
		p.PositiveIndicators = append(p.PositiveIndicators, "Moderate deployment history")
	}

	p.ProfileType = ProfileUnknown
	p.Confidence = ConfidenceLow
	switch {
	case history.TotalTokens < 2:
		p.ProfileType = ProfileNewDeployer
	case history.RugRate > 60 && p.Timing.LaunchFrequency == "rapid" &&
		(p.Liquidity.RemovalSpeed == "immediate" || p.Liquidity.RemovalSpeed == "fast"):
		p.ProfileType = ProfileSerialRugger
		p.Confidence = ConfidenceHigh
	case history.RugRate > 40 || (history.TotalTokens > 5 && p.Behavior.PercentTokensDead > 70):
		p.ProfileType = ProfilePumpAndDumper
		if history.TotalTokens >= 5 {
			p.Confidence = ConfidenceHigh
		} else {
			p.Confidence = ConfidenceMedium
		}
	case history.RugRate < 30 && p.Behavior.PercentTokensDead < 50 && p.Liquidity.RemovalSpeed != "immediate":
		p.ProfileType = ProfileLegitimate
		if history.TotalTokens >= 3 {
			p.Confidence = ConfidenceMedium
		}
	}
}

func buildSummary(p *Personality, history *History) string {
	var parts []string
	switch p.ProfileType {
	case ProfileSerialRugger:
		parts = append(parts, "This deployer shows strong patterns of serial rug pulling.")
	case ProfilePumpAndDumper:
		parts = append(parts, "This deployer appears to focus on pump-and-dump schemes.")
	case ProfileLegitimate:
		parts = append(parts, "This deployer shows signs of legitimate project development.")
	case ProfileNewDeployer:
		parts = append(parts, "This is a relatively new deployer with limited history.")
	default:
		parts = append(parts, "This deployer's behavior patterns are unclear.")
	}

	if history.TotalTokens > 1 {
		parts = append(parts, fmt.Sprintf("They have launched %d tokens with a %d%% rug rate.", history.TotalTokens, history.RugRate))
	}
	switch p.Timing.LaunchFrequency {
	case "rapid":
		parts = append(parts, "Tokens are launched in rapid succession, often within hours of each other.")
	case "regular":
		parts = append(parts, "New tokens are launched on a regular schedule.")
	}
	if p.Liquidity.SellPatternDescription != "" {
		parts = append(parts, p.Liquidity.SellPatternDescription+".")
	}
	if p.Behavior.AvgTokenLifespanDays > 0 && p.Behavior.AvgTokenLifespanDays < 7 {
		parts = append(parts, "Most tokens become inactive within a week of launch.")
	}
	return strings.Join(parts, " ")
}

// personalityRiskLevel forces extreme/high for the two worst archetypes,
// otherwise scores rugRate + riskIndicators*10 - positives*5 against the
// shared tier cutoffs.
func personalityRiskLevel(rugRate, riskCount, positiveCount int, profile ProfileType) signals.Level {
	if profile == ProfileSerialRugger {
		return signals.LevelExtreme
	}
	if profile == ProfilePumpAndDumper {
		return signals.LevelHigh
	}

	score := rugRate + riskCount*10 - positiveCount*5
	switch {
	case score > 70:
		return signals.LevelExtreme
	case score > 50:
		return signals.LevelHigh
	case score > 25:
		return signals.LevelMedium
	default:
		return signals.LevelLow
	}
}

func newDeployerProfile(history *History) *Personality {
	var address string
	if history != nil {
		address = history.Address
	}
	return &Personality{
		DeployerAddress: address,
		ProfileType:     ProfileNewDeployer,
		Confidence:      ConfidenceLow,
		Timing:          TimingPattern{LaunchFrequency: "unknown"},
		Liquidity:       LiquidityPattern{RemovalSpeed: "unknown"},
		Naming:          NamingPattern{NamingStyle: "generic"},
		RiskIndicators:  []string{"New deployer with no history"},
		Summary: "This is a new deployer with no established track record. " +
			"Exercise caution as there is no historical data to assess their behavior patterns.",
		RiskLevel: signals.LevelMedium,
	}
}
