// Package kol surfaces influencer (key opinion leader) connections to a
// token through a curated wallet list and provider identity tags.
package kol

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/cannedoxygen/trench-transparency-terminal/internal/provider"
	"github.com/cannedoxygen/trench-transparency-terminal/internal/signals"
)

const holderCheckLimit = 20

// Platform is where the influencer's audience lives.
type Platform string

const (
	PlatformTwitter  Platform = "twitter"
	PlatformYouTube  Platform = "youtube"
	PlatformTelegram Platform = "telegram"
	PlatformDiscord  Platform = "discord"
	PlatformUnknown  Platform = "unknown"
)

// Relationship is how a KOL wallet touches the token.
type Relationship string

const (
	RelHolder           Relationship = "holder"
	RelEarlyBuyer       Relationship = "early_buyer"
	RelFunder           Relationship = "funder"
	RelFundedByDeployer Relationship = "funded_by_deployer"
)

// Profile describes a known influencer wallet. Risk rates the chance the
// wallet shills paid promotions rather than organic picks.
type Profile struct {
	Name      string        `json:"name"`
	Platform  Platform      `json:"platform"`
	Followers int           `json:"followers,omitempty"`
	Risk      signals.Level `json:"risk"`
	Verified  bool          `json:"verified"`
}

// Connection ties one KOL wallet to the token under analysis.
type Connection struct {
	Address           string        `json:"address"`
	Profile           Profile       `json:"profile"`
	Relationship      Relationship  `json:"relationship"`
	HoldingPercentage float64       `json:"holding_percentage,omitempty"`
	Significance      signals.Level `json:"significance"`
}

// Analysis is the influencer read for one token.
type Analysis struct {
	TokenMint   string        `json:"token_mint"`
	KOLCount    int           `json:"kol_count"`
	Connections []Connection  `json:"connections"`
	Warnings    []string      `json:"warnings"`
	Positives   []string      `json:"positives"`
	RiskLevel   signals.Level `json:"risk_level"`
	Summary     string        `json:"summary"`
}

// Candidate is a top holder to screen for KOL wallets.
type Candidate struct {
	Address    string
	Percentage float64
}

// Detector matches holders and funding-chain wallets against the curated
// KOL list and the provider's identity tags.
type Detector struct {
	client provider.Client
	log    zerolog.Logger

	mu    sync.RWMutex
	known map[string]Profile
}

// NewDetector creates a KOL detector with an empty curated list. Entries
// come from AddKnown; a persistent registry backs this in production.
func NewDetector(client provider.Client, log zerolog.Logger) *Detector {
	return &Detector{
		client: client,
		log:    log.With().Str("component", "kol").Logger(),
		known:  make(map[string]Profile),
	}
}

// AddKnown registers a curated KOL wallet.
func (d *Detector) AddKnown(address string, profile Profile) {
	d.mu.Lock()
	d.known[address] = profile
	d.mu.Unlock()
}

// Known returns the profile for address if it is a curated KOL.
func (d *Detector) Known(address string) (Profile, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	p, ok := d.known[address]
	return p, ok
}

// Detect screens the token's top holders and funding-chain wallets for
// influencer connections. Identity lookup failures degrade to the curated
// list only.
func (d *Detector) Detect(ctx context.Context, mint string, topHolders []Candidate, fundingChain []string) *Analysis {
	d.log.Debug().Str("mint", mint).Int("holders", len(topHolders)).Msg("detecting influencer connections")

	analysis := &Analysis{
		TokenMint:   mint,
		Connections: []Connection{},
		Warnings:    []string{},
		Positives:   []string{},
		RiskLevel:   signals.LevelLow,
	}
	seen := make(map[string]bool)

	for _, holder := range topHolders {
		profile, ok := d.Known(holder.Address)
		if !ok {
			continue
		}
		analysis.Connections = append(analysis.Connections, Connection{
			Address:           holder.Address,
			Profile:           profile,
			Relationship:      RelHolder,
			HoldingPercentage: holder.Percentage,
			Significance:      holderSignificance(holder.Percentage),
		})
		seen[holder.Address] = true
	}

	for _, funder := range fundingChain {
		profile, ok := d.Known(funder)
		if !ok || seen[funder] {
			continue
		}
		analysis.Connections = append(analysis.Connections, Connection{
			Address:      funder,
			Profile:      profile,
			Relationship: RelFunder,
			Significance: signals.LevelHigh,
		})
		seen[funder] = true
	}

	d.detectByIdentity(ctx, analysis, topHolders, fundingChain, seen)
	d.finalize(analysis)

	d.log.Debug().Int("connections", analysis.KOLCount).Msg("influencer screen complete")
	return analysis
}

// detectByIdentity finds unlisted influencers through identity tags.
func (d *Detector) detectByIdentity(ctx context.Context, analysis *Analysis, topHolders []Candidate, fundingChain []string, seen map[string]bool) {
	holderPct := make(map[string]float64, len(topHolders))
	var addresses []string
	limit := len(topHolders)
	if limit > holderCheckLimit {
		limit = holderCheckLimit
	}
	for _, h := range topHolders[:limit] {
		holderPct[h.Address] = h.Percentage
		addresses = append(addresses, h.Address)
	}
	addresses = append(addresses, fundingChain...)

	identities, err := d.client.BatchGetIdentities(ctx, addresses)
	if err != nil {
		d.log.Warn().Err(err).Msg("identity batch unavailable, curated list only")
		return
	}

	for _, address := range addresses {
		identity, ok := identities[address]
		if !ok || identity.Name == "" || seen[address] {
			continue
		}
		if !looksLikeKOL(identity) {
			continue
		}

		conn := Connection{
			Address: address,
			Profile: Profile{
				Name:     identity.Name,
				Platform: PlatformUnknown,
				Risk:     signals.LevelMedium,
			},
			Relationship: RelFunder,
			Significance: signals.LevelMedium,
		}
		if pct, isHolder := holderPct[address]; isHolder {
			conn.Relationship = RelHolder
			conn.HoldingPercentage = pct
		}
		analysis.Connections = append(analysis.Connections, conn)
		seen[address] = true
	}
}

func (d *Detector) finalize(analysis *Analysis) {
	analysis.KOLCount = len(analysis.Connections)

	var highSig, funding, highRisk, lowRiskHolders int
	for _, c := range analysis.Connections {
		if c.Significance == signals.LevelHigh {
			highSig++
		}
		if c.Relationship == RelFunder || c.Relationship == RelFundedByDeployer {
			funding++
		}
		if c.Profile.Risk == signals.LevelHigh {
			highRisk++
		}
		if c.Relationship == RelHolder && c.Profile.Risk == signals.LevelLow {
			lowRiskHolders++
		}
	}

	if analysis.KOLCount > 0 {
		if highSig > 0 {
			analysis.Warnings = append(analysis.Warnings,
				fmt.Sprintf("%d significant influencer connection(s) detected", highSig))
		}
		if funding > 0 {
			analysis.Warnings = append(analysis.Warnings,
				"Token funded by or connected to influencer wallets")
		}
		if lowRiskHolders > 0 {
			analysis.Positives = append(analysis.Positives, "Reputable influencers are holding")
		}
	}

	switch {
	case highRisk > 0 || funding > 0:
		analysis.RiskLevel = signals.LevelHigh
	case analysis.KOLCount > 2:
		analysis.RiskLevel = signals.LevelMedium
	}

	switch {
	case analysis.KOLCount == 0:
		analysis.Summary = "No known influencer connections detected among holders or funding chain."
	case analysis.RiskLevel == signals.LevelHigh:
		analysis.Summary = fmt.Sprintf("Detected %d influencer connection(s). Some may indicate coordinated promotion.", analysis.KOLCount)
	default:
		analysis.Summary = fmt.Sprintf("Found %d potential influencer connection(s). Monitor for coordinated activity.", analysis.KOLCount)
	}
}

func holderSignificance(percentage float64) signals.Level {
	switch {
	case percentage > 5:
		return signals.LevelHigh
	case percentage > 1:
		return signals.LevelMedium
	default:
		return signals.LevelLow
	}
}

func looksLikeKOL(identity provider.Identity) bool {
	for _, tag := range identity.Tags {
		t := strings.ToLower(tag)
		if strings.Contains(t, "influencer") || strings.Contains(t, "kol") || strings.Contains(t, "creator") {
			return true
		}
	}
	return strings.Contains(strings.ToLower(identity.Name), "influencer") ||
		strings.Contains(strings.ToLower(identity.Category), "influencer")
}
