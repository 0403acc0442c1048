// Package insiders groups top holders by shared funding source and
// scores how coordinated they appear.
package insiders

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/cannedoxygen/trench-transparency-terminal/internal/provider"
	"github.com/cannedoxygen/trench-transparency-terminal/internal/signals"
)

// Candidate filters.
const (
	minHoldingPercent = 0.1
	candidateCap      = 30
	minCandidates     = 3
)

// ClusterType labels how a cluster was formed.
type ClusterType string

const (
	ClusterSameFunder  ClusterType = "same_funder"
	ClusterFundNetwork ClusterType = "fund_network"
)

// Candidate is one holder under insider analysis.
type Candidate struct {
	Address    string
	Percentage float64
}

// Wallet is one clustered insider wallet.
type Wallet struct {
	Address       string   `json:"address"`
	Holding       float64  `json:"holding"` // percentage of supply
	FundingSource string   `json:"funding_source,omitempty"`
	ClusterID     int      `json:"cluster_id"`
	ClusterRole   string   `json:"cluster_role"` // leader|member
	RiskFlags     []string `json:"risk_flags,omitempty"`
}

// Cluster is a group of holders sharing one funding source.
type Cluster struct {
	ID           int           `json:"id"`
	Name         string        `json:"name"`
	Type         ClusterType   `json:"type"`
	Wallets      []Wallet      `json:"wallets"`
	TotalHolding float64       `json:"total_holding"`
	CommonFunder string        `json:"common_funder,omitempty"`
	RiskLevel    signals.Level `json:"risk_level"`
	Warnings     []string      `json:"warnings"`
}

// Analysis is the insider-cluster report for a mint.
type Analysis struct {
	TokenMint           string        `json:"token_mint"`
	TotalInsiders       int           `json:"total_insiders"`
	TotalInsiderHolding float64       `json:"total_insider_holding"`
	Clusters            []Cluster     `json:"clusters"`
	CoordinationScore   int           `json:"coordination_score"` // 0-100
	RiskLevel           signals.Level `json:"risk_level"`
	Warnings            []string      `json:"warnings"`
}

// Detector finds insider clusters among top holders.
type Detector struct {
	client provider.Client
	log    zerolog.Logger
}

// NewDetector creates an insider detector over the given provider.
func NewDetector(client provider.Client, log zerolog.Logger) *Detector {
	return &Detector{client: client, log: log.With().Str("component", "insiders").Logger()}
}

// Detect clusters the top holders by one-hop funding source. The
// deployer is excluded as a candidate but its fundees always form a
// fund_network cluster, even alone.
func (d *Detector) Detect(ctx context.Context, mint string, topHolders []Candidate, deployerAddress string) *Analysis {
	analysis := emptyAnalysis(mint)

	var candidates []Candidate
	for _, h := range topHolders {
		if h.Address == deployerAddress || h.Percentage <= minHoldingPercent {
			continue
		}
		candidates = append(candidates, h)
		if len(candidates) >= candidateCap {
			break
		}
	}
	if len(candidates) < minCandidates {
		return analysis
	}

	type holderData struct {
		Candidate
		fundingSource string
	}
	holders := make([]holderData, 0, len(candidates))
	for _, c := range candidates {
		data := holderData{Candidate: c}
		if record, err := d.client.GetWalletFundedBy(ctx, c.Address); err == nil && record != nil {
			data.fundingSource = record.Funder
		}
		holders = append(holders, data)
	}

	// Group by funder, first-seen order for stable cluster IDs.
	var funderOrder []string
	funderGroups := make(map[string][]holderData)
	for _, h := range holders {
		if h.fundingSource == "" {
			continue
		}
		if _, ok := funderGroups[h.fundingSource]; !ok {
			funderOrder = append(funderOrder, h.fundingSource)
		}
		funderGroups[h.fundingSource] = append(funderGroups[h.fundingSource], h)
	}

	clusterID := 0
	for _, funder := range funderOrder {
		members := funderGroups[funder]
		if len(members) < 2 {
			continue
		}

		cluster := Cluster{
			ID:           clusterID,
			Type:         ClusterSameFunder,
			CommonFunder: funder,
			Warnings:     []string{},
		}
		for idx, m := range members {
			role := "member"
			if idx == 0 {
				role = "leader"
			}
			wallet := Wallet{
				Address:       m.Address,
				Holding:       m.Percentage,
				FundingSource: m.fundingSource,
				ClusterID:     clusterID,
				ClusterRole:   role,
			}
			if m.Percentage > 5 {
				wallet.RiskFlags = append(wallet.RiskFlags, "Large holder")
			}
			cluster.Wallets = append(cluster.Wallets, wallet)
			cluster.TotalHolding += m.Percentage
		}

		if len(members) >= 4 {
			cluster.Warnings = append(cluster.Warnings, fmt.Sprintf("%d wallets funded from same source", len(members)))
		}
		if cluster.TotalHolding > 10 {
			cluster.Warnings = append(cluster.Warnings, fmt.Sprintf("Cluster controls %.1f%% of supply", cluster.TotalHolding))
		}

		cluster.Name = fmt.Sprintf("Cluster %c", 'A'+clusterID)
		if identity, err := d.client.GetWalletIdentity(ctx, funder); err == nil && identity != nil && identity.Name != "" {
			cluster.Name = identity.Name + " Network"
		}
		cluster.RiskLevel = clusterRiskLevel(cluster.TotalHolding, len(members))

		analysis.Clusters = append(analysis.Clusters, cluster)
		clusterID++
	}

	// Deployer-funded holders form a cluster regardless of size.
	if deployerAddress != "" {
		var fundees []holderData
		for _, h := range holders {
			if h.fundingSource == deployerAddress {
				fundees = append(fundees, h)
			}
		}
		if len(fundees) >= 1 {
			cluster := Cluster{
				ID:           clusterID,
				Name:         "Deployer-Funded Wallets",
				Type:         ClusterFundNetwork,
				CommonFunder: deployerAddress,
				RiskLevel:    signals.LevelExtreme,
			}
			for idx, m := range fundees {
				role := "member"
				if idx == 0 {
					role = "leader"
				}
				cluster.Wallets = append(cluster.Wallets, Wallet{
					Address:       m.Address,
					Holding:       m.Percentage,
					FundingSource: m.fundingSource,
					ClusterID:     clusterID,
					ClusterRole:   role,
					RiskFlags:     []string{"Funded by deployer"},
				})
				cluster.TotalHolding += m.Percentage
			}
			cluster.Warnings = []string{
				fmt.Sprintf("%d holder(s) funded directly by deployer", len(fundees)),
				fmt.Sprintf("Combined holding: %.1f%%", cluster.TotalHolding),
			}
			analysis.Clusters = append(analysis.Clusters, cluster)
			analysis.Warnings = append(analysis.Warnings,
				fmt.Sprintf("Deployer funded %d top holder(s)", len(fundees)))
			clusterID++
		}
	}

	d.finalize(analysis)
	return analysis
}

func (d *Detector) finalize(analysis *Analysis) {
	for _, cluster := range analysis.Clusters {
		analysis.TotalInsiders += len(cluster.Wallets)
		analysis.TotalInsiderHolding += cluster.TotalHolding
	}

	if len(analysis.Clusters) > 0 {
		score := float64(len(analysis.Clusters))*15 +
			float64(analysis.TotalInsiders)*5 +
			analysis.TotalInsiderHolding*2
		if score > 100 {
			score = 100
		}
		analysis.CoordinationScore = int(score)
	}

	if analysis.TotalInsiderHolding > 30 {
		analysis.Warnings = append(analysis.Warnings,
			fmt.Sprintf("Insider clusters control %.1f%% of supply", analysis.TotalInsiderHolding))
	}
	if len(analysis.Clusters) >= 3 {
		analysis.Warnings = append(analysis.Warnings,
			fmt.Sprintf("%d distinct insider clusters detected", len(analysis.Clusters)))
	}
	for _, cluster := range analysis.Clusters {
		if cluster.Type == ClusterSameFunder && len(cluster.Wallets) >= 4 {
			analysis.Warnings = append(analysis.Warnings, "Large coordinated wallet group detected")
			break
		}
	}

	switch {
	case analysis.CoordinationScore > 60 || analysis.TotalInsiderHolding > 25:
		analysis.RiskLevel = signals.LevelExtreme
	case analysis.CoordinationScore > 40 || analysis.TotalInsiderHolding > 15:
		analysis.RiskLevel = signals.LevelHigh
	case analysis.CoordinationScore > 20 || analysis.TotalInsiderHolding > 8:
		analysis.RiskLevel = signals.LevelMedium
	default:
		analysis.RiskLevel = signals.LevelLow
	}
}

func clusterRiskLevel(totalHolding float64, memberCount int) signals.Level {
	switch {
	case totalHolding > 20 || memberCount >= 5:
		return signals.LevelExtreme
	case totalHolding > 10 || memberCount >= 4:
		return signals.LevelHigh
	case totalHolding > 5 || memberCount >= 3:
		return signals.LevelMedium
	default:
		return signals.LevelLow
	}
}

func emptyAnalysis(mint string) *Analysis {
	return &Analysis{
		TokenMint: mint,
		Clusters:  []Cluster{},
		RiskLevel: signals.LevelLow,
		Warnings:  []string{},
	}
}
