package insiders

import (
	"context"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cannedoxygen/trench-transparency-terminal/internal/provider"
	"github.com/cannedoxygen/trench-transparency-terminal/internal/signals"
)

const (
	testMint     = "InsiderMint"
	testDeployer = "DeployerX"
)

func TestSameFunderClusterMinimumSize(t *testing.T) {
	stub := provider.NewStub()
	// H1 and H2 share FunderA; H3 has its own funder.
	stub.AddFundedBy("H1", provider.FundingRecord{Funder: "FunderA"})
	stub.AddFundedBy("H2", provider.FundingRecord{Funder: "FunderA"})
	stub.AddFundedBy("H3", provider.FundingRecord{Funder: "FunderB"})

	d := NewDetector(stub, zerolog.Nop())
	analysis := d.Detect(context.Background(), testMint, []Candidate{
		{Address: "H1", Percentage: 3},
		{Address: "H2", Percentage: 2},
		{Address: "H3", Percentage: 1},
	}, testDeployer)

	require.Len(t, analysis.Clusters, 1)
	cluster := analysis.Clusters[0]
	assert.Equal(t, ClusterSameFunder, cluster.Type)
	assert.Len(t, cluster.Wallets, 2)
	assert.Equal(t, "FunderA", cluster.CommonFunder)
	assert.Equal(t, "Cluster A", cluster.Name)
	assert.Equal(t, 5.0, cluster.TotalHolding)
	assert.Equal(t, "leader", cluster.Wallets[0].ClusterRole)
	assert.Equal(t, "member", cluster.Wallets[1].ClusterRole)
}

func TestLoneFundeeProducesNoSameFunderCluster(t *testing.T) {
	stub := provider.NewStub()
	stub.AddFundedBy("H1", provider.FundingRecord{Funder: "FunderA"})
	stub.AddFundedBy("H2", provider.FundingRecord{Funder: "FunderB"})
	stub.AddFundedBy("H3", provider.FundingRecord{Funder: "FunderC"})

	d := NewDetector(stub, zerolog.Nop())
	analysis := d.Detect(context.Background(), testMint, []Candidate{
		{Address: "H1", Percentage: 3},
		{Address: "H2", Percentage: 2},
		{Address: "H3", Percentage: 1},
	}, testDeployer)

	assert.Empty(t, analysis.Clusters)
	assert.Zero(t, analysis.CoordinationScore)
}

func TestDeployerFundedClusterAlwaysForms(t *testing.T) {
	stub := provider.NewStub()
	stub.AddFundedBy("H1", provider.FundingRecord{Funder: testDeployer})
	stub.AddFundedBy("H2", provider.FundingRecord{Funder: "FunderB"})
	stub.AddFundedBy("H3", provider.FundingRecord{Funder: "FunderC"})

	d := NewDetector(stub, zerolog.Nop())
	analysis := d.Detect(context.Background(), testMint, []Candidate{
		{Address: "H1", Percentage: 4},
		{Address: "H2", Percentage: 2},
		{Address: "H3", Percentage: 1},
	}, testDeployer)

	require.Len(t, analysis.Clusters, 1)
	cluster := analysis.Clusters[0]
	assert.Equal(t, ClusterFundNetwork, cluster.Type)
	assert.Equal(t, signals.LevelExtreme, cluster.RiskLevel)
	assert.Len(t, cluster.Wallets, 1)
	assert.Contains(t, cluster.Wallets[0].RiskFlags, "Funded by deployer")
	assert.Contains(t, analysis.Warnings, "Deployer funded 1 top holder(s)")
}

func TestClusterNameFromFunderIdentity(t *testing.T) {
	stub := provider.NewStub()
	stub.AddFundedBy("H1", provider.FundingRecord{Funder: "NamedFunder"})
	stub.AddFundedBy("H2", provider.FundingRecord{Funder: "NamedFunder"})
	stub.AddFundedBy("H3", provider.FundingRecord{Funder: "Other"})
	stub.AddIdentity("NamedFunder", provider.Identity{Name: "Alameda Fresh 5"})

	d := NewDetector(stub, zerolog.Nop())
	analysis := d.Detect(context.Background(), testMint, []Candidate{
		{Address: "H1", Percentage: 1},
		{Address: "H2", Percentage: 1},
		{Address: "H3", Percentage: 1},
	}, testDeployer)

	require.Len(t, analysis.Clusters, 1)
	assert.Equal(t, "Alameda Fresh 5 Network", analysis.Clusters[0].Name)
}

func TestCoordinationScoreFormula(t *testing.T) {
	stub := provider.NewStub()
	stub.AddFundedBy("H1", provider.FundingRecord{Funder: "FunderA"})
	stub.AddFundedBy("H2", provider.FundingRecord{Funder: "FunderA"})
	stub.AddFundedBy("H3", provider.FundingRecord{Funder: "FunderB"})

	d := NewDetector(stub, zerolog.Nop())
	analysis := d.Detect(context.Background(), testMint, []Candidate{
		{Address: "H1", Percentage: 3},
		{Address: "H2", Percentage: 2},
		{Address: "H3", Percentage: 1},
	}, testDeployer)

	// 1 cluster x15 + 2 insiders x5 + 5% holding x2 = 35
	assert.Equal(t, 35, analysis.CoordinationScore)
	assert.Equal(t, 2, analysis.TotalInsiders)
	assert.Equal(t, 5.0, analysis.TotalInsiderHolding)
	assert.Equal(t, signals.LevelMedium, analysis.RiskLevel)
}

func TestCoordinationScoreCapped(t *testing.T) {
	stub := provider.NewStub()
	candidates := make([]Candidate, 10)
	for i := range candidates {
		addr := fmt.Sprintf("H%d", i)
		candidates[i] = Candidate{Address: addr, Percentage: 8}
		stub.AddFundedBy(addr, provider.FundingRecord{Funder: "MegaFunder"})
	}

	d := NewDetector(stub, zerolog.Nop())
	analysis := d.Detect(context.Background(), testMint, candidates, testDeployer)

	assert.Equal(t, 100, analysis.CoordinationScore)
	assert.Equal(t, signals.LevelExtreme, analysis.RiskLevel)
}

func TestCandidateFiltering(t *testing.T) {
	stub := provider.NewStub()

	d := NewDetector(stub, zerolog.Nop())
	// Deployer and dust holders are excluded, leaving fewer than 3
	// candidates: analysis stays empty.
	analysis := d.Detect(context.Background(), testMint, []Candidate{
		{Address: testDeployer, Percentage: 50},
		{Address: "Dust1", Percentage: 0.05},
		{Address: "H1", Percentage: 3},
		{Address: "H2", Percentage: 2},
	}, testDeployer)

	assert.Empty(t, analysis.Clusters)
	assert.Equal(t, signals.LevelLow, analysis.RiskLevel)
}
