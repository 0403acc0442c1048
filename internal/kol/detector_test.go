package kol

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cannedoxygen/trench-transparency-terminal/internal/provider"
	"github.com/cannedoxygen/trench-transparency-terminal/internal/signals"
)

const testMint = "KolMint"

func newDetector(stub *provider.Stub) *Detector {
	return NewDetector(stub, zerolog.Nop())
}

func TestDetectCuratedHolder(t *testing.T) {
	d := newDetector(provider.NewStub())
	d.AddKnown("Influencer1", Profile{Name: "DegenCaller", Platform: PlatformTwitter, Followers: 250_000, Risk: signals.LevelHigh})

	a := d.Detect(context.Background(), testMint, []Candidate{
		{Address: "Influencer1", Percentage: 6.5},
		{Address: "Nobody", Percentage: 2.0},
	}, nil)

	require.Equal(t, 1, a.KOLCount)
	conn := a.Connections[0]
	assert.Equal(t, RelHolder, conn.Relationship)
	assert.Equal(t, signals.LevelHigh, conn.Significance)
	assert.Equal(t, signals.LevelHigh, a.RiskLevel)
	assert.Contains(t, a.Warnings, "1 significant influencer connection(s) detected")
}

func TestDetectCuratedFunder(t *testing.T) {
	d := newDetector(provider.NewStub())
	d.AddKnown("FunderKOL", Profile{Name: "ShillMaster", Platform: PlatformTelegram, Risk: signals.LevelMedium})

	a := d.Detect(context.Background(), testMint, nil, []string{"FunderKOL", "Plain"})

	require.Equal(t, 1, a.KOLCount)
	assert.Equal(t, RelFunder, a.Connections[0].Relationship)
	assert.Equal(t, signals.LevelHigh, a.Connections[0].Significance)
	assert.Equal(t, signals.LevelHigh, a.RiskLevel)
	assert.Contains(t, a.Warnings, "Token funded by or connected to influencer wallets")
}

func TestDetectByIdentityTags(t *testing.T) {
	stub := provider.NewStub()
	stub.AddIdentity("TaggedKOL", provider.Identity{Name: "Moon Girl", Tags: []string{"influencer"}})
	stub.AddIdentity("Dex", provider.Identity{Name: "Some DEX", Tags: []string{"dex"}})

	a := newDetector(stub).Detect(context.Background(), testMint, []Candidate{
		{Address: "TaggedKOL", Percentage: 2.5},
		{Address: "Dex", Percentage: 1.0},
	}, nil)

	require.Equal(t, 1, a.KOLCount)
	conn := a.Connections[0]
	assert.Equal(t, "Moon Girl", conn.Profile.Name)
	assert.Equal(t, RelHolder, conn.Relationship)
	assert.InDelta(t, 2.5, conn.HoldingPercentage, 0.001)
	assert.Equal(t, signals.LevelMedium, conn.Significance)
}

func TestDetectCuratedEntryNotDuplicatedByIdentity(t *testing.T) {
	stub := provider.NewStub()
	stub.AddIdentity("Both", provider.Identity{Name: "Both Ways", Tags: []string{"kol"}})

	d := newDetector(stub)
	d.AddKnown("Both", Profile{Name: "Both Ways", Platform: PlatformYouTube, Risk: signals.LevelLow})

	a := d.Detect(context.Background(), testMint, []Candidate{{Address: "Both", Percentage: 0.5}}, nil)

	assert.Equal(t, 1, a.KOLCount)
	assert.Contains(t, a.Positives, "Reputable influencers are holding")
}

func TestDetectNoConnections(t *testing.T) {
	a := newDetector(provider.NewStub()).Detect(context.Background(), testMint, []Candidate{
		{Address: "W1", Percentage: 3.0},
	}, []string{"F1"})

	assert.Zero(t, a.KOLCount)
	assert.Equal(t, signals.LevelLow, a.RiskLevel)
	assert.Equal(t, "No known influencer connections detected among holders or funding chain.", a.Summary)
}

func TestDetectMediumRiskOnManyLowRisk(t *testing.T) {
	d := newDetector(provider.NewStub())
	for _, addr := range []string{"K1", "K2", "K3"} {
		d.AddKnown(addr, Profile{Name: addr, Platform: PlatformTwitter, Risk: signals.LevelLow, Verified: true})
	}

	a := d.Detect(context.Background(), testMint, []Candidate{
		{Address: "K1", Percentage: 0.5},
		{Address: "K2", Percentage: 0.4},
		{Address: "K3", Percentage: 0.3},
	}, nil)

	assert.Equal(t, 3, a.KOLCount)
	assert.Equal(t, signals.LevelMedium, a.RiskLevel)
	assert.Contains(t, a.Summary, "Found 3 potential influencer connection(s)")
}
