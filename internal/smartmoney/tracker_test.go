package smartmoney

import (
	"context"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cannedoxygen/trench-transparency-terminal/internal/deployer"
	"github.com/cannedoxygen/trench-transparency-terminal/internal/provider"
	"github.com/cannedoxygen/trench-transparency-terminal/internal/reputation"
)

const (
	testMint  = "SmartMint"
	createdAt = int64(1_700_000_000)
	smNow     = createdAt + 86400
)

func newTracker(stub *provider.Stub) *Tracker {
	scorer := reputation.NewScorer(stub, deployer.NewHistoryEngine(stub, zerolog.Nop()), zerolog.Nop())
	return NewTracker(stub, scorer, zerolog.Nop())
}

func TestAnalyzeFiltersByReputation(t *testing.T) {
	stub := provider.NewStub()
	// Tagged scammer drops below the floor; the clean wallet stays at it.
	stub.AddIdentity("Scammer", provider.Identity{Tags: []string{"scammer"}})

	a := newTracker(stub).Analyze(context.Background(), testMint, []Candidate{
		{Address: "Clean", Percentage: 3.0},
		{Address: "Scammer", Percentage: 8.0},
	}, createdAt, smNow)

	require.Equal(t, 1, a.SmartMoneyCount)
	assert.Equal(t, "Clean", a.TopSmartMoney[0].Address)
	assert.InDelta(t, 3.0, a.SmartMoneyHolding, 0.001)
	assert.Equal(t, ActivityHolding, a.RecentActivity)
}

func TestAnalyzeEarlyBuyerWindow(t *testing.T) {
	stub := provider.NewStub()
	stub.AddTransfers("Early", []provider.WalletTransfer{
		{Timestamp: createdAt + 300, Direction: provider.DirectionIn, Token: provider.TransferToken{Mint: testMint, Amount: 100}},
	})
	stub.AddTransfers("Late", []provider.WalletTransfer{
		{Timestamp: createdAt + 900, Direction: provider.DirectionIn, Token: provider.TransferToken{Mint: testMint, Amount: 100}},
	})

	a := newTracker(stub).Analyze(context.Background(), testMint, []Candidate{
		{Address: "Early", Percentage: 2.0},
		{Address: "Late", Percentage: 2.0},
	}, createdAt, smNow)

	require.Equal(t, 2, a.SmartMoneyCount)
	byAddr := map[string]Wallet{}
	for _, w := range a.TopSmartMoney {
		byAddr[w.Address] = w
	}
	assert.True(t, byAddr["Early"].IsEarlyBuyer)
	assert.Equal(t, createdAt+300, byAddr["Early"].EntryTimestamp)
	assert.False(t, byAddr["Late"].IsEarlyBuyer)
	assert.Contains(t, a.Positives, "1 smart money wallet(s) bought early")
}

func TestAnalyzeBullishSentiment(t *testing.T) {
	stub := provider.NewStub()
	var holders []Candidate
	for i := 0; i < 5; i++ {
		holders = append(holders, Candidate{Address: fmt.Sprintf("W%d", i), Percentage: 3.0})
	}

	a := newTracker(stub).Analyze(context.Background(), testMint, holders, createdAt, smNow)

	assert.Equal(t, SentimentBullish, a.Sentiment)
	assert.Contains(t, a.Positives, "5 high-reputation wallets hold 15.0%")
}

func TestAnalyzeBearishWhenNoneQualify(t *testing.T) {
	stub := provider.NewStub()
	var holders []Candidate
	for i := 0; i < 10; i++ {
		addr := fmt.Sprintf("W%d", i)
		stub.AddIdentity(addr, provider.Identity{Tags: []string{"scammer"}})
		holders = append(holders, Candidate{Address: addr, Percentage: 1.0})
	}

	a := newTracker(stub).Analyze(context.Background(), testMint, holders, createdAt, smNow)

	assert.Equal(t, SentimentBearish, a.Sentiment)
	assert.Contains(t, a.Warnings, "No high-reputation wallets among top holders")
	assert.Empty(t, a.TopSmartMoney)
}

func TestAnalyzeKnownEntities(t *testing.T) {
	stub := provider.NewStub()
	stub.AddIdentity("Fund", provider.Identity{Name: "Sigma Fund", Tags: []string{"protocol"}})

	a := newTracker(stub).Analyze(context.Background(), testMint, []Candidate{
		{Address: "Fund", Percentage: 4.0},
	}, createdAt, smNow)

	require.Equal(t, 1, a.SmartMoneyCount)
	assert.Equal(t, "Sigma Fund", a.TopSmartMoney[0].KnownAs)
	assert.Contains(t, a.Positives, "Known entities: Sigma Fund")
}

func TestAnalyzeSortsAndCaps(t *testing.T) {
	stub := provider.NewStub()
	var holders []Candidate
	for i := 0; i < 12; i++ {
		holders = append(holders, Candidate{Address: fmt.Sprintf("W%d", i), Percentage: 1.0})
	}
	// One wallet outranks the rest through a known identity.
	stub.AddIdentity("W7", provider.Identity{Name: "Anchor Labs", Tags: []string{"dex"}})

	a := newTracker(stub).Analyze(context.Background(), testMint, holders, createdAt, smNow)

	assert.Equal(t, 12, a.SmartMoneyCount)
	require.Len(t, a.TopSmartMoney, 10)
	assert.Equal(t, "W7", a.TopSmartMoney[0].Address)
}
