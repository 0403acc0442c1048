package holders

import (
	"context"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cannedoxygen/trench-transparency-terminal/internal/provider"
	"github.com/cannedoxygen/trench-transparency-terminal/internal/signals"
)

const testMint = "HolderMint"

func supplyAsset(supply int64) provider.Asset {
	s := decimal.NewFromInt(supply)
	return provider.Asset{Mint: testMint, Name: "Test", Symbol: "TST", Decimals: 9, Supply: &s}
}

func TestAnalyzeSniperWindowBoundary(t *testing.T) {
	stub := provider.NewStub()
	stub.AddAsset(testMint, supplyAsset(1000))

	// 11 chronological transactions, one buyer each. The receiver in the
	// 10th transaction (index 9) is inside the window, the 11th is not.
	var txs []provider.Transaction
	for i := 0; i < 11; i++ {
		txs = append(txs, provider.Transaction{
			Signature: fmt.Sprintf("sig%d", i),
			Timestamp: int64(1000 + i),
			TokenTransfers: []provider.TokenTransfer{
				{ToUserAccount: fmt.Sprintf("Buyer%d", i), Mint: testMint, TokenAmount: 1},
			},
		})
	}
	stub.AddHistory(testMint, txs)

	holders := make([]provider.TokenHolder, 11)
	for i := range holders {
		holders[i] = provider.TokenHolder{
			Address: fmt.Sprintf("Buyer%d", i),
			Amount:  decimal.NewFromInt(int64(20 - i)),
		}
	}
	stub.AddTokenAccounts(testMint, provider.TokenAccountsResult{Holders: holders, TotalHolders: 11})

	a := NewAnalyzer(stub, zerolog.Nop())
	analysis := a.Analyze(context.Background(), testMint, "")

	byAddr := make(map[string]Holder)
	for _, h := range analysis.TopHolders {
		byAddr[h.Address] = h
	}
	assert.True(t, byAddr["Buyer9"].IsSniper, "receiver in tx index 9 must be a sniper")
	assert.False(t, byAddr["Buyer10"].IsSniper, "receiver in tx index 10 must not be a sniper")
	assert.Equal(t, int64(1009), byAddr["Buyer9"].BoughtAt)
}

func TestAnalyzeConcentrationAndDeployer(t *testing.T) {
	stub := provider.NewStub()
	stub.AddAsset(testMint, supplyAsset(1000))

	deployer := "DeployerHold"
	stub.AddTokenAccounts(testMint, provider.TokenAccountsResult{
		Holders: []provider.TokenHolder{
			{Address: deployer, Amount: decimal.NewFromInt(600)},
			{Address: "Whale", Amount: decimal.NewFromInt(300)},
			{Address: "Small", Amount: decimal.NewFromInt(50)},
		},
		TotalHolders: 3,
	})

	a := NewAnalyzer(stub, zerolog.Nop())
	analysis := a.Analyze(context.Background(), testMint, deployer)

	assert.Equal(t, 60.0, analysis.DeployerHolding)
	assert.Equal(t, 95.0, analysis.Top10Concentration)
	// deployer >50% forces the top tier
	assert.Equal(t, signals.LevelExtreme, analysis.RiskLevel)
	assert.Contains(t, analysis.Warnings[0], "Top 10 holders control 95%")

	require.True(t, analysis.TopHolders[0].IsDeployer)
	assert.True(t, analysis.TopHolders[0].IsInsider)
	assert.Contains(t, analysis.TopHolders[0].RiskFlags, "Whale concentration risk")
}

func TestAnalyzeSupplyFallbackSum(t *testing.T) {
	stub := provider.NewStub()
	// No asset seeded: supply falls back to the fetched-holder sum.
	stub.AddTokenAccounts(testMint, provider.TokenAccountsResult{
		Holders: []provider.TokenHolder{
			{Address: "A", Amount: decimal.NewFromInt(75)},
			{Address: "B", Amount: decimal.NewFromInt(25)},
		},
		TotalHolders: 2,
	})

	a := NewAnalyzer(stub, zerolog.Nop())
	analysis := a.Analyze(context.Background(), testMint, "")

	assert.Equal(t, 75.0, analysis.TopHolders[0].Percentage)
	assert.Equal(t, 25.0, analysis.TopHolders[1].Percentage)
}

func TestAnalyzeNoHolders(t *testing.T) {
	stub := provider.NewStub()

	a := NewAnalyzer(stub, zerolog.Nop())
	analysis := a.Analyze(context.Background(), testMint, "")

	assert.Zero(t, analysis.TotalHolders)
	assert.Empty(t, analysis.TopHolders)
	assert.Equal(t, signals.LevelLow, analysis.RiskLevel)
	assert.Contains(t, analysis.Warnings, "Unable to analyze holders")
}

func TestAnalyzeExchangeHoldings(t *testing.T) {
	stub := provider.NewStub()
	stub.AddAsset(testMint, supplyAsset(1000))
	stub.AddTokenAccounts(testMint, provider.TokenAccountsResult{
		Holders: []provider.TokenHolder{
			{Address: "ExchVault", Amount: decimal.NewFromInt(400)},
			{Address: "Retail", Amount: decimal.NewFromInt(100)},
		},
		TotalHolders: 2,
	})
	stub.AddIdentity("ExchVault", provider.Identity{Name: "Binance", Category: "exchange"})

	a := NewAnalyzer(stub, zerolog.Nop())
	analysis := a.Analyze(context.Background(), testMint, "")

	assert.Equal(t, 40.0, analysis.ExchangeHoldings)
	require.NotNil(t, analysis.TopHolders[0].Identity)
	assert.True(t, analysis.TopHolders[0].Identity.IsExchange)
}

func TestAnalyzeTopTwentyCap(t *testing.T) {
	stub := provider.NewStub()
	stub.AddAsset(testMint, supplyAsset(100000))

	holders := make([]provider.TokenHolder, 25)
	for i := range holders {
		holders[i] = provider.TokenHolder{
			Address: fmt.Sprintf("H%d", i),
			Amount:  decimal.NewFromInt(int64(1000 - i)),
		}
	}
	stub.AddTokenAccounts(testMint, provider.TokenAccountsResult{Holders: holders, TotalHolders: 25})

	a := NewAnalyzer(stub, zerolog.Nop())
	analysis := a.Analyze(context.Background(), testMint, "")

	assert.Len(t, analysis.TopHolders, 20)
	assert.Equal(t, 25, analysis.TotalHolders)
}
