package deployer

import (
	"context"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/cannedoxygen/trench-transparency-terminal/internal/provider"
	"github.com/cannedoxygen/trench-transparency-terminal/internal/signals"
)

const historyNow = int64(1_700_000_000)

// seedLaunch registers one creation transaction for deployer plus the
// launched token's own activity profile.
func seedLaunch(stub *provider.Stub, deployer, mint string, deployedAt int64, tokenTxs []provider.Transaction) provider.Transaction {
	stub.AddHistory(mint, tokenTxs)
	return provider.Transaction{
		Signature: "create-" + mint,
		Timestamp: deployedAt,
		Type:      "CREATE",
		FeePayer:  deployer,
		TokenTransfers: []provider.TokenTransfer{
			{FromUserAccount: deployer, ToUserAccount: "pool", Mint: mint, TokenAmount: 1000},
		},
	}
}

func activeTokenTxs() []provider.Transaction {
	return []provider.Transaction{
		{Signature: "t1", Timestamp: historyNow - 3600, Type: "SWAP"},
	}
}

func deadTokenTxs() []provider.Transaction {
	return []provider.Transaction{
		{Signature: "t1", Timestamp: historyNow - 40*86400, Type: "SWAP"},
	}
}

func TestHistoryRugRateFiftyPercent(t *testing.T) {
	stub := provider.NewStub()
	deployer := "DeployerHist"

	var txs []provider.Transaction
	for i := 0; i < 4; i++ {
		mint := fmt.Sprintf("Mint%d", i)
		var tokenActivity []provider.Transaction
		if i < 2 {
			tokenActivity = deadTokenTxs()
		} else {
			tokenActivity = activeTokenTxs()
		}
		txs = append(txs, seedLaunch(stub, deployer, mint, historyNow-int64(i+1)*86400, tokenActivity))
	}
	stub.AddHistory(deployer, txs)

	e := NewHistoryEngine(stub, zerolog.Nop())
	h := e.History(context.Background(), deployer, historyNow)

	assert.Equal(t, 4, h.TotalTokens)
	assert.Equal(t, 2, h.RuggedTokens)
	assert.Equal(t, 50, h.RugRate)
	assert.Equal(t, signals.LevelHigh, h.RiskLevel)
}

func TestHistoryEmptyWallet(t *testing.T) {
	stub := provider.NewStub()

	e := NewHistoryEngine(stub, zerolog.Nop())
	h := e.History(context.Background(), "NeverSeen", historyNow)

	assert.Zero(t, h.TotalTokens)
	assert.Zero(t, h.RugRate)
	assert.Equal(t, signals.LevelLow, h.RiskLevel)
	assert.NotNil(t, h.TokensLaunched)
}

func TestHistoryFetchFailureCollapsesToEmpty(t *testing.T) {
	stub := provider.NewStub()
	stub.FailNext(assert.AnError)

	e := NewHistoryEngine(stub, zerolog.Nop())
	h := e.History(context.Background(), "Broken", historyNow)

	assert.Zero(t, h.TotalTokens)
	assert.Equal(t, signals.LevelLow, h.RiskLevel)
}

func TestHistoryNoActivityTokenIsRugged(t *testing.T) {
	stub := provider.NewStub()
	deployer := "DeployerGhost"
	tx := seedLaunch(stub, deployer, "GhostMint", historyNow-86400, nil)
	stub.AddHistory(deployer, []provider.Transaction{tx})

	e := NewHistoryEngine(stub, zerolog.Nop())
	h := e.History(context.Background(), deployer, historyNow)

	assert.Equal(t, 1, h.TotalTokens)
	assert.Equal(t, 1, h.RuggedTokens)
	assert.Equal(t, StatusDead, h.TokensLaunched[0].CurrentStatus)
	assert.Contains(t, h.TokensLaunched[0].RugIndicators, "No recent activity")
}

func TestHistoryLiquidityRemovalFlagsRug(t *testing.T) {
	stub := provider.NewStub()
	deployer := "DeployerLP"
	tokenTxs := []provider.Transaction{
		{Signature: "t1", Timestamp: historyNow - 3600, Type: "REMOVE_LIQUIDITY"},
	}
	tx := seedLaunch(stub, deployer, "LPMint", historyNow-86400, tokenTxs)
	stub.AddHistory(deployer, []provider.Transaction{tx})

	e := NewHistoryEngine(stub, zerolog.Nop())
	h := e.History(context.Background(), deployer, historyNow)

	token := h.TokensLaunched[0]
	assert.True(t, token.LiquidityRemoved)
	assert.True(t, token.IsRugged)
	assert.Equal(t, StatusActive, token.CurrentStatus)
}

func TestHistoryLargeDeployerSellIndicator(t *testing.T) {
	stub := provider.NewStub()
	deployer := "DeployerSell"
	tokenTxs := []provider.Transaction{
		{
			Signature: "t1",
			Timestamp: historyNow - 3600,
			Type:      "SWAP",
			TokenTransfers: []provider.TokenTransfer{
				{FromUserAccount: deployer, ToUserAccount: "buyer", Mint: "SellMint", TokenAmount: 2_000_000},
			},
		},
	}
	tx := seedLaunch(stub, deployer, "SellMint", historyNow-86400, tokenTxs)
	stub.AddHistory(deployer, []provider.Transaction{tx})

	e := NewHistoryEngine(stub, zerolog.Nop())
	h := e.History(context.Background(), deployer, historyNow)

	token := h.TokensLaunched[0]
	assert.Contains(t, token.RugIndicators, "Large deployer sell detected")
	// A single indicator on an otherwise active token is not a rug.
	assert.False(t, token.IsRugged)
}

func TestHistoryDeduplicatesMints(t *testing.T) {
	stub := provider.NewStub()
	deployer := "DeployerDup"
	stub.AddHistory("DupMint", activeTokenTxs())
	tx1 := seedLaunch(stub, deployer, "DupMint", historyNow-2*86400, activeTokenTxs())
	tx2 := seedLaunch(stub, deployer, "DupMint", historyNow-86400, activeTokenTxs())
	stub.AddHistory(deployer, []provider.Transaction{tx1, tx2})

	e := NewHistoryEngine(stub, zerolog.Nop())
	h := e.History(context.Background(), deployer, historyNow)

	assert.Equal(t, 1, h.TotalTokens)
}
