package live

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cannedoxygen/trench-transparency-terminal/internal/provider"
)

const (
	testMint     = "LiveMint"
	testDeployer = "LiveDeployer"
	binanceHot   = "5tzFkiKscXHK5ZXCGbBiKuV8XhE3oLkYbYpW8Wd8Vqne"
	liveNow      = int64(1_700_000_000)
)

func solTransfer(ts int64, counterparty string, amount float64) provider.WalletTransfer {
	return provider.WalletTransfer{
		Timestamp:    ts,
		Direction:    provider.DirectionOut,
		Counterparty: counterparty,
		Token:        provider.TransferToken{Mint: provider.WrappedSOLMint, Amount: amount},
	}
}

func TestCheckSignalsDevSellIsCritical(t *testing.T) {
	stub := provider.NewStub()
	stub.AddTransfers(testDeployer, []provider.WalletTransfer{
		{
			Timestamp: liveNow - 60,
			Direction: provider.DirectionOut,
			Token:     provider.TransferToken{Mint: testMint, Amount: 50_000},
		},
	})
	c := NewChecker(stub, 0, zerolog.Nop())

	found := c.CheckSignals(context.Background(), testMint, testDeployer, nil, liveNow)

	require.Len(t, found, 1)
	assert.Equal(t, SignalDevSell, found[0].Type)
	assert.Equal(t, SeverityCritical, found[0].Severity)
	assert.Equal(t, "Deployer sold tokens", found[0].Message)
}

func TestCheckSignalsExchangeDepositSeverityTiers(t *testing.T) {
	stub := provider.NewStub()
	stub.AddTransfers(testDeployer, []provider.WalletTransfer{
		solTransfer(liveNow-10, binanceHot, 12.0),
		solTransfer(liveNow-20, binanceHot, 7.0),
		solTransfer(liveNow-30, binanceHot, 2.0),
	})
	c := NewChecker(stub, 0, zerolog.Nop())

	found := c.CheckSignals(context.Background(), testMint, testDeployer, nil, liveNow)

	require.Len(t, found, 3)
	assert.Equal(t, SeverityCritical, found[0].Severity)
	assert.Equal(t, SeverityDanger, found[1].Severity)
	assert.Equal(t, SeverityWarning, found[2].Severity)
	assert.Equal(t, "Deployer sent 12.00 SOL to Binance", found[0].Message)
}

func TestCheckSignalsWindowCutoff(t *testing.T) {
	stub := provider.NewStub()
	stub.AddTransfers(testDeployer, []provider.WalletTransfer{
		solTransfer(liveNow-301, binanceHot, 12.0), // outside the 5-minute window
		solTransfer(liveNow-299, "SomeWallet", 8.0),
	})
	c := NewChecker(stub, 0, zerolog.Nop())

	found := c.CheckSignals(context.Background(), testMint, testDeployer, nil, liveNow)

	require.Len(t, found, 1)
	assert.Equal(t, SignalLargeTransfer, found[0].Type)
	assert.Equal(t, "Deployer sent 8.00 SOL", found[0].Message)
}

func TestCheckSignalsHolderActivity(t *testing.T) {
	stub := provider.NewStub()
	stub.AddTransfers("Holder1", []provider.WalletTransfer{
		{
			Timestamp: liveNow - 100,
			Direction: provider.DirectionOut,
			Token:     provider.TransferToken{Mint: testMint, Amount: 1000},
		},
	})
	stub.AddTransfers("Holder2", []provider.WalletTransfer{
		solTransfer(liveNow-50, binanceHot, 9.0),
	})
	c := NewChecker(stub, 0, zerolog.Nop())

	// The deployer appears in the holder list and must not be scanned twice.
	found := c.CheckSignals(context.Background(), testMint, testDeployer,
		[]string{testDeployer, "Holder1", "Holder2"}, liveNow)

	require.Len(t, found, 2)
	assert.Equal(t, "Top holder sent 9.00 SOL to exchange", found[0].Message)
	assert.Equal(t, "Holder2", found[0].Address)
	assert.Equal(t, "Top holder selling tokens", found[1].Message)
	assert.Equal(t, "Holder1", found[1].Address)
}

func TestRiskAdjustmentCapped(t *testing.T) {
	signals := []Signal{
		{Severity: SeverityCritical}, // 25
		{Severity: SeverityCritical}, // 25
		{Severity: SeverityDanger},   // over the cap already
		{Severity: SeverityInfo},
	}
	assert.Equal(t, MaxAdjustment, RiskAdjustment(signals))

	assert.Equal(t, 21, RiskAdjustment([]Signal{
		{Severity: SeverityDanger},
		{Severity: SeverityWarning},
		{Severity: SeverityInfo},
	}))
	assert.Zero(t, RiskAdjustment(nil))
}

func TestSweepDriftAndTrend(t *testing.T) {
	stub := provider.NewStub()
	m := NewMonitor(stub, time.Second, 0, zerolog.Nop())
	m.Watch(testMint, testDeployer, nil, 40)

	updates, cancel := m.Subscribe()
	defer cancel()

	// Quiet sweep: score stays at base.
	m.Sweep(context.Background(), liveNow)
	state, ok := m.State(testMint)
	require.True(t, ok)
	assert.Equal(t, 40, state.CurrentScore)
	assert.Equal(t, TrendStable, state.Trend)

	// Dev sell lands inside the window: score drifts up.
	stub.AddTransfers(testDeployer, []provider.WalletTransfer{
		{
			Timestamp: liveNow + 100,
			Direction: provider.DirectionOut,
			Token:     provider.TransferToken{Mint: testMint, Amount: 500},
		},
	})
	m.Sweep(context.Background(), liveNow+120)
	state, ok = m.State(testMint)
	require.True(t, ok)
	assert.Equal(t, 65, state.CurrentScore)
	assert.Equal(t, TrendIncreasing, state.Trend)
	require.Len(t, state.Signals, 1)

	// Signal ages out: score falls back to base.
	m.Sweep(context.Background(), liveNow+1000)
	state, _ = m.State(testMint)
	assert.Equal(t, 40, state.CurrentScore)
	assert.Equal(t, TrendDecreasing, state.Trend)

	// Three sweeps, three updates.
	for i := 0; i < 3; i++ {
		select {
		case u := <-updates:
			assert.Equal(t, testMint, u.Mint)
		default:
			t.Fatalf("missing update %d", i)
		}
	}
}

func TestUnwatchStopsUpdates(t *testing.T) {
	m := NewMonitor(provider.NewStub(), time.Second, 0, zerolog.Nop())
	m.Watch(testMint, testDeployer, nil, 10)
	m.Unwatch(testMint)

	_, ok := m.State(testMint)
	assert.False(t, ok)

	updates, cancel := m.Subscribe()
	defer cancel()
	m.Sweep(context.Background(), liveNow)
	select {
	case <-updates:
		t.Fatal("unexpected update for unwatched mint")
	default:
	}
}
