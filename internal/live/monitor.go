// Package live watches analyzed tokens for post-report danger signals:
// deployer sells, exchange deposits, and large transfers inside a short
// sliding window, with a score drift on top of the base risk score.
package live

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/cannedoxygen/trench-transparency-terminal/internal/exchange"
	"github.com/cannedoxygen/trench-transparency-terminal/internal/provider"
	"github.com/cannedoxygen/trench-transparency-terminal/internal/scoring"
)

const (
	// DefaultWindowSeconds is the lookback for one sweep.
	DefaultWindowSeconds = 300

	// MaxAdjustment caps the live drift added to the base score.
	MaxAdjustment = 50

	deployerScanLimit = 20
	holderScanLimit   = 10
	holderCheckCap    = 5

	largeTransferSOL   = 5.0
	dangerTransferSOL  = 20.0
	dangerDepositSOL   = 5.0
	criticalDepositSOL = 10.0
)

// SignalType labels one live observation.
type SignalType string

const (
	SignalLiquidityChange SignalType = "liquidity_change"
	SignalDevSell         SignalType = "dev_sell"
	SignalLargeTransfer   SignalType = "large_transfer"
	SignalExchangeDeposit SignalType = "exchange_deposit"
	SignalHolderChange    SignalType = "holder_change"
)

// Severity ranks a live signal.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityDanger   Severity = "danger"
	SeverityCritical Severity = "critical"
)

// Signal is one live observation on a watched token.
type Signal struct {
	Type      SignalType `json:"type"`
	Severity  Severity   `json:"severity"`
	Message   string     `json:"message"`
	Timestamp int64      `json:"timestamp"`
	Amount    float64    `json:"amount,omitempty"`
	Address   string     `json:"address,omitempty"`
}

// Trend is the score direction between two sweeps.
type Trend string

const (
	TrendStable     Trend = "stable"
	TrendIncreasing Trend = "increasing"
	TrendDecreasing Trend = "decreasing"
)

// RiskState is the live view of one watched token.
type RiskState struct {
	Mint         string   `json:"mint"`
	CurrentScore int      `json:"current_score"`
	BaseScore    int      `json:"base_score"`
	Trend        Trend    `json:"trend"`
	Signals      []Signal `json:"signals"`
	LastUpdate   int64    `json:"last_update"`
	IsMonitoring bool     `json:"is_monitoring"`
}

// Update is one state change pushed to subscribers.
type Update struct {
	Mint  string    `json:"mint"`
	State RiskState `json:"state"`
}

// RiskAdjustment converts sweep signals into a capped score drift.
func RiskAdjustment(signals []Signal) int {
	adjustment := 0
	for _, s := range signals {
		switch s.Severity {
		case SeverityCritical:
			adjustment += 25
		case SeverityDanger:
			adjustment += 15
		case SeverityWarning:
			adjustment += 5
		case SeverityInfo:
			adjustment++
		}
	}
	if adjustment > MaxAdjustment {
		return MaxAdjustment
	}
	return adjustment
}

// Checker scans recent transfers of the deployer and top holders for
// danger signals.
type Checker struct {
	client provider.Client
	window int64
	log    zerolog.Logger
}

// NewChecker creates a signal checker. window is the sweep lookback in
// seconds; zero means DefaultWindowSeconds.
func NewChecker(client provider.Client, window int64, log zerolog.Logger) *Checker {
	if window <= 0 {
		window = DefaultWindowSeconds
	}
	return &Checker{client: client, window: window, log: log.With().Str("component", "live").Logger()}
}

// CheckSignals sweeps the deployer and the first five top holders for
// activity inside the window, most recent first. Per-wallet fetch
// failures skip that wallet.
func (c *Checker) CheckSignals(ctx context.Context, mint, deployerAddress string, topHolders []string, now int64) []Signal {
	cutoff := now - c.window
	var found []Signal

	if deployerAddress != "" {
		transfers, err := c.client.GetWalletTransfers(ctx, deployerAddress, deployerScanLimit)
		if err != nil {
			c.log.Debug().Err(err).Msg("deployer transfer fetch failed")
		}
		for _, t := range transfers {
			if t.Timestamp < cutoff || t.Direction != provider.DirectionOut {
				continue
			}
			amount := t.Token.Amount

			if t.IsNative() {
				if name, ok := exchange.KnownHotWallet(t.Counterparty); ok {
					severity := SeverityWarning
					if amount > criticalDepositSOL {
						severity = SeverityCritical
					} else if amount > dangerDepositSOL {
						severity = SeverityDanger
					}
					found = append(found, Signal{
						Type:      SignalExchangeDeposit,
						Severity:  severity,
						Message:   fmt.Sprintf("Deployer sent %.2f SOL to %s", amount, name),
						Timestamp: t.Timestamp,
						Amount:    amount,
						Address:   t.Counterparty,
					})
				} else if amount > largeTransferSOL {
					severity := SeverityWarning
					if amount > dangerTransferSOL {
						severity = SeverityDanger
					}
					found = append(found, Signal{
						Type:      SignalLargeTransfer,
						Severity:  severity,
						Message:   fmt.Sprintf("Deployer sent %.2f SOL", amount),
						Timestamp: t.Timestamp,
						Amount:    amount,
					})
				}
			}

			if t.Token.Mint == mint {
				found = append(found, Signal{
					Type:      SignalDevSell,
					Severity:  SeverityCritical,
					Message:   "Deployer sold tokens",
					Timestamp: t.Timestamp,
					Amount:    amount,
				})
			}
		}
	}

	holders := topHolders
	if len(holders) > holderCheckCap {
		holders = holders[:holderCheckCap]
	}
	for _, holder := range holders {
		if holder == deployerAddress {
			continue
		}
		transfers, err := c.client.GetWalletTransfers(ctx, holder, holderScanLimit)
		if err != nil {
			c.log.Debug().Err(err).Str("holder", holder).Msg("holder transfer fetch failed")
			continue
		}
		for _, t := range transfers {
			if t.Timestamp < cutoff || t.Direction != provider.DirectionOut {
				continue
			}
			if t.Token.Mint == mint {
				found = append(found, Signal{
					Type:      SignalLargeTransfer,
					Severity:  SeverityWarning,
					Message:   "Top holder selling tokens",
					Timestamp: t.Timestamp,
					Amount:    t.Token.Amount,
					Address:   holder,
				})
			}
			if t.IsNative() && t.Token.Amount > largeTransferSOL {
				if _, ok := exchange.KnownHotWallet(t.Counterparty); ok {
					found = append(found, Signal{
						Type:      SignalExchangeDeposit,
						Severity:  SeverityWarning,
						Message:   fmt.Sprintf("Top holder sent %.2f SOL to exchange", t.Token.Amount),
						Timestamp: t.Timestamp,
						Amount:    t.Token.Amount,
						Address:   holder,
					})
				}
			}
		}
	}

	sort.SliceStable(found, func(i, j int) bool { return found[i].Timestamp > found[j].Timestamp })
	return found
}

type watch struct {
	deployer  string
	holders   []string
	baseScore int
	state     RiskState
}

// Monitor sweeps watched tokens on a schedule and pushes state changes
// to subscribers.
type Monitor struct {
	checker  *Checker
	interval time.Duration
	log      zerolog.Logger

	mu      sync.RWMutex
	watches map[string]*watch
	subs    map[chan Update]struct{}

	cron *cron.Cron
}

// NewMonitor creates a monitor sweeping every interval.
func NewMonitor(client provider.Client, interval time.Duration, window int64, log zerolog.Logger) *Monitor {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Monitor{
		checker:  NewChecker(client, window, log),
		interval: interval,
		log:      log.With().Str("component", "live").Logger(),
		watches:  make(map[string]*watch),
		subs:     make(map[chan Update]struct{}),
	}
}

// Start schedules periodic sweeps. Returns an error when the schedule
// cannot be registered.
func (m *Monitor) Start() error {
	c := cron.New()
	if _, err := c.AddFunc(fmt.Sprintf("@every %s", m.interval), func() {
		m.Sweep(context.Background(), time.Now().Unix())
	}); err != nil {
		return fmt.Errorf("schedule live sweep: %w", err)
	}
	c.Start()
	m.cron = c
	m.log.Info().Dur("interval", m.interval).Msg("live monitor started")
	return nil
}

// Stop halts the sweep schedule and closes subscriber channels.
func (m *Monitor) Stop() {
	if m.cron != nil {
		m.cron.Stop()
	}
	m.mu.Lock()
	for ch := range m.subs {
		close(ch)
	}
	m.subs = make(map[chan Update]struct{})
	m.mu.Unlock()
	m.log.Info().Msg("live monitor stopped")
}

// Watch registers a token for sweeps. baseScore is the report's risk
// score; the live score drifts on top of it.
func (m *Monitor) Watch(mint, deployerAddress string, topHolders []string, baseScore int) {
	m.mu.Lock()
	m.watches[mint] = &watch{
		deployer:  deployerAddress,
		holders:   append([]string(nil), topHolders...),
		baseScore: baseScore,
		state: RiskState{
			Mint:         mint,
			CurrentScore: baseScore,
			BaseScore:    baseScore,
			Trend:        TrendStable,
			Signals:      []Signal{},
			IsMonitoring: true,
		},
	}
	m.mu.Unlock()
	m.log.Info().Str("mint", mint).Int("base_score", baseScore).Msg("watching token")
}

// Unwatch removes a token from the sweep set.
func (m *Monitor) Unwatch(mint string) {
	m.mu.Lock()
	delete(m.watches, mint)
	m.mu.Unlock()
}

// State returns the live state for a watched mint.
func (m *Monitor) State(mint string) (RiskState, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	w, ok := m.watches[mint]
	if !ok {
		return RiskState{}, false
	}
	return w.state, true
}

// Subscribe returns a channel of state updates and a cancel function.
// Slow subscribers drop updates rather than blocking the sweep.
func (m *Monitor) Subscribe() (<-chan Update, func()) {
	ch := make(chan Update, 16)
	m.mu.Lock()
	m.subs[ch] = struct{}{}
	m.mu.Unlock()
	return ch, func() {
		m.mu.Lock()
		if _, ok := m.subs[ch]; ok {
			delete(m.subs, ch)
			close(ch)
		}
		m.mu.Unlock()
	}
}

// Sweep runs one pass over every watched token.
func (m *Monitor) Sweep(ctx context.Context, now int64) {
	m.mu.RLock()
	mints := make([]string, 0, len(m.watches))
	for mint := range m.watches {
		mints = append(mints, mint)
	}
	m.mu.RUnlock()
	sort.Strings(mints)

	for _, mint := range mints {
		m.sweepOne(ctx, mint, now)
	}
}

func (m *Monitor) sweepOne(ctx context.Context, mint string, now int64) {
	m.mu.RLock()
	w, ok := m.watches[mint]
	if !ok {
		m.mu.RUnlock()
		return
	}
	deployerAddr, holders, baseScore := w.deployer, w.holders, w.baseScore
	previous := w.state.CurrentScore
	m.mu.RUnlock()

	found := m.checker.CheckSignals(ctx, mint, deployerAddr, holders, now)
	current := scoring.Clamp(baseScore + RiskAdjustment(found))

	trend := TrendStable
	if current > previous {
		trend = TrendIncreasing
	} else if current < previous {
		trend = TrendDecreasing
	}

	state := RiskState{
		Mint:         mint,
		CurrentScore: current,
		BaseScore:    baseScore,
		Trend:        trend,
		Signals:      found,
		LastUpdate:   now,
		IsMonitoring: true,
	}

	m.mu.Lock()
	if w, ok := m.watches[mint]; ok {
		w.state = state
	}
	for ch := range m.subs {
		select {
		case ch <- Update{Mint: mint, State: state}:
		default:
		}
	}
	m.mu.Unlock()

	if len(found) > 0 {
		m.log.Warn().
			Str("mint", mint).
			Int("signals", len(found)).
			Int("score", current).
			Msg("live signals detected")
	}
}
