package deployer

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/rs/zerolog"

	"github.com/cannedoxygen/trench-transparency-terminal/internal/provider"
	"github.com/cannedoxygen/trench-transparency-terminal/internal/signals"
)

// Scan bounds: transactions inspected per deployer, and tokens analyzed
// per history to cap provider cost.
const (
	historyTxLimit    = 50
	historyTokenLimit = 10
	tokenTxLimit      = 50
)

// largeSellThreshold is the raw token amount above which a deployer
// transfer of its own token counts as a rug indicator.
const largeSellThreshold = 1_000_000

// TokenStatus describes a launched token's current activity.
type TokenStatus string

const (
	StatusActive  TokenStatus = "active"
	StatusDead    TokenStatus = "dead"
	StatusUnknown TokenStatus = "unknown"
)

// DeployedToken is one token launch attributed to the deployer, with
// the rug heuristic's verdict. IsRugged is heuristic, not ground truth.
type DeployedToken struct {
	Mint             string      `json:"mint"`
	Name             string      `json:"name,omitempty"`
	Symbol           string      `json:"symbol,omitempty"`
	DeployedAt       int64       `json:"deployed_at"`
	IsRugged         bool        `json:"is_rugged"`
	RugIndicators    []string    `json:"rug_indicators,omitempty"`
	CurrentStatus    TokenStatus `json:"current_status"`
	LiquidityRemoved bool        `json:"liquidity_removed"`
}

// History summarizes a deployer's launch record.
type History struct {
	Address          string          `json:"address"`
	TokensLaunched   []DeployedToken `json:"tokens_launched"`
	TotalTokens      int             `json:"total_tokens"`
	RuggedTokens     int             `json:"rugged_tokens"`
	RugRate          int             `json:"rug_rate"` // percentage, rounded
	AvgLifespanHours float64         `json:"avg_lifespan_hours,omitempty"`
	FirstLaunch      int64           `json:"first_launch,omitempty"`
	LastLaunch       int64           `json:"last_launch,omitempty"`
	RiskLevel        signals.Level   `json:"risk_level"`
}

// HistoryEngine scans deployer activity for prior token launches.
type HistoryEngine struct {
	client provider.Client
	log    zerolog.Logger
}

// NewHistoryEngine creates a history engine over the given provider.
func NewHistoryEngine(client provider.Client, log zerolog.Logger) *HistoryEngine {
	return &HistoryEngine{client: client, log: log.With().Str("component", "history").Logger()}
}

// History enumerates the deployer's launches and runs the rug heuristic
// per token. A wallet with no observable transactions yields the empty
// shape; transient fetch failure collapses to the same shape with a
// warning logged, so downstream scoring never distinguishes the two.
func (e *HistoryEngine) History(ctx context.Context, address string, now int64) *History {
	transactions, err := e.client.GetAddressHistory(ctx, address, historyTxLimit)
	if err != nil {
		e.log.Warn().Err(err).Str("address", address).Msg("history fetch failed, treating as empty")
		return emptyHistory(address)
	}
	if len(transactions) == 0 {
		return emptyHistory(address)
	}

	var launched []DeployedToken
	seen := make(map[string]struct{})

	for _, tx := range transactions {
		if !looksLikeCreation(tx) || len(tx.TokenTransfers) == 0 {
			continue
		}
		for _, transfer := range tx.TokenTransfers {
			if _, ok := seen[transfer.Mint]; ok {
				continue
			}
			seen[transfer.Mint] = struct{}{}

			token := DeployedToken{Mint: transfer.Mint, DeployedAt: tx.Timestamp}
			if asset, err := e.client.GetAsset(ctx, transfer.Mint); err == nil && asset != nil {
				token.Name = asset.Name
				token.Symbol = asset.Symbol
			}
			e.analyzeForRug(ctx, &token, address, now)
			launched = append(launched, token)

			if len(launched) >= historyTokenLimit {
				break
			}
		}
		if len(launched) >= historyTokenLimit {
			break
		}
	}

	return summarize(address, launched)
}

func summarize(address string, launched []DeployedToken) *History {
	h := &History{Address: address, TokensLaunched: launched, TotalTokens: len(launched), RiskLevel: signals.LevelLow}
	if h.TokensLaunched == nil {
		h.TokensLaunched = []DeployedToken{}
	}

	var ruggedLifespans int
	for _, t := range launched {
		if t.IsRugged {
			h.RuggedTokens++
			ruggedLifespans++
		}
		if t.DeployedAt > 0 {
			if h.FirstLaunch == 0 || t.DeployedAt < h.FirstLaunch {
				h.FirstLaunch = t.DeployedAt
			}
			if t.DeployedAt > h.LastLaunch {
				h.LastLaunch = t.DeployedAt
			}
		}
	}
	if h.TotalTokens > 0 {
		h.RugRate = int(math.Round(float64(h.RuggedTokens) / float64(h.TotalTokens) * 100))
	}
	if ruggedLifespans > 0 {
		// Actual liquidity-removal timing is not tracked; rugged tokens
		// are assumed to live roughly six hours.
		h.AvgLifespanHours = 6
	}
	h.RiskLevel = signals.LevelForRugRate(h.RugRate)
	return h
}

// analyzeForRug fills in the rug verdict for one launched token.
// Sub-fetch failure leaves the token in its unknown shape.
func (e *HistoryEngine) analyzeForRug(ctx context.Context, token *DeployedToken, deployer string, now int64) {
	token.CurrentStatus = StatusUnknown

	tokenTxs, err := e.client.GetAddressHistory(ctx, token.Mint, tokenTxLimit)
	if err != nil {
		e.log.Debug().Err(err).Str("mint", token.Mint).Msg("token activity fetch failed")
		return
	}
	if len(tokenTxs) == 0 {
		token.CurrentStatus = StatusDead
		token.RugIndicators = append(token.RugIndicators, "No recent activity")
		token.IsRugged = true
		return
	}

	for _, tx := range tokenTxs {
		txType := strings.ToLower(tx.Type)
		txDesc := strings.ToLower(tx.Description)

		if strings.Contains(txType, "remove") || strings.Contains(txType, "burn") ||
			(strings.Contains(txDesc, "liquidity") && strings.Contains(txDesc, "remove")) {
			if !token.LiquidityRemoved {
				token.LiquidityRemoved = true
				token.RugIndicators = append(token.RugIndicators, "Liquidity removal detected")
			}
		}

		for _, transfer := range tx.TokenTransfers {
			if transfer.FromUserAccount == deployer && transfer.TokenAmount > largeSellThreshold {
				token.RugIndicators = append(token.RugIndicators, "Large deployer sell detected")
			}
		}
	}

	// History is recent-first; index 0 is the latest activity.
	daysSinceActivity := float64(now-tokenTxs[0].Timestamp) / 86400
	switch {
	case daysSinceActivity > 30:
		token.CurrentStatus = StatusDead
		token.RugIndicators = append(token.RugIndicators, "No activity in 30+ days")
	case daysSinceActivity > 7:
		token.CurrentStatus = StatusDead
		token.RugIndicators = append(token.RugIndicators, "No activity in 7+ days")
	default:
		token.CurrentStatus = StatusActive
	}

	token.IsRugged = token.LiquidityRemoved || token.CurrentStatus == StatusDead || len(token.RugIndicators) >= 2
}

// looksLikeCreation uses a broader creation filter than the resolver:
// the deployer scan tolerates more false positives because each hit is
// still rug-analyzed individually.
func looksLikeCreation(tx provider.Transaction) bool {
	txType := strings.ToLower(tx.Type)
	txSource := strings.ToLower(tx.Source)
	return strings.Contains(txType, "create") ||
		strings.Contains(txType, "initialize_mint") ||
		strings.Contains(txType, "token") ||
		strings.Contains(txSource, "token")
}

func emptyHistory(address string) *History {
	return &History{
		Address:        address,
		TokensLaunched: []DeployedToken{},
		RiskLevel:      signals.LevelLow,
	}
}

// String implements fmt.Stringer for log lines.
func (h *History) String() string {
	return fmt.Sprintf("tokens=%d rugged=%d rate=%d%% risk=%s", h.TotalTokens, h.RuggedTokens, h.RugRate, h.RiskLevel)
}
