// Package deployer resolves a token's deployer wallet and profiles its
// launch history and behavior.
package deployer

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/cannedoxygen/trench-transparency-terminal/internal/provider"
)

// SPL token program IDs. A first transaction touching either marks a
// likely deploy even without an explicit creation type.
const (
	TokenProgramID     = "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"
	Token2022ProgramID = "TokenzQdBNbLqP5VEhdkAS6EPFLC1PHnBqCXEpPxuEb"
)

// Confidence ranks how certain the resolution is. A coarse ordering,
// not a probability.
type Confidence string

const (
	ConfidenceHigh    Confidence = "high"
	ConfidenceMedium  Confidence = "medium"
	ConfidenceLow     Confidence = "low"
	ConfidenceUnknown Confidence = "unknown"
)

// Resolution is the outcome of deployer resolution for a mint.
// Address is empty when no deployer could be determined.
type Resolution struct {
	Address          string     `json:"address,omitempty"`
	Confidence       Confidence `json:"confidence"`
	Method           string     `json:"method"`
	Evidence         []string   `json:"evidence"`
	FirstTxTimestamp int64      `json:"first_tx_timestamp,omitempty"`
}

// Resolver determines the most likely deployer wallet for a mint.
type Resolver struct {
	client provider.Client
	log    zerolog.Logger
}

// NewResolver creates a resolver over the given provider.
func NewResolver(client provider.Client, log zerolog.Logger) *Resolver {
	return &Resolver{client: client, log: log.With().Str("component", "resolver").Logger()}
}

// Resolve finds the deployer for a mint from its earliest transaction,
// falling back to recent history when backward pagination finds nothing.
func (r *Resolver) Resolve(ctx context.Context, mint string) (*Resolution, error) {
	firstTx, err := r.client.GetFirstTransaction(ctx, mint)
	if err != nil {
		return nil, fmt.Errorf("resolve deployer for %s: %w", mint, err)
	}

	if firstTx != nil {
		r.log.Debug().
			Str("mint", mint).
			Str("type", firstTx.Type).
			Str("fee_payer", firstTx.FeePayer).
			Int64("timestamp", firstTx.Timestamp).
			Msg("first transaction located")

		res := classifyFirstTx(*firstTx, mint)
		if res.Address != "" {
			res.FirstTxTimestamp = firstTx.Timestamp
			return res, nil
		}
		if firstTx.FeePayer != "" {
			return &Resolution{
				Address:          firstTx.FeePayer,
				Confidence:       ConfidenceMedium,
				Method:           "fee_payer_from_first_tx",
				Evidence:         []string{fmt.Sprintf("Fee payer from token's first transaction: %s", firstTx.FeePayer)},
				FirstTxTimestamp: firstTx.Timestamp,
			}, nil
		}
	}

	// Retry via recent history, oldest first.
	history, err := r.client.GetAddressHistory(ctx, mint, 100)
	if err != nil {
		return nil, fmt.Errorf("resolve deployer for %s: %w", mint, err)
	}
	if len(history) == 0 {
		return &Resolution{
			Confidence: ConfidenceUnknown,
			Method:     "no_transactions_found",
			Evidence:   []string{"No transaction history found for this mint"},
		}, nil
	}

	sorted := make([]provider.Transaction, len(history))
	copy(sorted, history)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Timestamp < sorted[j].Timestamp })
	oldest := sorted[0]

	res := classifyFirstTx(oldest, mint)
	res.FirstTxTimestamp = oldest.Timestamp
	if res.Address == "" && oldest.FeePayer != "" {
		res.Address = oldest.FeePayer
		res.Confidence = ConfidenceLow
		res.Method = "fee_payer_fallback"
		res.Evidence = append(res.Evidence, "Using fee payer from first transaction as deployer candidate")
	}
	if res.Address == "" {
		res.Confidence = ConfidenceUnknown
		res.Method = "no_deployer_identified"
	}
	return res, nil
}

// classifyFirstTx applies the resolution rules in confidence order and
// accumulates every observation as evidence, not just the winning one.
func classifyFirstTx(tx provider.Transaction, mint string) *Resolution {
	res := &Resolution{Confidence: ConfidenceLow}
	txType := strings.ToLower(tx.Type)

	if strings.Contains(txType, "create") || strings.Contains(txType, "initialize") || strings.Contains(txType, "mint") {
		res.Address = tx.FeePayer
		res.Confidence = ConfidenceHigh
		res.Method = "token_creation_detected"
		res.Evidence = append(res.Evidence,
			fmt.Sprintf("Transaction type: %s", tx.Type),
			fmt.Sprintf("Fee payer: %s", tx.FeePayer))
	}

	if res.Address == "" && touchesTokenProgram(tx) {
		res.Address = tx.FeePayer
		res.Confidence = ConfidenceMedium
		res.Method = "token_program_interaction"
		res.Evidence = append(res.Evidence,
			"Transaction involves Token Program",
			fmt.Sprintf("Fee payer: %s", tx.FeePayer))
	}

	for _, transfer := range tx.TokenTransfers {
		if transfer.Mint != mint {
			continue
		}
		if transfer.FromUserAccount != "" && transfer.FromUserAccount != "unknown" {
			if res.Address == "" {
				res.Address = transfer.FromUserAccount
				res.Confidence = ConfidenceMedium
				res.Method = "first_transfer_sender"
			}
			res.Evidence = append(res.Evidence,
				fmt.Sprintf("First token transfer from: %s", transfer.FromUserAccount))
		}
		break
	}

	if len(tx.NativeTransfers) > 0 {
		first := tx.NativeTransfers[0]
		if first.FromUserAccount != "" {
			res.Evidence = append(res.Evidence,
				fmt.Sprintf("Initial SOL transfer from: %s (%.4f SOL)", first.FromUserAccount, float64(first.Amount)/1e9))
		}
	}

	if res.Address == "" && tx.FeePayer != "" {
		res.Address = tx.FeePayer
		res.Confidence = ConfidenceLow
		res.Method = "fee_payer"
		res.Evidence = append(res.Evidence, fmt.Sprintf("Using fee payer as deployer: %s", tx.FeePayer))
	}

	if tx.Source != "" {
		res.Evidence = append(res.Evidence, fmt.Sprintf("Transaction source: %s", strings.ToLower(tx.Source)))
	}
	return res
}

// touchesTokenProgram reports whether the transaction involves either
// SPL token program.
func touchesTokenProgram(tx provider.Transaction) bool {
	for _, account := range tx.Accounts {
		if account == TokenProgramID || account == Token2022ProgramID {
			return true
		}
	}
	return false
}

// IsCreationLike reports whether a transaction looks like a token launch.
// Shared with the graph walker's related-deployer scan.
func IsCreationLike(tx provider.Transaction) bool {
	txType := strings.ToLower(tx.Type)
	if strings.Contains(txType, "create") || strings.Contains(txType, "initialize") || strings.Contains(txType, "mint") {
		return true
	}
	return touchesTokenProgram(tx)
}
