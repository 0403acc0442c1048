// Package wallets walks the deployer's funding graph: who funded it,
// who it funded, and siblings sharing the same funder.
package wallets

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/cannedoxygen/trench-transparency-terminal/internal/provider"
	"github.com/cannedoxygen/trench-transparency-terminal/internal/signals"
)

// Graph bounds. Funding relationships are not guaranteed acyclic, so
// the upward walk is a hard-coded circuit breaker, not a traversal.
const (
	fundingChainMaxHops = 2
	fundedWalletCap     = 10
	siblingCap          = 5
	creationScanLimit   = 50
	transferScanLimit   = 100
)

// Relationship labels one edge in the association graph.
type Relationship string

const (
	RelFunder           Relationship = "funder"
	RelFunderOfFunder   Relationship = "funder_of_funder"
	RelFundedByDeployer Relationship = "funded_by_deployer"
	RelSharedFunder     Relationship = "shared_funder"
	RelTokenDeployer    Relationship = "token_deployer"
)

// WalletIdentity is the resolved identity on an associated wallet.
type WalletIdentity struct {
	Name       string   `json:"name,omitempty"`
	Tags       []string `json:"tags,omitempty"`
	IsExchange bool     `json:"is_exchange"`
	IsMixer    bool     `json:"is_mixer"`
}

// AssociatedWallet is one wallet related to the deployer.
type AssociatedWallet struct {
	Address        string          `json:"address"`
	Relationship   Relationship    `json:"relationship"`
	Amount         float64         `json:"amount,omitempty"` // SOL
	Timestamp      int64           `json:"timestamp,omitempty"`
	Identity       *WalletIdentity `json:"identity,omitempty"`
	TokensDeployed int             `json:"tokens_deployed"`
	RiskFlags      []string        `json:"risk_flags,omitempty"`
}

// Analysis holds the four disjoint association lists.
type Analysis struct {
	DeployerAddress     string             `json:"deployer_address"`
	FundingChain        []AssociatedWallet `json:"funding_chain"`
	FundedWallets       []AssociatedWallet `json:"funded_wallets"`
	RelatedDeployers    []AssociatedWallet `json:"related_deployers"`
	SharedFunderWallets []AssociatedWallet `json:"shared_funder_wallets"`
	TotalAssociated     int                `json:"total_associated"`
	RiskLevel           signals.Level      `json:"risk_level"`
	Warnings            []string           `json:"warnings"`
}

// Walker traverses funding relationships around a deployer.
type Walker struct {
	client provider.Client
	log    zerolog.Logger
}

// NewWalker creates a graph walker over the given provider.
func NewWalker(client provider.Client, log zerolog.Logger) *Walker {
	return &Walker{client: client, log: log.With().Str("component", "wallets").Logger()}
}

// Analyze builds the association graph for a deployer. Individual
// lookup failures degrade to missing entries, never to a failed run.
func (w *Walker) Analyze(ctx context.Context, deployerAddress string) *Analysis {
	analysis := &Analysis{
		DeployerAddress:     deployerAddress,
		FundingChain:        []AssociatedWallet{},
		FundedWallets:       []AssociatedWallet{},
		RelatedDeployers:    []AssociatedWallet{},
		SharedFunderWallets: []AssociatedWallet{},
		RiskLevel:           signals.LevelLow,
	}

	deployerFunder := w.walkFundingChain(ctx, analysis, deployerAddress)
	w.collectFundedWallets(ctx, analysis, deployerAddress)
	w.findRelatedDeployers(ctx, analysis)
	if deployerFunder != "" {
		w.collectSiblings(ctx, analysis, deployerFunder, deployerAddress)
	}

	w.assess(analysis)
	return analysis
}

// walkFundingChain ascends at most fundingChainMaxHops from the
// deployer and returns the direct funder's address (empty if unknown).
// A mixer at any hop is flagged immediately but does not stop the walk.
func (w *Walker) walkFundingChain(ctx context.Context, analysis *Analysis, deployerAddress string) string {
	record, err := w.client.GetWalletFundedBy(ctx, deployerAddress)
	if err != nil {
		w.log.Debug().Err(err).Str("address", deployerAddress).Msg("funder lookup failed")
		return ""
	}
	if record == nil || record.Funder == "" {
		return ""
	}

	funder := w.buildAssociated(ctx, record, RelFunder)
	if funder.Identity != nil && funder.Identity.IsMixer ||
		strings.Contains(strings.ToLower(record.FunderType), "mixer") {
		funder.RiskFlags = append(funder.RiskFlags, "Mixer wallet")
		analysis.Warnings = append(analysis.Warnings, "Deployer funded through a mixer")
	}
	analysis.FundingChain = append(analysis.FundingChain, funder)

	// Second and final hop.
	parentRecord, err := w.client.GetWalletFundedBy(ctx, record.Funder)
	if err != nil || parentRecord == nil || parentRecord.Funder == "" || parentRecord.Funder == record.Funder {
		return record.Funder
	}
	parent := w.buildAssociated(ctx, parentRecord, RelFunderOfFunder)
	if parent.Identity != nil && parent.Identity.IsMixer {
		parent.RiskFlags = append(parent.RiskFlags, "Mixer in funding chain")
		analysis.Warnings = append(analysis.Warnings, "Funding chain includes a mixer")
	}
	analysis.FundingChain = append(analysis.FundingChain, parent)
	return record.Funder
}

func (w *Walker) buildAssociated(ctx context.Context, record *provider.FundingRecord, rel Relationship) AssociatedWallet {
	wallet := AssociatedWallet{
		Address:      record.Funder,
		Relationship: rel,
		Amount:       record.Amount,
		Timestamp:    record.Timestamp,
	}
	identity, err := w.client.GetWalletIdentity(ctx, record.Funder)
	if err == nil && identity != nil {
		name := identity.Name
		if name == "" {
			name = record.FunderName
		}
		wallet.Identity = &WalletIdentity{
			Name:       name,
			Tags:       identity.Tags,
			IsExchange: identity.IsExchange(),
			IsMixer:    identity.IsMixer(),
		}
	}
	return wallet
}

// collectFundedWallets dedupes the deployer's outbound recipients in
// first-seen order, keeping the highest single amount per recipient.
func (w *Walker) collectFundedWallets(ctx context.Context, analysis *Analysis, deployerAddress string) {
	transfers, err := w.client.GetWalletTransfers(ctx, deployerAddress, transferScanLimit)
	if err != nil || len(transfers) == 0 {
		return
	}

	type recipient struct {
		amount    float64
		timestamp int64
	}
	order := make([]string, 0)
	recipients := make(map[string]recipient)
	for _, t := range transfers {
		if t.Direction != provider.DirectionOut || t.Counterparty == "" {
			continue
		}
		existing, seen := recipients[t.Counterparty]
		if !seen {
			order = append(order, t.Counterparty)
		}
		if !seen || t.Token.Amount > existing.amount {
			recipients[t.Counterparty] = recipient{amount: t.Token.Amount, timestamp: t.Timestamp}
		}
	}
	if len(order) > fundedWalletCap {
		order = order[:fundedWalletCap]
	}

	identities, err := w.client.BatchGetIdentities(ctx, order)
	if err != nil {
		identities = nil
	}

	for _, address := range order {
		data := recipients[address]
		wallet := AssociatedWallet{
			Address:      address,
			Relationship: RelFundedByDeployer,
			Amount:       data.amount,
			Timestamp:    data.timestamp,
		}
		if id, ok := identities[address]; ok {
			wallet.Identity = &WalletIdentity{
				Name:       id.Name,
				Tags:       id.Tags,
				IsExchange: id.IsExchange(),
				IsMixer:    id.IsMixer(),
			}
		}
		analysis.FundedWallets = append(analysis.FundedWallets, wallet)
	}
}

// findRelatedDeployers scans the funding chain and the top funded
// wallets for creation-like activity of their own.
func (w *Walker) findRelatedDeployers(ctx context.Context, analysis *Analysis) {
	var toCheck []string
	for _, wallet := range analysis.FundingChain {
		toCheck = append(toCheck, wallet.Address)
	}
	for i, wallet := range analysis.FundedWallets {
		if i >= siblingCap {
			break
		}
		toCheck = append(toCheck, wallet.Address)
	}

	for _, address := range toCheck {
		history, err := w.client.GetAddressHistory(ctx, address, creationScanLimit)
		if err != nil {
			continue
		}
		tokenCount := 0
		for _, tx := range history {
			txType := strings.ToLower(tx.Type)
			txSource := strings.ToLower(tx.Source)
			if strings.Contains(txType, "create") || strings.Contains(txType, "initialize") ||
				strings.Contains(txSource, "pump") {
				tokenCount++
			}
		}
		if tokenCount == 0 {
			continue
		}

		flag := fmt.Sprintf("Also deployed %d token(s)", tokenCount)
		var found *AssociatedWallet
		for i := range analysis.FundingChain {
			if analysis.FundingChain[i].Address == address {
				analysis.FundingChain[i].TokensDeployed = tokenCount
				analysis.FundingChain[i].RiskFlags = append(analysis.FundingChain[i].RiskFlags, flag)
				found = &analysis.FundingChain[i]
			}
		}
		for i := range analysis.FundedWallets {
			if analysis.FundedWallets[i].Address == address {
				analysis.FundedWallets[i].TokensDeployed = tokenCount
				analysis.FundedWallets[i].RiskFlags = append(analysis.FundedWallets[i].RiskFlags, flag)
				if found == nil {
					found = &analysis.FundedWallets[i]
				}
			}
		}
		if found != nil {
			related := *found
			related.Relationship = RelTokenDeployer
			related.TokensDeployed = tokenCount
			analysis.RelatedDeployers = append(analysis.RelatedDeployers, related)
		}
	}

	if len(analysis.RelatedDeployers) > 0 {
		analysis.Warnings = append(analysis.Warnings,
			fmt.Sprintf("%d associated wallet(s) also deployed tokens", len(analysis.RelatedDeployers)))
	}
}

// collectSiblings lists other recipients of the deployer's funder.
func (w *Walker) collectSiblings(ctx context.Context, analysis *Analysis, funder, deployerAddress string) {
	transfers, err := w.client.GetWalletTransfers(ctx, funder, creationScanLimit)
	if err != nil {
		return
	}

	for _, t := range transfers {
		if len(analysis.SharedFunderWallets) >= siblingCap {
			break
		}
		if t.Direction != provider.DirectionOut || t.Counterparty == "" || t.Counterparty == deployerAddress {
			continue
		}
		wallet := AssociatedWallet{
			Address:      t.Counterparty,
			Relationship: RelSharedFunder,
			Amount:       t.Token.Amount,
			Timestamp:    t.Timestamp,
		}
		if identity, err := w.client.GetWalletIdentity(ctx, t.Counterparty); err == nil && identity != nil {
			wallet.Identity = &WalletIdentity{
				Name:       identity.Name,
				Tags:       identity.Tags,
				IsExchange: identity.IsExchange(),
				IsMixer:    identity.IsMixer(),
			}
		}
		analysis.SharedFunderWallets = append(analysis.SharedFunderWallets, wallet)
	}
}

func (w *Walker) assess(analysis *Analysis) {
	hasMixerInChain := false
	for _, wallet := range analysis.FundingChain {
		if wallet.Identity != nil && wallet.Identity.IsMixer {
			hasMixerInChain = true
			break
		}
		for _, flag := range wallet.RiskFlags {
			if flag == "Mixer wallet" {
				hasMixerInChain = true
			}
		}
	}

	hasRelatedDeployers := len(analysis.RelatedDeployers) > 0
	prolificRelated := false
	for _, wallet := range analysis.RelatedDeployers {
		if wallet.TokensDeployed > 3 {
			prolificRelated = true
			break
		}
	}
	manyAssociated := len(analysis.FundedWallets)+len(analysis.FundingChain) > 5

	switch {
	case hasMixerInChain && hasRelatedDeployers:
		analysis.RiskLevel = signals.LevelExtreme
	case hasMixerInChain || (hasRelatedDeployers && prolificRelated):
		analysis.RiskLevel = signals.LevelHigh
	case hasRelatedDeployers || manyAssociated:
		analysis.RiskLevel = signals.LevelMedium
	default:
		analysis.RiskLevel = signals.LevelLow
	}

	analysis.TotalAssociated = len(analysis.FundingChain) + len(analysis.FundedWallets) + len(analysis.SharedFunderWallets)
}
