package analyzer

import (
	"github.com/cannedoxygen/trench-transparency-terminal/internal/deployer"
	"github.com/cannedoxygen/trench-transparency-terminal/internal/exchange"
	"github.com/cannedoxygen/trench-transparency-terminal/internal/holders"
	"github.com/cannedoxygen/trench-transparency-terminal/internal/insiders"
	"github.com/cannedoxygen/trench-transparency-terminal/internal/kol"
	"github.com/cannedoxygen/trench-transparency-terminal/internal/scoring"
	"github.com/cannedoxygen/trench-transparency-terminal/internal/signals"
	"github.com/cannedoxygen/trench-transparency-terminal/internal/smartmoney"
	"github.com/cannedoxygen/trench-transparency-terminal/internal/summary"
	"github.com/cannedoxygen/trench-transparency-terminal/internal/wallets"
)

// FundingInfo describes where the deployer's SOL came from. Confidence
// is high when the funder carries a name, medium when only an address is
// known, low when funding could not be traced.
type FundingInfo struct {
	SourceType    signals.FundingType `json:"source_type"`
	SourceAddress string              `json:"source_address,omitempty"`
	TaggedEntity  string              `json:"tagged_entity,omitempty"`
	Confidence    string              `json:"confidence"`
	Timestamp     int64               `json:"timestamp,omitempty"`
}

// WalletIdentity is the deployer's resolved identity snapshot.
type WalletIdentity struct {
	Address    string   `json:"address"`
	Tags       []string `json:"tags"`
	IsExchange bool     `json:"is_exchange"`
	IsMixer    bool     `json:"is_mixer"`
	IsBridge   bool     `json:"is_bridge"`
	Label      string   `json:"label,omitempty"`
}

// TokenMetadata is the display metadata for the analyzed mint.
type TokenMetadata struct {
	Mint     string `json:"mint"`
	Name     string `json:"name,omitempty"`
	Symbol   string `json:"symbol,omitempty"`
	Decimals int    `json:"decimals"`
	Supply   string `json:"supply,omitempty"`
	Image    string `json:"image,omitempty"`
}

// Report is the full analysis output for one mint. Optional sections are
// nil when their stage produced nothing significant.
type Report struct {
	RunID            string                `json:"run_id"`
	Mint             string                `json:"mint"`
	Timestamp        int64                 `json:"timestamp"`
	Deployer         deployer.Resolution   `json:"deployer"`
	Funding          FundingInfo           `json:"funding"`
	Identity         *WalletIdentity       `json:"identity,omitempty"`
	RiskScore        scoring.Result        `json:"risk_score"`
	RecentTransfers  []scoring.Transfer    `json:"recent_transfers"`
	Metadata         *TokenMetadata        `json:"metadata,omitempty"`
	WalletAge        int64                 `json:"wallet_age,omitempty"`
	TokenCreatedAt   int64                 `json:"token_created_at,omitempty"`
	FundToDeployTime int64                 `json:"fund_to_deploy_time,omitempty"`
	History          *deployer.History     `json:"deployer_history,omitempty"`
	Holders          *holders.Analysis     `json:"holder_analysis,omitempty"`
	Associated       *wallets.Analysis     `json:"associated_wallets,omitempty"`
	ExchangeFlows    *exchange.Analysis    `json:"exchange_flows,omitempty"`
	Personality      *deployer.Personality `json:"deployer_personality,omitempty"`
	Insiders         *insiders.Analysis    `json:"insider_analysis,omitempty"`
	SmartMoney       *smartmoney.Analysis  `json:"smart_money,omitempty"`
	KOLConnections   *kol.Analysis         `json:"kol_connections,omitempty"`
	Summary          *summary.Summary      `json:"summary,omitempty"`
}
