// Package analyzer orchestrates a full token analysis: deployer
// resolution, concurrent intelligence fetches, dependent analyses, risk
// boosts, and report assembly.
package analyzer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/cannedoxygen/trench-transparency-terminal/internal/cache"
	"github.com/cannedoxygen/trench-transparency-terminal/internal/deployer"
	"github.com/cannedoxygen/trench-transparency-terminal/internal/exchange"
	"github.com/cannedoxygen/trench-transparency-terminal/internal/holders"
	"github.com/cannedoxygen/trench-transparency-terminal/internal/insiders"
	"github.com/cannedoxygen/trench-transparency-terminal/internal/kol"
	"github.com/cannedoxygen/trench-transparency-terminal/internal/provider"
	"github.com/cannedoxygen/trench-transparency-terminal/internal/reputation"
	"github.com/cannedoxygen/trench-transparency-terminal/internal/scoring"
	"github.com/cannedoxygen/trench-transparency-terminal/internal/signals"
	"github.com/cannedoxygen/trench-transparency-terminal/internal/smartmoney"
	"github.com/cannedoxygen/trench-transparency-terminal/internal/summary"
	"github.com/cannedoxygen/trench-transparency-terminal/internal/wallets"
)

const (
	deployerTransferLimit = 50
	fallbackHistoryLimit  = 30
	fallbackTransferCap   = 30
	dustLamports          = 1000
)

// Service runs end-to-end token analyses.
type Service struct {
	client     provider.Client
	store      cache.Store
	resolver   *deployer.Resolver
	history    *deployer.HistoryEngine
	holders    *holders.Analyzer
	wallets    *wallets.Walker
	exchange   *exchange.Tracker
	insiders   *insiders.Detector
	reputation *reputation.Scorer
	smartMoney *smartmoney.Tracker
	kols       *kol.Detector
	summarizer summary.Summarizer
	log        zerolog.Logger
}

// New wires an analysis service over the given provider, cache, and
// summarizer.
func New(client provider.Client, store cache.Store, summarizer summary.Summarizer, log zerolog.Logger) *Service {
	historyEngine := deployer.NewHistoryEngine(client, log)
	scorer := reputation.NewScorer(client, historyEngine, log)
	return &Service{
		client:     client,
		store:      store,
		resolver:   deployer.NewResolver(client, log),
		history:    historyEngine,
		holders:    holders.NewAnalyzer(client, log),
		wallets:    wallets.NewWalker(client, log),
		exchange:   exchange.NewTracker(client, log),
		insiders:   insiders.NewDetector(client, log),
		reputation: scorer,
		smartMoney: smartmoney.NewTracker(client, scorer, log),
		kols:       kol.NewDetector(client, log),
		summarizer: summarizer,
		log:        log.With().Str("component", "analyzer").Logger(),
	}
}

// KOLs exposes the curated influencer registry for seeding.
func (s *Service) KOLs() *kol.Detector { return s.kols }

// Analyze produces the full report for a mint, serving from cache when a
// fresh report exists. The returned bool reports a cache hit. Cache
// failures degrade to recompute.
func (s *Service) Analyze(ctx context.Context, mint string) (*Report, bool, error) {
	key := cache.PrefixReport + mint
	if data, ok, err := s.store.Get(ctx, key); err != nil {
		s.log.Warn().Err(err).Str("mint", mint).Msg("cache read failed")
	} else if ok {
		var report Report
		if err := json.Unmarshal(data, &report); err == nil {
			return &report, true, nil
		}
		s.log.Warn().Str("mint", mint).Msg("discarding unreadable cached report")
	}

	report, err := s.run(ctx, mint, time.Now().Unix())
	if err != nil {
		return nil, false, err
	}

	if data, err := json.Marshal(report); err != nil {
		s.log.Warn().Err(err).Str("mint", mint).Msg("report marshal failed, skipping cache")
	} else if err := s.store.Set(ctx, key, data, cache.TTLReport); err != nil {
		s.log.Warn().Err(err).Str("mint", mint).Msg("cache write failed")
	}
	return report, false, nil
}

// Reputation scores a wallet, caching results under the wallet namespace.
func (s *Service) Reputation(ctx context.Context, address string) *reputation.Reputation {
	key := cache.PrefixWallet + address
	if data, ok, err := s.store.Get(ctx, key); err == nil && ok {
		var rep reputation.Reputation
		if json.Unmarshal(data, &rep) == nil {
			return &rep
		}
	}

	rep := s.reputation.Score(ctx, address, time.Now().Unix())
	if data, err := json.Marshal(rep); err == nil {
		if err := s.store.Set(ctx, key, data, cache.TTLWallet); err != nil {
			s.log.Warn().Err(err).Str("wallet", address).Msg("cache write failed")
		}
	}
	return rep
}

// resolveDeployer resolves through the deployer cache namespace so
// repeat analyses of the same mint skip the pagination walk.
func (s *Service) resolveDeployer(ctx context.Context, mint string) (*deployer.Resolution, error) {
	key := cache.PrefixDeployer + mint
	if data, ok, err := s.store.Get(ctx, key); err != nil {
		s.log.Warn().Err(err).Str("mint", mint).Msg("deployer cache read failed")
	} else if ok {
		var res deployer.Resolution
		if json.Unmarshal(data, &res) == nil {
			return &res, nil
		}
		s.log.Warn().Str("mint", mint).Msg("discarding unreadable cached resolution")
	}

	res, err := s.resolver.Resolve(ctx, mint)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(res); err == nil {
		if err := s.store.Set(ctx, key, data, cache.TTLDeployer); err != nil {
			s.log.Warn().Err(err).Str("mint", mint).Msg("deployer cache write failed")
		}
	}
	return res, nil
}

func (s *Service) run(ctx context.Context, mint string, now int64) (*Report, error) {
	s.log.Info().Str("mint", mint).Msg("starting analysis")

	res, err := s.resolveDeployer(ctx, mint)
	if err != nil {
		return nil, fmt.Errorf("resolve deployer: %w", err)
	}

	report := &Report{
		RunID:           runID(mint, now),
		Mint:            mint,
		Timestamp:       now,
		Deployer:        *res,
		Funding:         FundingInfo{SourceType: signals.FundingUnknown, Confidence: "low"},
		RecentTransfers: []scoring.Transfer{},
		TokenCreatedAt:  res.FirstTxTimestamp,
	}

	var (
		identity *provider.Identity
		fundedBy *provider.FundingRecord
		txCount  int
	)

	if res.Address != "" {
		addr := res.Address
		var (
			wg        sync.WaitGroup
			transfers []provider.WalletTransfer
			firstTx   *provider.Transaction
			hist      *deployer.History
			holderRes *holders.Analysis
		)
		wg.Add(7)
		go func() {
			defer wg.Done()
			var err error
			if identity, err = s.client.GetWalletIdentity(ctx, addr); err != nil {
				s.log.Debug().Err(err).Msg("identity fetch failed")
			}
		}()
		go func() {
			defer wg.Done()
			var err error
			if fundedBy, err = s.client.GetWalletFundedBy(ctx, addr); err != nil {
				s.log.Debug().Err(err).Msg("funded-by fetch failed")
			}
		}()
		go func() {
			defer wg.Done()
			var err error
			if transfers, err = s.client.GetWalletTransfers(ctx, addr, deployerTransferLimit); err != nil {
				s.log.Debug().Err(err).Msg("transfer fetch failed")
			}
		}()
		go func() {
			defer wg.Done()
			var err error
			if txCount, err = s.client.GetTransactionCount(ctx, addr); err != nil {
				s.log.Debug().Err(err).Msg("tx count fetch failed")
			}
		}()
		go func() {
			defer wg.Done()
			var err error
			if firstTx, err = s.client.GetFirstTransaction(ctx, addr); err != nil {
				s.log.Debug().Err(err).Msg("first tx fetch failed")
			}
		}()
		go func() {
			defer wg.Done()
			hist = s.history.History(ctx, addr, now)
		}()
		go func() {
			defer wg.Done()
			holderRes = s.holders.Analyze(ctx, mint, addr)
		}()
		wg.Wait()

		if firstTx != nil && firstTx.Timestamp > 0 {
			report.WalletAge = firstTx.Timestamp
		} else if fundedBy != nil && fundedBy.Timestamp > 0 {
			report.WalletAge = fundedBy.Timestamp
		}
		if report.WalletAge > 0 && report.TokenCreatedAt > 0 && report.WalletAge > report.TokenCreatedAt {
			s.log.Warn().Str("mint", mint).Msg("deployer wallet newer than token, resolution may be wrong")
		}

		if hist != nil && hist.TotalTokens > 0 {
			report.History = hist
		}
		report.Holders = holderRes

		associated := s.wallets.Analyze(ctx, addr)
		if associated.TotalAssociated > 0 {
			report.Associated = associated
		}

		flows := s.exchange.Analyze(ctx, addr, now)
		if len(flows.RecentTransfers) > 0 || flows.CashOutDetected {
			report.ExchangeFlows = flows
		}

		report.Personality = deployer.BuildPersonality(hist, now)

		if holderRes != nil && len(holderRes.TopHolders) > 0 {
			insiderCandidates := make([]insiders.Candidate, 0, len(holderRes.TopHolders))
			smartCandidates := make([]smartmoney.Candidate, 0, len(holderRes.TopHolders))
			kolCandidates := make([]kol.Candidate, 0, len(holderRes.TopHolders))
			for _, h := range holderRes.TopHolders {
				insiderCandidates = append(insiderCandidates, insiders.Candidate{Address: h.Address, Percentage: h.Percentage})
				smartCandidates = append(smartCandidates, smartmoney.Candidate{Address: h.Address, Percentage: h.Percentage})
				kolCandidates = append(kolCandidates, kol.Candidate{Address: h.Address, Percentage: h.Percentage})
			}

			report.Insiders = s.insiders.Detect(ctx, mint, insiderCandidates, addr)
			report.SmartMoney = s.smartMoney.Analyze(ctx, mint, smartCandidates, report.TokenCreatedAt, now)

			var chain []string
			for _, w := range associated.FundingChain {
				chain = append(chain, w.Address)
			}
			report.KOLConnections = s.kols.Detect(ctx, mint, kolCandidates, chain)
		}

		var funderIdentity *provider.Identity
		if fundedBy != nil && fundedBy.Funder != "" {
			if funderIdentity, err = s.client.GetWalletIdentity(ctx, fundedBy.Funder); err != nil {
				s.log.Debug().Err(err).Msg("funder identity fetch failed")
			}
		}

		report.Identity = buildIdentity(addr, identity)
		report.Funding = buildFunding(fundedBy, funderIdentity)
		if fundedBy != nil && fundedBy.Timestamp > 0 && res.FirstTxTimestamp > 0 {
			report.FundToDeployTime = res.FirstTxTimestamp - fundedBy.Timestamp
		}

		report.RecentTransfers = s.collectTransfers(ctx, addr, transfers)
	}

	if asset, err := s.client.GetAsset(ctx, mint); err != nil {
		s.log.Debug().Err(err).Msg("asset fetch failed")
	} else if asset != nil {
		report.Metadata = buildMetadata(mint, asset)
	}

	score := scoring.Calculate(scoring.Input{
		FundingType:        report.Funding.SourceType,
		FunderName:         report.Funding.TaggedEntity,
		FundedAt:           report.Funding.Timestamp,
		DeployedAt:         res.FirstTxTimestamp,
		FirstTxTimestamp:   report.WalletAge,
		TxCount:            txCount,
		DeployerConfidence: string(res.Confidence),
		Transfers:          report.RecentTransfers,
	}, now)
	applyBoosts(&score, report)
	report.RiskScore = score

	report.Summary = s.summarizer.Summarize(ctx, summary.Input{
		Mint:               mint,
		TokenName:          metaName(report.Metadata),
		TokenSymbol:        metaSymbol(report.Metadata),
		DeployerAddress:    res.Address,
		DeployerConfidence: res.Confidence,
		DeployerTags:       identityTags(report.Identity),
		FundingType:        report.Funding.SourceType,
		FundingEntity:      report.Funding.TaggedEntity,
		History:            report.History,
		Holders:            report.Holders,
		Score:              report.RiskScore.Score,
		Label:              report.RiskScore.Label,
		Reasons:            report.RiskScore.Reasons,
	})

	s.log.Info().
		Str("mint", mint).
		Str("run_id", report.RunID).
		Int("score", report.RiskScore.Score).
		Str("label", report.RiskScore.Label).
		Msg("analysis complete")
	return report, nil
}

// runID derives a stable identifier from the mint and run time, so two
// runs over identical frozen evidence yield byte-identical reports.
func runID(mint string, now int64) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("%s:%d", mint, now))).String()
}

// collectTransfers maps wallet transfers into the scoring view, tagging
// counterparties through batched identity lookups. When the wallet API
// has nothing it falls back to scanning raw history for SOL movements.
func (s *Service) collectTransfers(ctx context.Context, addr string, transfers []provider.WalletTransfer) []scoring.Transfer {
	if len(transfers) > 0 {
		seen := make(map[string]bool)
		var counterparties []string
		for _, t := range transfers {
			if t.Counterparty != "" && !seen[t.Counterparty] {
				seen[t.Counterparty] = true
				counterparties = append(counterparties, t.Counterparty)
			}
		}
		identities, err := s.client.BatchGetIdentities(ctx, counterparties)
		if err != nil {
			s.log.Debug().Err(err).Msg("counterparty identity batch failed")
			identities = map[string]provider.Identity{}
		}

		out := make([]scoring.Transfer, 0, len(transfers))
		for _, t := range transfers {
			tr := scoring.Transfer{
				Signature:        t.Signature,
				Timestamp:        t.Timestamp,
				Direction:        string(t.Direction),
				Counterparty:     t.Counterparty,
				CounterpartyName: t.CounterpartyName,
				AmountSOL:        t.Token.Amount,
			}
			if id, ok := identities[t.Counterparty]; ok {
				if tr.CounterpartyName == "" {
					tr.CounterpartyName = id.Name
				}
				tr.CounterpartyTags = id.Tags
			}
			out = append(out, tr)
		}
		return out
	}

	history, err := s.client.GetAddressHistory(ctx, addr, fallbackHistoryLimit)
	if err != nil {
		s.log.Debug().Err(err).Msg("history fallback failed")
		return []scoring.Transfer{}
	}
	out := []scoring.Transfer{}
	for _, tx := range history {
		for _, nt := range tx.NativeTransfers {
			if nt.Amount < dustLamports {
				continue
			}
			isSend := nt.FromUserAccount == addr
			isReceive := nt.ToUserAccount == addr
			if !isSend && !isReceive {
				continue
			}
			tr := scoring.Transfer{
				Signature: tx.Signature,
				Timestamp: tx.Timestamp,
				Direction: "in",
				AmountSOL: float64(nt.Amount) / 1e9,
			}
			if isSend {
				tr.Direction = "out"
				tr.Counterparty = nt.ToUserAccount
			} else {
				tr.Counterparty = nt.FromUserAccount
			}
			out = append(out, tr)
		}
		if len(out) >= fallbackTransferCap {
			break
		}
	}
	return out
}

// applyBoosts layers component findings on top of the base score in a
// fixed order, clamping after every addition. Severe findings lead the
// reason list, the rest append.
func applyBoosts(score *scoring.Result, report *Report) {
	add := func(points int, reason string) {
		score.Score = scoring.Clamp(score.Score + points)
		score.Reasons = append(score.Reasons, fmt.Sprintf("%s (+%d)", reason, points))
	}
	prepend := func(points int, reason string) {
		score.Score = scoring.Clamp(score.Score + points)
		score.Reasons = append([]string{fmt.Sprintf("%s (+%d)", reason, points)}, score.Reasons...)
	}

	if h := report.History; h != nil {
		if h.RugRate > 50 {
			prepend(30, fmt.Sprintf("Deployer has %d%% rug rate (%d/%d tokens)", h.RugRate, h.RuggedTokens, h.TotalTokens))
		} else if h.RugRate > 25 {
			prepend(15, fmt.Sprintf("Deployer has %d%% rug rate", h.RugRate))
		}
	}

	if ha := report.Holders; ha != nil {
		if ha.Top10Concentration > 80 {
			add(10, fmt.Sprintf("Top 10 holders control %.2f%% of supply", ha.Top10Concentration))
		}
		if ha.SniperCount >= 5 {
			add(10, fmt.Sprintf("%d sniper wallets detected", ha.SniperCount))
		}
	}

	if report.Identity != nil && hasBadActorTag(report.Identity.Tags) {
		prepend(50, "Deployer tagged as known bad actor")
	}

	if aw := report.Associated; aw != nil {
		if chainHasMixer(aw.FundingChain) {
			add(20, "Mixer detected in funding chain")
		}
		if n := len(aw.RelatedDeployers); n > 0 {
			add(10, fmt.Sprintf("%d connected wallet(s) also deployed tokens", n))
		}
	}

	if ef := report.ExchangeFlows; ef != nil {
		if ef.CashOutDetected {
			add(25, fmt.Sprintf("Cash out detected: %.1f SOL to exchanges", ef.CashOutAmount))
		} else if ef.TotalDeposits > 20 {
			add(10, fmt.Sprintf("%.1f SOL deposited to exchanges", ef.TotalDeposits))
		}
	}

	if p := report.Personality; p != nil {
		switch p.ProfileType {
		case deployer.ProfileSerialRugger:
			add(30, "Deployer profile: Serial rugger pattern detected")
		case deployer.ProfilePumpAndDumper:
			add(20, "Deployer profile: Pump & dump pattern detected")
		}
	}

	if ia := report.Insiders; ia != nil && len(ia.Clusters) > 0 {
		if ia.TotalInsiderHolding > 25 {
			add(20, fmt.Sprintf("Insider clusters control %.1f%% of supply", ia.TotalInsiderHolding))
		} else if ia.TotalInsiderHolding > 10 {
			add(10, fmt.Sprintf("%d coordinated wallet cluster(s) detected", len(ia.Clusters)))
		}
		for _, c := range ia.Clusters {
			if c.Type == insiders.ClusterFundNetwork {
				add(15, fmt.Sprintf("Deployer funded %d holder wallet(s)", len(c.Wallets)))
				break
			}
		}
	}

	score.Label = scoring.LabelFor(score.Score)
	if len(score.Reasons) == 0 {
		score.Reasons = []string{"No significant risk signals detected"}
	}
}

func hasBadActorTag(tags []string) bool {
	for _, tag := range tags {
		t := strings.ToLower(tag)
		if strings.Contains(t, "scammer") || strings.Contains(t, "rugger") || strings.Contains(t, "exploiter") {
			return true
		}
	}
	return false
}

func chainHasMixer(chain []wallets.AssociatedWallet) bool {
	for _, w := range chain {
		if w.Identity != nil && w.Identity.IsMixer {
			return true
		}
		for _, f := range w.RiskFlags {
			if strings.Contains(strings.ToLower(f), "mixer") {
				return true
			}
		}
	}
	return false
}

func buildIdentity(address string, identity *provider.Identity) *WalletIdentity {
	wi := &WalletIdentity{Address: address, Tags: []string{}}
	if identity == nil {
		return wi
	}
	wi.Tags = identity.Tags
	if wi.Tags == nil {
		wi.Tags = []string{}
	}
	wi.IsExchange = identity.IsExchange()
	wi.IsMixer = identity.IsMixer()
	wi.IsBridge = identity.IsBridge()
	wi.Label = identity.Name
	if wi.Label == "" {
		wi.Label = identity.Type
	}
	return wi
}

// buildFunding classifies the funding source with the funder record
// first and the funder's own identity as a tiebreaker.
func buildFunding(fundedBy *provider.FundingRecord, funderIdentity *provider.Identity) FundingInfo {
	info := FundingInfo{SourceType: signals.FundingUnknown, Confidence: "low"}
	if fundedBy == nil {
		return info
	}

	info.SourceAddress = fundedBy.Funder
	info.Timestamp = fundedBy.Timestamp
	info.TaggedEntity = fundedBy.FunderName
	if info.TaggedEntity == "" && funderIdentity != nil {
		info.TaggedEntity = funderIdentity.Name
	}
	if fundedBy.FunderName != "" {
		info.Confidence = "high"
	} else {
		info.Confidence = "medium"
	}

	ft := signals.ClassifyFunding([]string{fundedBy.FunderType}, fundedBy.FunderName)
	if ft == signals.FundingDirect || ft == signals.FundingUnknown {
		switch {
		case funderIdentity.IsExchange():
			ft = signals.FundingExchange
		case funderIdentity.IsBridge():
			ft = signals.FundingBridge
		case fundedBy.FunderName != "":
			ft = signals.FundingDirect
		default:
			ft = signals.FundingUnknown
		}
	}
	info.SourceType = ft
	return info
}

func buildMetadata(mint string, asset *provider.Asset) *TokenMetadata {
	meta := &TokenMetadata{
		Mint:     mint,
		Name:     asset.Name,
		Symbol:   asset.Symbol,
		Decimals: asset.Decimals,
		Image:    asset.Image,
	}
	if meta.Decimals == 0 {
		meta.Decimals = 9
	}
	if asset.Supply != nil {
		meta.Supply = asset.Supply.String()
	}
	return meta
}

func metaName(m *TokenMetadata) string {
	if m == nil {
		return ""
	}
	return m.Name
}

func metaSymbol(m *TokenMetadata) string {
	if m == nil {
		return ""
	}
	return m.Symbol
}

func identityTags(wi *WalletIdentity) []string {
	if wi == nil {
		return nil
	}
	return wi.Tags
}
