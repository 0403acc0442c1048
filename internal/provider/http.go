package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// HTTP client for the enhanced-transaction / wallet-intelligence provider
// ---------------------------------------------------------------------------

// HTTPConfig configures the provider HTTP client.
type HTTPConfig struct {
	APIKey         string        `yaml:"api_key"`
	RPCURL         string        `yaml:"rpc_url"`
	EnhancedAPIURL string        `yaml:"enhanced_api_url"`
	WalletAPIURL   string        `yaml:"wallet_api_url"`
	Timeout        time.Duration `yaml:"timeout"`
}

// DefaultHTTPConfig returns mainnet defaults.
func DefaultHTTPConfig() HTTPConfig {
	return HTTPConfig{
		RPCURL:         "https://mainnet.helius-rpc.com",
		EnhancedAPIURL: "https://api-mainnet.helius-rpc.com",
		WalletAPIURL:   "https://api.helius.xyz",
		Timeout:        15 * time.Second,
	}
}

// HTTPClient implements Client against the provider's JSON-RPC, enhanced
// transaction and wallet APIs.
type HTTPClient struct {
	config HTTPConfig
	http   *http.Client
}

// firstTxMaxIterations bounds backward pagination when locating a mint's
// earliest transaction (1000 signatures per iteration).
const firstTxMaxIterations = 50

// parseBatchSize is the enhanced API's per-request transaction limit.
const parseBatchSize = 20

// batchIdentityMax is the wallet API's per-request address limit.
const batchIdentityMax = 100

// NewHTTPClient creates a provider client from config.
func NewHTTPClient(config HTTPConfig) *HTTPClient {
	return &HTTPClient{
		config: config,
		http:   &http.Client{Timeout: config.Timeout},
	}
}

// ---------------------------------------------------------------------------
// JSON-RPC plumbing
// ---------------------------------------------------------------------------

type rpcRequest struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      string      `json:"id"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (c *HTTPClient) rpcCall(ctx context.Context, method string, params interface{}, out interface{}) error {
	body, err := json.Marshal(rpcRequest{JSONRPC: "2.0", ID: "ttt", Method: method, Params: params})
	if err != nil {
		return fmt.Errorf("marshal rpc request: %w", err)
	}

	u := fmt.Sprintf("%s/?api-key=%s", c.config.RPCURL, url.QueryEscape(c.config.APIKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build rpc request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("rpc %s: %w", method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("rpc %s: status %d", method, resp.StatusCode)
	}

	var rr rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rr); err != nil {
		return fmt.Errorf("decode rpc %s: %w", method, err)
	}
	if rr.Error != nil {
		return fmt.Errorf("rpc %s: %s (code %d)", method, rr.Error.Message, rr.Error.Code)
	}
	return json.Unmarshal(rr.Result, out)
}

type signatureInfo struct {
	Signature string `json:"signature"`
	Slot      uint64 `json:"slot"`
	BlockTime int64  `json:"blockTime"`
}

func (c *HTTPClient) getSignatures(ctx context.Context, address string, limit int, before string) ([]signatureInfo, error) {
	opts := map[string]interface{}{"limit": limit}
	if before != "" {
		opts["before"] = before
	}
	var sigs []signatureInfo
	if err := c.rpcCall(ctx, "getSignaturesForAddress", []interface{}{address, opts}, &sigs); err != nil {
		return nil, err
	}
	return sigs, nil
}

// ---------------------------------------------------------------------------
// Enhanced transaction API
// ---------------------------------------------------------------------------

type enhancedTx struct {
	Signature       string `json:"signature"`
	Timestamp       int64  `json:"timestamp"`
	Slot            uint64 `json:"slot"`
	Fee             uint64 `json:"fee"`
	FeePayer        string `json:"feePayer"`
	Type            string `json:"type"`
	Source          string `json:"source"`
	Description     string `json:"description"`
	TokenTransfers  []TokenTransfer  `json:"tokenTransfers"`
	NativeTransfers []NativeTransfer `json:"nativeTransfers"`
	AccountData     []struct {
		Account string `json:"account"`
	} `json:"accountData"`
}

func (tx enhancedTx) toTransaction() Transaction {
	accounts := make([]string, 0, len(tx.AccountData))
	for _, a := range tx.AccountData {
		accounts = append(accounts, a.Account)
	}
	return Transaction{
		Signature:       tx.Signature,
		Timestamp:       tx.Timestamp,
		Slot:            tx.Slot,
		Fee:             tx.Fee,
		FeePayer:        tx.FeePayer,
		Type:            tx.Type,
		Source:          tx.Source,
		Description:     tx.Description,
		TokenTransfers:  tx.TokenTransfers,
		NativeTransfers: tx.NativeTransfers,
		Accounts:        accounts,
	}
}

func (c *HTTPClient) parseTransactions(ctx context.Context, signatures []string) ([]Transaction, error) {
	u := fmt.Sprintf("%s/v0/transactions?api-key=%s", c.config.EnhancedAPIURL, url.QueryEscape(c.config.APIKey))
	var result []Transaction

	for i := 0; i < len(signatures); i += parseBatchSize {
		end := i + parseBatchSize
		if end > len(signatures) {
			end = len(signatures)
		}
		body, err := json.Marshal(map[string][]string{"transactions": signatures[i:end]})
		if err != nil {
			return nil, fmt.Errorf("marshal parse request: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("build parse request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, fmt.Errorf("parse transactions: %w", err)
		}

		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			// One bad batch should not sink the rest.
			log.Warn().Int("status", resp.StatusCode).Int("batch", i/parseBatchSize).Msg("transaction parse batch failed")
			continue
		}

		var parsed []enhancedTx
		err = json.NewDecoder(resp.Body).Decode(&parsed)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("decode parsed transactions: %w", err)
		}
		for _, tx := range parsed {
			result = append(result, tx.toTransaction())
		}
	}
	return result, nil
}

// ---------------------------------------------------------------------------
// Client implementation
// ---------------------------------------------------------------------------

// GetFirstTransaction walks signature pages backward until the history is
// exhausted or the iteration cap is hit, then parses the oldest signature.
func (c *HTTPClient) GetFirstTransaction(ctx context.Context, address string) (*Transaction, error) {
	var (
		oldestSignature string
		oldestTime      int64
		before          string
	)

	for i := 0; i < firstTxMaxIterations; i++ {
		sigs, err := c.getSignatures(ctx, address, 1000, before)
		if err != nil {
			return nil, err
		}
		if len(sigs) == 0 {
			break
		}

		last := sigs[len(sigs)-1]
		if last.BlockTime > 0 && (oldestTime == 0 || last.BlockTime < oldestTime) {
			oldestTime = last.BlockTime
			oldestSignature = last.Signature
		}

		if len(sigs) < 1000 {
			break
		}
		before = last.Signature
	}

	if oldestSignature == "" {
		return nil, nil
	}

	txs, err := c.parseTransactions(ctx, []string{oldestSignature})
	if err != nil {
		return nil, err
	}
	if len(txs) == 0 {
		return nil, nil
	}
	return &txs[0], nil
}

// GetAddressHistory fetches recent signatures and decodes them.
func (c *HTTPClient) GetAddressHistory(ctx context.Context, address string, limit int) ([]Transaction, error) {
	sigs, err := c.getSignatures(ctx, address, limit, "")
	if err != nil {
		return nil, err
	}
	if len(sigs) == 0 {
		return nil, nil
	}
	signatures := make([]string, len(sigs))
	for i, s := range sigs {
		signatures[i] = s.Signature
	}
	return c.parseTransactions(ctx, signatures)
}

type assetResponse struct {
	ID      string `json:"id"`
	Content struct {
		Metadata struct {
			Name   string `json:"name"`
			Symbol string `json:"symbol"`
		} `json:"metadata"`
		Links struct {
			Image string `json:"image"`
		} `json:"links"`
	} `json:"content"`
	TokenInfo struct {
		Supply   *json.Number `json:"supply"`
		Decimals int          `json:"decimals"`
		Symbol   string       `json:"symbol"`
	} `json:"token_info"`
}

// GetAsset fetches token metadata; unknown mints resolve to nil.
func (c *HTTPClient) GetAsset(ctx context.Context, mint string) (*Asset, error) {
	var ar assetResponse
	if err := c.rpcCall(ctx, "getAsset", []interface{}{mint}, &ar); err != nil {
		log.Debug().Err(err).Str("mint", mint).Msg("asset lookup failed")
		return nil, nil
	}

	asset := &Asset{
		Mint:     mint,
		Name:     ar.Content.Metadata.Name,
		Symbol:   ar.Content.Metadata.Symbol,
		Decimals: ar.TokenInfo.Decimals,
		Image:    ar.Content.Links.Image,
	}
	if asset.Symbol == "" {
		asset.Symbol = ar.TokenInfo.Symbol
	}
	if ar.TokenInfo.Supply != nil {
		if supply, err := decimal.NewFromString(ar.TokenInfo.Supply.String()); err == nil {
			asset.Supply = &supply
		}
	}
	return asset, nil
}

type tokenAccountsResponse struct {
	Total         int `json:"total"`
	TokenAccounts []struct {
		Owner  string       `json:"owner"`
		Amount *json.Number `json:"amount"`
	} `json:"token_accounts"`
}

// GetTokenAccounts pages through holder accounts (1000/page) and sorts
// descending by balance.
func (c *HTTPClient) GetTokenAccounts(ctx context.Context, mint string, maxPages int) (*TokenAccountsResult, error) {
	result := &TokenAccountsResult{}

	for page := 1; page <= maxPages; page++ {
		params := map[string]interface{}{
			"mint":  mint,
			"page":  page,
			"limit": 1000,
		}
		var tr tokenAccountsResponse
		if err := c.rpcCall(ctx, "getTokenAccounts", params, &tr); err != nil {
			return nil, err
		}
		if tr.Total > 0 {
			result.TotalHolders = tr.Total
		}
		if len(tr.TokenAccounts) == 0 {
			break
		}
		for _, acc := range tr.TokenAccounts {
			amount := decimal.Zero
			if acc.Amount != nil {
				if d, err := decimal.NewFromString(acc.Amount.String()); err == nil {
					amount = d
				}
			}
			result.Holders = append(result.Holders, TokenHolder{Address: acc.Owner, Amount: amount})
		}
		if len(tr.TokenAccounts) < 1000 {
			break
		}
	}

	sort.Slice(result.Holders, func(i, j int) bool {
		return result.Holders[i].Amount.GreaterThan(result.Holders[j].Amount)
	})
	if result.TotalHolders == 0 {
		result.TotalHolders = len(result.Holders)
	}
	return result, nil
}

func (c *HTTPClient) walletGet(ctx context.Context, path string, out interface{}) (found bool, err error) {
	u := fmt.Sprintf("%s%s?api-key=%s", c.config.WalletAPIURL, path, url.QueryEscape(c.config.APIKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return false, fmt.Errorf("build wallet request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return false, fmt.Errorf("wallet api %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		// Valid terminal outcome: address not in the database.
		return false, nil
	}
	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("wallet api %s: status %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return false, fmt.Errorf("decode wallet api %s: %w", path, err)
	}
	return true, nil
}

// GetWalletIdentity returns the identity snapshot, or nil for unknown wallets.
func (c *HTTPClient) GetWalletIdentity(ctx context.Context, address string) (*Identity, error) {
	var id Identity
	found, err := c.walletGet(ctx, fmt.Sprintf("/v1/wallet/%s/identity", address), &id)
	if err != nil || !found {
		return nil, err
	}
	id.Address = address
	return &id, nil
}

// GetWalletFundedBy returns the wallet's primary funding record, or nil.
func (c *HTTPClient) GetWalletFundedBy(ctx context.Context, address string) (*FundingRecord, error) {
	var fr FundingRecord
	found, err := c.walletGet(ctx, fmt.Sprintf("/v1/wallet/%s/funded-by", address), &fr)
	if err != nil || !found {
		return nil, err
	}
	return &fr, nil
}

type transfersResponse struct {
	Transfers []WalletTransfer `json:"transfers"`
}

// GetWalletTransfers returns recent transfers. The wallet API is beta;
// unavailability degrades to an empty result so callers can fall back to
// raw transaction history.
func (c *HTTPClient) GetWalletTransfers(ctx context.Context, address string, limit int) ([]WalletTransfer, error) {
	var tr transfersResponse
	path := fmt.Sprintf("/v1/wallet/%s/transfers", address)
	u := fmt.Sprintf("%s%s?api-key=%s&limit=%d", c.config.WalletAPIURL, path, url.QueryEscape(c.config.APIKey), limit)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build transfers request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		log.Warn().Err(err).Str("address", address).Msg("transfers api unavailable")
		return nil, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Warn().Int("status", resp.StatusCode).Str("address", address).Msg("transfers api unavailable")
		return nil, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return nil, fmt.Errorf("decode transfers: %w", err)
	}
	return tr.Transfers, nil
}

// BatchGetIdentities resolves identities for up to 100 addresses per call.
func (c *HTTPClient) BatchGetIdentities(ctx context.Context, addresses []string) (map[string]Identity, error) {
	result := make(map[string]Identity, len(addresses))
	if len(addresses) == 0 {
		return result, nil
	}
	if len(addresses) > batchIdentityMax {
		addresses = addresses[:batchIdentityMax]
	}

	body, err := json.Marshal(map[string][]string{"addresses": addresses})
	if err != nil {
		return nil, fmt.Errorf("marshal batch identity request: %w", err)
	}
	u := fmt.Sprintf("%s/v1/wallet/batch-identity?api-key=%s", c.config.WalletAPIURL, url.QueryEscape(c.config.APIKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build batch identity request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("batch identity: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("batch identity: status %d", resp.StatusCode)
	}

	var identities []Identity
	if err := json.NewDecoder(resp.Body).Decode(&identities); err != nil {
		return nil, fmt.Errorf("decode batch identity: %w", err)
	}
	for _, id := range identities {
		if id.Address != "" {
			result[id.Address] = id
		}
	}
	return result, nil
}

// GetTransactionCount returns the signature count for an address, capped at 1000.
func (c *HTTPClient) GetTransactionCount(ctx context.Context, address string) (int, error) {
	sigs, err := c.getSignatures(ctx, address, 1000, "")
	if err != nil {
		return 0, err
	}
	return len(sigs), nil
}
