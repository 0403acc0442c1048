package provider

import (
	"context"
	"sync"
)

// Stub is a deterministic in-memory Client for tests and offline runs.
// Seed it with Add* calls; unseeded lookups return the API's not-found
// shape (nil, nil) rather than an error.
type Stub struct {
	mu         sync.Mutex
	firstTxs   map[string]Transaction
	histories  map[string][]Transaction
	assets     map[string]Asset
	accounts   map[string]TokenAccountsResult
	identities map[string]Identity
	fundedBy   map[string]FundingRecord
	transfers  map[string][]WalletTransfer
	txCounts   map[string]int
	failNext   error
}

// NewStub creates an empty stub.
func NewStub() *Stub {
	return &Stub{
		firstTxs:   make(map[string]Transaction),
		histories:  make(map[string][]Transaction),
		assets:     make(map[string]Asset),
		accounts:   make(map[string]TokenAccountsResult),
		identities: make(map[string]Identity),
		fundedBy:   make(map[string]FundingRecord),
		transfers:  make(map[string][]WalletTransfer),
		txCounts:   make(map[string]int),
	}
}

// FailNext makes the next call return err, then clears it.
func (s *Stub) FailNext(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNext = err
}

func (s *Stub) takeFailure() error {
	err := s.failNext
	s.failNext = nil
	return err
}

// AddFirstTransaction seeds the earliest transaction for an address.
func (s *Stub) AddFirstTransaction(address string, tx Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.firstTxs[address] = tx
}

// AddHistory seeds the recent transaction history for an address.
func (s *Stub) AddHistory(address string, txs []Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.histories[address] = txs
}

// AddAsset seeds token metadata for a mint.
func (s *Stub) AddAsset(mint string, asset Asset) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assets[mint] = asset
}

// AddTokenAccounts seeds holder balances for a mint.
func (s *Stub) AddTokenAccounts(mint string, result TokenAccountsResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[mint] = result
}

// AddIdentity seeds an identity snapshot for an address.
func (s *Stub) AddIdentity(address string, id Identity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id.Address = address
	s.identities[address] = id
}

// AddFundedBy seeds the funding record for an address.
func (s *Stub) AddFundedBy(address string, fr FundingRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fundedBy[address] = fr
}

// AddTransfers seeds wallet transfers for an address.
func (s *Stub) AddTransfers(address string, transfers []WalletTransfer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transfers[address] = transfers
}

// AddTransactionCount seeds the signature count for an address.
func (s *Stub) AddTransactionCount(address string, count int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.txCounts[address] = count
}

func (s *Stub) GetFirstTransaction(_ context.Context, address string) (*Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure(); err != nil {
		return nil, err
	}
	if tx, ok := s.firstTxs[address]; ok {
		return &tx, nil
	}
	return nil, nil
}

func (s *Stub) GetAddressHistory(_ context.Context, address string, limit int) ([]Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure(); err != nil {
		return nil, err
	}
	txs := s.histories[address]
	if limit > 0 && len(txs) > limit {
		txs = txs[:limit]
	}
	out := make([]Transaction, len(txs))
	copy(out, txs)
	return out, nil
}

func (s *Stub) GetAsset(_ context.Context, mint string) (*Asset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure(); err != nil {
		return nil, err
	}
	if a, ok := s.assets[mint]; ok {
		return &a, nil
	}
	return nil, nil
}

func (s *Stub) GetTokenAccounts(_ context.Context, mint string, _ int) (*TokenAccountsResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure(); err != nil {
		return nil, err
	}
	if r, ok := s.accounts[mint]; ok {
		out := TokenAccountsResult{TotalHolders: r.TotalHolders}
		out.Holders = make([]TokenHolder, len(r.Holders))
		copy(out.Holders, r.Holders)
		return &out, nil
	}
	return &TokenAccountsResult{}, nil
}

func (s *Stub) GetWalletIdentity(_ context.Context, address string) (*Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure(); err != nil {
		return nil, err
	}
	if id, ok := s.identities[address]; ok {
		return &id, nil
	}
	return nil, nil
}

func (s *Stub) GetWalletFundedBy(_ context.Context, address string) (*FundingRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure(); err != nil {
		return nil, err
	}
	if fr, ok := s.fundedBy[address]; ok {
		return &fr, nil
	}
	return nil, nil
}

func (s *Stub) GetWalletTransfers(_ context.Context, address string, limit int) ([]WalletTransfer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure(); err != nil {
		return nil, err
	}
	transfers := s.transfers[address]
	if limit > 0 && len(transfers) > limit {
		transfers = transfers[:limit]
	}
	out := make([]WalletTransfer, len(transfers))
	copy(out, transfers)
	return out, nil
}

func (s *Stub) BatchGetIdentities(_ context.Context, addresses []string) (map[string]Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure(); err != nil {
		return nil, err
	}
	result := make(map[string]Identity, len(addresses))
	for _, addr := range addresses {
		if id, ok := s.identities[addr]; ok {
			result[addr] = id
		}
	}
	return result, nil
}

func (s *Stub) GetTransactionCount(_ context.Context, address string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure(); err != nil {
		return 0, err
	}
	return s.txCounts[address], nil
}

var _ Client = (*Stub)(nil)
