package provider

import "context"

// Client is the consumed blockchain-data contract. Not-found outcomes are
// (nil, nil); errors are reserved for transport and provider failures so
// callers can distinguish "no data" from "could not fetch".
type Client interface {
	// GetFirstTransaction returns the chronologically earliest transaction
	// involving the address, paginating backward internally. The iteration
	// cap means the result may be incomplete on extremely long histories.
	GetFirstTransaction(ctx context.Context, address string) (*Transaction, error)

	// GetAddressHistory returns up to limit recent transactions, newest first.
	GetAddressHistory(ctx context.Context, address string, limit int) ([]Transaction, error)

	// GetAsset returns token metadata for a mint, or nil if unknown.
	GetAsset(ctx context.Context, mint string) (*Asset, error)

	// GetTokenAccounts returns holders for a mint sorted descending by
	// balance, fetching up to maxPages pages of 1000.
	GetTokenAccounts(ctx context.Context, mint string, maxPages int) (*TokenAccountsResult, error)

	// GetWalletIdentity returns the identity snapshot for an address, or nil
	// if the address is not in the identity database.
	GetWalletIdentity(ctx context.Context, address string) (*Identity, error)

	// GetWalletFundedBy returns the wallet's primary funding record, or nil.
	GetWalletFundedBy(ctx context.Context, address string) (*FundingRecord, error)

	// GetWalletTransfers returns up to limit recent transfers. An empty slice
	// on provider unavailability is a valid degraded outcome, not an error.
	GetWalletTransfers(ctx context.Context, address string, limit int) ([]WalletTransfer, error)

	// BatchGetIdentities resolves identities for up to 100 addresses.
	// Unknown addresses are absent from the result map.
	BatchGetIdentities(ctx context.Context, addresses []string) (map[string]Identity, error)

	// GetTransactionCount returns the wallet's signature count, capped at 1000.
	GetTransactionCount(ctx context.Context, address string) (int, error)
}
