package chain

import (
	"context"
	"fmt"

	"github.com/dgraph-io/ristretto"
	"github.com/goodnatureofminers/blockinsight7000-extractor/internal/utxo/model"
)

// transactionOutputResolverBatchSize controls how many txids are fetched in one lookup call.
// It is a var to allow overriding in tests.
var transactionOutputResolverBatchSize = 1000

// TransactionOutputResolver connects inputs to the outputs they spend, keeping recently
// resolved transactions in a bounded cache.
type TransactionOutputResolver struct {
	lookup OutputLookup
	cache  *ristretto.Cache
}

// NewTransactionOutputResolver constructs a resolver whose cache holds up to cacheSize outputs.
func NewTransactionOutputResolver(lookup OutputLookup, cacheSize int64) (*TransactionOutputResolver, error) {
	if cacheSize <= 0 {
		cacheSize = 1
	}
	// Ristretto recommends ten counters per item when the cache is full.
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: cacheSize * 10,
		MaxCost:     cacheSize,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("init output cache: %w", err)
	}
	return &TransactionOutputResolver{lookup: lookup, cache: cache}, nil
}

// Resolve returns the outputs of a single transaction.
func (r *TransactionOutputResolver) Resolve(ctx context.Context, txid string) ([]model.TransactionOutputLookup, error) {
	outputs, err := r.ResolveBatch(ctx, []string{txid})
	if err != nil {
		return nil, err
	}
	return outputs[txid], nil
}

// ResolveBatch returns outputs for many transactions. Every requested txid is present in the
// result; transactions unknown to the lookup map to nil.
func (r *TransactionOutputResolver) ResolveBatch(ctx context.Context, txids []string) (map[string][]model.TransactionOutputLookup, error) {
	result := make(map[string][]model.TransactionOutputLookup, len(txids))
	missing := make([]string, 0, len(txids))

	for _, txid := range txids {
		if _, dup := result[txid]; dup {
			continue
		}
		if cached, ok := r.cache.Get(txid); ok {
			result[txid] = cached.([]model.TransactionOutputLookup)
			continue
		}
		result[txid] = nil
		missing = append(missing, txid)
	}

	size := transactionOutputResolverBatchSize
	if size <= 0 {
		size = 1000
	}
	for start := 0; start < len(missing); start += size {
		end := start + size
		if end > len(missing) {
			end = len(missing)
		}

		fromLookup, err := r.lookup.TransactionOutputsLookupByTxIDs(ctx, missing[start:end])
		if err != nil {
			return nil, fmt.Errorf("query outputs for txids: %w", err)
		}
		for _, txid := range missing[start:end] {
			outputs, ok := fromLookup[txid]
			if !ok {
				continue
			}
			result[txid] = outputs
			r.cache.Set(txid, outputs, int64(len(outputs)+1))
		}
	}

	return result, nil
}

// Close releases the cache.
func (r *TransactionOutputResolver) Close() {
	r.cache.Close()
}
