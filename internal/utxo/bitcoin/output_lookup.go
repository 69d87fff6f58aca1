package bitcoin

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/btcsuite/btcd/btcjson"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/goodnatureofminers/blockinsight7000-extractor/internal/utxo/model"
	"github.com/goodnatureofminers/blockinsight7000-extractor/pkg/workerpool"
)

const defaultOutputLookupWorkers = 4

// RPCOutputLookup fetches outputs of confirmed transactions with getrawtransaction.
// The node needs -txindex for transactions outside the mempool.
type RPCOutputLookup struct {
	rpc       RPCClient
	converter OutputConverter
	workers   int
}

// NewRPCOutputLookup constructs a lookup running up to workers requests at once.
func NewRPCOutputLookup(rpc RPCClient, converter OutputConverter, workers int) *RPCOutputLookup {
	if workers <= 0 {
		workers = defaultOutputLookupWorkers
	}
	return &RPCOutputLookup{rpc: rpc, converter: converter, workers: workers}
}

// TransactionOutputsLookupByTxIDs returns outputs keyed by txid. Transactions the node does
// not know are absent from the result.
func (l *RPCOutputLookup) TransactionOutputsLookupByTxIDs(ctx context.Context, txids []string) (map[string][]model.TransactionOutputLookup, error) {
	var mu sync.Mutex
	result := make(map[string][]model.TransactionOutputLookup, len(txids))

	err := workerpool.Process(ctx, l.workers, txids, func(_ context.Context, txid string) error {
		hash, err := chainhash.NewHashFromStr(txid)
		if err != nil {
			return fmt.Errorf("parse txid %s: %w", txid, err)
		}
		tx, err := l.rpc.GetRawTransactionVerbose(hash)
		if err != nil {
			if isNoTxInfo(err) {
				return nil
			}
			return fmt.Errorf("get raw transaction %s: %w", txid, err)
		}
		if tx == nil {
			return nil
		}
		outputs, err := l.converter.ConvertLookup(*tx)
		if err != nil {
			return err
		}

		mu.Lock()
		result[txid] = outputs
		mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func isNoTxInfo(err error) bool {
	var rpcErr *btcjson.RPCError
	return errors.As(err, &rpcErr) && rpcErr.Code == btcjson.ErrRPCNoTxInfo
}
