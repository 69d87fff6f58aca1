package bitcoin

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/goodnatureofminers/blockinsight7000-extractor/internal/utxo/model"
	"github.com/goodnatureofminers/blockinsight7000-extractor/pkg/safe"
)

// connectedBlockVerbosity asks getblock for transactions with prevout data on every input.
const connectedBlockVerbosity = 3

// ChainStore serves connected blocks from a Bitcoin Core node.
type ChainStore struct {
	rpc       RPCClient
	decoder   ScriptDecoder
	converter OutputConverter
	resolver  TransactionOutputResolver
	network   model.Network
}

// NewChainStore wires the node client and the helpers that turn its replies into domain blocks.
// The resolver is consulted only for inputs the node returned without prevout data.
func NewChainStore(
	rpc RPCClient,
	decoder ScriptDecoder,
	converter OutputConverter,
	resolver TransactionOutputResolver,
	network model.Network,
) *ChainStore {
	return &ChainStore{
		rpc:       rpc,
		decoder:   decoder,
		converter: converter,
		resolver:  resolver,
		network:   network,
	}
}

// BlockCount returns the number of blocks on the active chain, tip included.
func (s *ChainStore) BlockCount(ctx context.Context) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	tip, err := s.rpc.GetBlockCount()
	if err != nil {
		return 0, fmt.Errorf("get block count: %w", err)
	}
	count, err := safe.Uint64(tip)
	if err != nil {
		return 0, fmt.Errorf("block count: %w", err)
	}
	return count + 1, nil
}

// TxCount reads the transaction count from the block header without fetching the block body.
func (s *ChainStore) TxCount(ctx context.Context, height uint64) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	hash, err := s.blockHash(height)
	if err != nil {
		return 0, err
	}

	var header blockHeaderResult
	if err := s.call("getblockheader", &header, hash.String(), true); err != nil {
		return 0, fmt.Errorf("block header %d: %w", height, err)
	}
	n, err := safe.Uint64(header.NTx)
	if err != nil {
		return 0, fmt.Errorf("block header %d tx count: %w", height, err)
	}
	return n, nil
}

// FetchBlock returns the block at height with every input connected to the output it spends.
func (s *ChainStore) FetchBlock(ctx context.Context, height uint64) (*model.Block, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	hash, err := s.blockHash(height)
	if err != nil {
		return nil, err
	}

	var src connectedBlockResult
	if err := s.call("getblock", &src, hash.String(), connectedBlockVerbosity); err != nil {
		return nil, fmt.Errorf("block %d: %w", height, err)
	}
	if src.Height < 0 || uint64(src.Height) != height {
		return nil, fmt.Errorf("block %s: node returned height %d, want %d", hash, src.Height, height)
	}

	block, err := buildBlock(src, s.network)
	if err != nil {
		return nil, err
	}

	prevouts, err := s.resolveMissingPrevouts(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("block %d: %w", height, err)
	}

	for _, tx := range src.Tx {
		inputs, err := s.convertInputs(tx, prevouts)
		if err != nil {
			return nil, fmt.Errorf("block %d: %w", height, err)
		}
		outputs, err := s.converter.Convert(tx.Txid, tx.Vout)
		if err != nil {
			return nil, fmt.Errorf("block %d: %w", height, err)
		}

		// Later transactions of the same block may spend these outputs.
		prevouts[tx.Txid] = lookupsFromOutputs(tx.Txid, outputs)

		block.Txs = append(block.Txs, model.Transaction{
			TxID:    tx.Txid,
			Inputs:  inputs,
			Outputs: outputs,
		})
	}

	return &block, nil
}

func (s *ChainStore) blockHash(height uint64) (*chainhash.Hash, error) {
	h, err := safe.Int64(height)
	if err != nil {
		return nil, fmt.Errorf("block height %d: %w", height, err)
	}
	hash, err := s.rpc.GetBlockHash(h)
	if err != nil {
		return nil, fmt.Errorf("get block hash %d: %w", height, err)
	}
	return hash, nil
}

// call issues a raw request for replies btcjson has no type for.
func (s *ChainStore) call(method string, result any, args ...any) error {
	params := make([]json.RawMessage, 0, len(args))
	for _, arg := range args {
		raw, err := json.Marshal(arg)
		if err != nil {
			return fmt.Errorf("marshal %s param: %w", method, err)
		}
		params = append(params, raw)
	}

	reply, err := s.rpc.RawRequest(method, params)
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	if err := json.Unmarshal(reply, result); err != nil {
		return fmt.Errorf("decode %s reply: %w", method, err)
	}
	return nil
}

// resolveMissingPrevouts fetches the outputs for inputs the node sent without prevout data.
// Transactions created earlier in the same block are filled in while the block is converted.
func (s *ChainStore) resolveMissingPrevouts(ctx context.Context, src connectedBlockResult) (map[string][]model.TransactionOutputLookup, error) {
	inBlock := make(map[string]struct{}, len(src.Tx))
	for _, tx := range src.Tx {
		inBlock[tx.Txid] = struct{}{}
	}

	seen := make(map[string]struct{})
	missing := make([]string, 0)
	for _, tx := range src.Tx {
		for _, vin := range tx.Vin {
			if vin.IsCoinBase() || vin.Prevout != nil {
				continue
			}
			if _, ok := inBlock[vin.Txid]; ok {
				continue
			}
			if _, ok := seen[vin.Txid]; ok {
				continue
			}
			seen[vin.Txid] = struct{}{}
			missing = append(missing, vin.Txid)
		}
	}

	if len(missing) == 0 {
		return make(map[string][]model.TransactionOutputLookup, len(src.Tx)), nil
	}
	if s.resolver == nil {
		return nil, fmt.Errorf("%d inputs without prevout and no resolver configured", len(missing))
	}

	resolved, err := s.resolver.ResolveBatch(ctx, missing)
	if err != nil {
		return nil, fmt.Errorf("resolve previous outputs: %w", err)
	}
	if resolved == nil {
		resolved = make(map[string][]model.TransactionOutputLookup, len(src.Tx))
	}
	return resolved, nil
}

// convertInputs maps the inputs of tx, skipping the coinbase input which spends nothing.
func (s *ChainStore) convertInputs(tx connectedTxResult, prevouts map[string][]model.TransactionOutputLookup) ([]model.TransactionInput, error) {
	inputs := make([]model.TransactionInput, 0, len(tx.Vin))
	for idx, vin := range tx.Vin {
		if vin.IsCoinBase() {
			continue
		}
		index, err := safe.Uint32(idx)
		if err != nil {
			return nil, fmt.Errorf("tx %s input index overflow: %w", tx.Txid, err)
		}

		input := model.TransactionInput{
			Index:    index,
			PrevTxID: vin.Txid,
			PrevVout: vin.Vout,
		}

		if vin.Prevout != nil {
			value, err := BtcToSatoshis(vin.Prevout.Value)
			if err != nil {
				return nil, fmt.Errorf("tx %s input %d prevout value: %w", tx.Txid, idx, err)
			}
			addresses, err := s.decoder.DecodeAddresses(vin.Prevout.ScriptPubKey)
			if err != nil {
				return nil, fmt.Errorf("decode addresses for tx %s input %d: %w", tx.Txid, idx, err)
			}
			input.Value = value
			input.Addresses = addresses
		} else {
			outputs := prevouts[vin.Txid]
			if len(outputs) == 0 {
				return nil, fmt.Errorf("tx %s input %d: previous transaction %s not found", tx.Txid, idx, vin.Txid)
			}
			if int(vin.Vout) >= len(outputs) {
				return nil, fmt.Errorf("tx %s input %d references missing vout %s:%d", tx.Txid, idx, vin.Txid, vin.Vout)
			}
			prev := outputs[vin.Vout]
			input.Value = prev.Value
			input.Addresses = prev.Addresses
		}

		inputs = append(inputs, input)
	}
	return inputs, nil
}

func lookupsFromOutputs(txid string, outputs []model.TransactionOutput) []model.TransactionOutputLookup {
	lookups := make([]model.TransactionOutputLookup, 0, len(outputs))
	for _, out := range outputs {
		lookups = append(lookups, model.TransactionOutputLookup{
			TxID:      txid,
			Index:     out.Index,
			Value:     out.Value,
			Addresses: out.Addresses,
		})
	}
	return lookups
}
