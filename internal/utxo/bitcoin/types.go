package bitcoin

import (
	"context"
	"encoding/json"

	"github.com/btcsuite/btcd/btcjson"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/goodnatureofminers/blockinsight7000-extractor/internal/utxo/model"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=$GOPACKAGE

type (
	// RPCClient is the subset of the node RPC the chain store needs.
	RPCClient interface {
		GetBlockCount() (int64, error)
		GetBlockHash(blockHeight int64) (*chainhash.Hash, error)
		GetRawTransactionVerbose(txHash *chainhash.Hash) (*btcjson.TxRawResult, error)
		RawRequest(method string, params []json.RawMessage) (json.RawMessage, error)
	}

	// ScriptDecoder extracts the address set of a script.
	ScriptDecoder interface {
		DecodeAddresses(script btcjson.ScriptPubKeyResult) ([]string, error)
	}

	// OutputConverter converts RPC outputs into domain outputs.
	OutputConverter interface {
		Convert(txid string, vouts []btcjson.Vout) ([]model.TransactionOutput, error)
		ConvertLookup(tx btcjson.TxRawResult) ([]model.TransactionOutputLookup, error)
	}

	// TransactionOutputResolver returns the outputs of earlier transactions by txid.
	TransactionOutputResolver interface {
		ResolveBatch(ctx context.Context, txids []string) (map[string][]model.TransactionOutputLookup, error)
	}
)

// blockHeaderResult is the part of a verbose getblockheader reply the store reads.
// btcjson.GetBlockHeaderVerboseResult has no nTx field.
type blockHeaderResult struct {
	Hash   string `json:"hash"`
	Height int64  `json:"height"`
	Time   int64  `json:"time"`
	NTx    int64  `json:"nTx"`
}

// connectedBlockResult is a getblock reply at verbosity 3, where every
// non-coinbase input carries the output it spends.
type connectedBlockResult struct {
	Hash   string              `json:"hash"`
	Height int64               `json:"height"`
	Time   int64               `json:"time"`
	Tx     []connectedTxResult `json:"tx"`
}

type connectedTxResult struct {
	Txid string         `json:"txid"`
	Vin  []connectedVin `json:"vin"`
	Vout []btcjson.Vout `json:"vout"`
}

type connectedVin struct {
	Coinbase string   `json:"coinbase,omitempty"`
	Txid     string   `json:"txid"`
	Vout     uint32   `json:"vout"`
	Prevout  *prevOut `json:"prevout,omitempty"`
}

// IsCoinBase reports whether the input is the coinbase input of its transaction.
func (v connectedVin) IsCoinBase() bool {
	return v.Coinbase != ""
}

type prevOut struct {
	Generated    bool                       `json:"generated"`
	Height       int64                      `json:"height"`
	Value        float64                    `json:"value"`
	ScriptPubKey btcjson.ScriptPubKeyResult `json:"scriptPubKey"`
}
