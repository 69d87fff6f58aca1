package bitcoin

import (
	"fmt"

	"github.com/btcsuite/btcd/btcjson"
	"github.com/goodnatureofminers/blockinsight7000-extractor/internal/utxo/model"
	"github.com/goodnatureofminers/blockinsight7000-extractor/pkg/safe"
)

// outputConverter converts rpc tx outputs to domain outputs using a decoder.
type outputConverter struct {
	decoder ScriptDecoder
}

// NewOutputConverter constructs a converter that turns raw RPC outputs into domain outputs.
func NewOutputConverter(decoder ScriptDecoder) OutputConverter {
	return &outputConverter{decoder: decoder}
}

func (c *outputConverter) Convert(txid string, vouts []btcjson.Vout) ([]model.TransactionOutput, error) {
	outputs := make([]model.TransactionOutput, 0, len(vouts))
	for idx, vout := range vouts {
		index, value, addresses, err := c.convertOne(txid, idx, vout)
		if err != nil {
			return nil, err
		}
		outputs = append(outputs, model.TransactionOutput{
			Index:      index,
			Value:      value,
			ScriptType: vout.ScriptPubKey.Type,
			Addresses:  addresses,
		})
	}
	return outputs, nil
}

func (c *outputConverter) ConvertLookup(tx btcjson.TxRawResult) ([]model.TransactionOutputLookup, error) {
	outputs := make([]model.TransactionOutputLookup, 0, len(tx.Vout))
	for idx, vout := range tx.Vout {
		index, value, addresses, err := c.convertOne(tx.Txid, idx, vout)
		if err != nil {
			return nil, err
		}
		outputs = append(outputs, model.TransactionOutputLookup{
			TxID:      tx.Txid,
			Index:     index,
			Value:     value,
			Addresses: addresses,
		})
	}
	return outputs, nil
}

func (c *outputConverter) convertOne(txid string, idx int, vout btcjson.Vout) (uint32, uint64, []string, error) {
	if vout.Value < 0 {
		return 0, 0, nil, fmt.Errorf("tx %s output %d negative value: %f", txid, idx, vout.Value)
	}

	index, err := safe.Uint32(idx)
	if err != nil {
		return 0, 0, nil, fmt.Errorf("tx %s output index overflow: %w", txid, err)
	}

	value, err := BtcToSatoshis(vout.Value)
	if err != nil {
		return 0, 0, nil, fmt.Errorf("tx %s output %d safe value: %w", txid, idx, err)
	}

	addresses, err := c.decoder.DecodeAddresses(vout.ScriptPubKey)
	if err != nil {
		return 0, 0, nil, fmt.Errorf("decode addresses for tx %s output %d: %w", txid, idx, err)
	}
	return index, value, addresses, nil
}
