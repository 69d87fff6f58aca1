// Package bitcoin implements the chain store on top of a Bitcoin Core node.
package bitcoin

import (
	"fmt"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/goodnatureofminers/blockinsight7000-extractor/internal/utxo/model"
	"github.com/goodnatureofminers/blockinsight7000-extractor/pkg/safe"
)

// BtcToSatoshis converts BTC amount to satoshis with overflow checks.
func BtcToSatoshis(value float64) (uint64, error) {
	amt, err := btcutil.NewAmount(value)
	if err != nil {
		return 0, err
	}
	if amt < 0 {
		return 0, fmt.Errorf("negative amount: %d", amt)
	}
	return safe.Uint64(int64(amt))
}

// buildBlock maps the header part of a verbosity 3 getblock reply into a model.Block without transactions.
func buildBlock(src connectedBlockResult, network model.Network) (model.Block, error) {
	height, err := safe.Uint64(src.Height)
	if err != nil {
		return model.Block{}, fmt.Errorf("block %s height: %w", src.Hash, err)
	}
	if src.Time < 0 {
		return model.Block{}, fmt.Errorf("block %d negative time: %d", src.Height, src.Time)
	}

	return model.Block{
		Coin:      model.BTC,
		Network:   network,
		Height:    height,
		Hash:      src.Hash,
		Timestamp: time.Unix(src.Time, 0).UTC(),
		Txs:       make([]model.Transaction, 0, len(src.Tx)),
	}, nil
}
