// Package model defines domain models for UTXO row extraction.
package model

import "time"

// Block is a connected block: every input already carries the value and
// addresses of the output it spends.
type Block struct {
	Coin      Coin
	Network   Network
	Height    uint64
	Hash      string
	Timestamp time.Time
	Txs       []Transaction
}

// InputCount returns the number of inputs across all transactions of the block.
func (b *Block) InputCount() int {
	n := 0
	for i := range b.Txs {
		n += len(b.Txs[i].Inputs)
	}
	return n
}

// OutputCount returns the number of outputs across all transactions of the block.
func (b *Block) OutputCount() int {
	n := 0
	for i := range b.Txs {
		n += len(b.Txs[i].Outputs)
	}
	return n
}
