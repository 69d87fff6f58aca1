package extractor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/goodnatureofminers/blockinsight7000-extractor/internal/utxo/model"
)

// memSource is an in-memory chain store that records the order of calls.
type memSource struct {
	mu     sync.Mutex
	blocks []model.Block
	calls  []string
}

func (s *memSource) record(call string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, call)
}

func (s *memSource) BlockCount(context.Context) (uint64, error) {
	s.record("count")
	return uint64(len(s.blocks)), nil
}

func (s *memSource) TxCount(_ context.Context, height uint64) (uint64, error) {
	s.record("header")
	if height >= uint64(len(s.blocks)) {
		return 0, fmt.Errorf("height %d out of range", height)
	}
	return uint64(len(s.blocks[height].Txs)), nil
}

func (s *memSource) FetchBlock(_ context.Context, height uint64) (*model.Block, error) {
	s.record("block")
	if height >= uint64(len(s.blocks)) {
		return nil, fmt.Errorf("height %d out of range", height)
	}
	block := s.blocks[height]
	return &block, nil
}

// twoBlockChain: block 0 spends {A,B} for 5 into an address-less output of 3,
// block 1 spends C for 1 back to C.
func twoBlockChain() *memSource {
	return &memSource{blocks: []model.Block{
		{
			Height:    0,
			Timestamp: time.Unix(1000, 0),
			Txs: []model.Transaction{{
				TxID:    "t0",
				Inputs:  []model.TransactionInput{{Value: 5, Addresses: []string{"B", "A"}}},
				Outputs: []model.TransactionOutput{{Value: 3}},
			}},
		},
		{
			Height:    1,
			Timestamp: time.Unix(2000, 0),
			Txs: []model.Transaction{{
				TxID:    "t1",
				Inputs:  []model.TransactionInput{{Value: 1, Addresses: []string{"C"}}},
				Outputs: []model.TransactionOutput{{Value: 1, Addresses: []string{"C"}}},
			}},
		},
	}}
}

type nopMetrics struct{}

func (nopMetrics) ObserveEstimate(error, uint64, time.Time)  {}
func (nopMetrics) ObserveBlock(uint64, int, int, time.Time) {}
func (nopMetrics) SetProcessed(uint64)                      {}
