package main

import (
	"context"
	"fmt"

	"github.com/btcsuite/btcd/rpcclient"
	"github.com/goodnatureofminers/blockinsight7000-extractor/internal/metrics"
	rpcclient2 "github.com/goodnatureofminers/blockinsight7000-extractor/internal/pkg/btcd/rpcclient"
	"github.com/goodnatureofminers/blockinsight7000-extractor/internal/utxo/bitcoin"
	"github.com/goodnatureofminers/blockinsight7000-extractor/internal/utxo/chain"
	"github.com/goodnatureofminers/blockinsight7000-extractor/internal/utxo/model"
	"github.com/goodnatureofminers/blockinsight7000-extractor/internal/utxo/service/extractor"
	"go.uber.org/zap"
)

// chainStore owns the node client and the prevout cache behind the extractor source.
type chainStore struct {
	source   *bitcoin.ChainStore
	client   *rpcclient.Client
	resolver *chain.TransactionOutputResolver
}

func newChainStore(ctx context.Context, cfg config, logger *zap.Logger) (*chainStore, error) {
	client, err := rpcclient2.New(rpcclient2.Config{
		URL:      cfg.RPCURL,
		User:     cfg.RPCUser,
		Password: cfg.RPCPassword,
		DataDir:  cfg.DataDir,
		Network:  cfg.Network,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", extractor.ErrStoreOpen, err)
	}

	rpc := rpcclient2.NewObservedClient(client, metrics.NewRPCClient(model.BTC, cfg.Network), cfg.RPCRPS)

	decoder, err := bitcoin.NewScriptDecoder(cfg.Network)
	if err != nil {
		client.Shutdown()
		return nil, fmt.Errorf("%w: %w", extractor.ErrStoreOpen, err)
	}
	converter := bitcoin.NewOutputConverter(decoder)

	resolver, err := chain.NewTransactionOutputResolver(bitcoin.NewRPCOutputLookup(rpc, converter, 0), cfg.PrevoutCacheSize)
	if err != nil {
		client.Shutdown()
		return nil, fmt.Errorf("%w: %w", extractor.ErrStoreOpen, err)
	}

	store := &chainStore{
		source:   bitcoin.NewChainStore(rpc, decoder, converter, resolver, cfg.Network),
		client:   client,
		resolver: resolver,
	}

	count, err := store.source.BlockCount(ctx)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("%w: %w", extractor.ErrStoreOpen, err)
	}
	logger.Info("chain store opened",
		zap.String("url", cfg.RPCURL),
		zap.String("network", string(cfg.Network)),
		zap.Uint64("blocks", count),
	)
	return store, nil
}

func (s *chainStore) Close() {
	s.resolver.Close()
	s.client.Shutdown()
	s.client.WaitForShutdown()
}
