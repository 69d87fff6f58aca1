package bitcoin

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcjson"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/goodnatureofminers/blockinsight7000-extractor/internal/utxo/model"
)

// scriptDecoder extracts the address set of a locking script.
type scriptDecoder struct {
	params *chaincfg.Params
}

// NewScriptDecoder initializes a decoder for extracting addresses using params of the provided network.
func NewScriptDecoder(network model.Network) (ScriptDecoder, error) {
	params, err := chainParamsForNetwork(network)
	if err != nil {
		return nil, err
	}
	return &scriptDecoder{params: params}, nil
}

// DecodeAddresses prefers the script itself, so bare multisig yields every key and P2PK
// yields the P2PKH address of its key. Address fields reported by the node are the
// fallback when the script carries no standard address.
func (d *scriptDecoder) DecodeAddresses(script btcjson.ScriptPubKeyResult) ([]string, error) {
	if script.Hex != "" {
		scriptBytes, err := hex.DecodeString(script.Hex)
		if err != nil {
			return nil, fmt.Errorf("decode script hex: %w", err)
		}
		_, addrs, _, err := txscript.ExtractPkScriptAddrs(scriptBytes, d.params)
		if err != nil {
			return nil, fmt.Errorf("extract script addresses: %w", err)
		}
		if len(addrs) > 0 {
			result := make([]string, 0, len(addrs))
			for _, addr := range addrs {
				result = append(result, addr.EncodeAddress())
			}
			return result, nil
		}
	}

	if len(script.Addresses) > 0 {
		return append([]string(nil), script.Addresses...), nil
	}
	if script.Address != "" {
		return []string{script.Address}, nil
	}
	return nil, nil
}

func chainParamsForNetwork(network model.Network) (*chaincfg.Params, error) {
	switch strings.ToLower(string(network)) {
	case "main", "mainnet", "bitcoin":
		return &chaincfg.MainNetParams, nil
	case "testnet", "testnet3":
		return &chaincfg.TestNet3Params, nil
	case "regtest":
		return &chaincfg.RegressionNetParams, nil
	case "signet":
		return &chaincfg.SigNetParams, nil
	default:
		return nil, fmt.Errorf("unsupported network %q", network)
	}
}
