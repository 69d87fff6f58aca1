package rpcclient

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/btcsuite/btcd/rpcclient"
	"github.com/goodnatureofminers/blockinsight7000-extractor/internal/utxo/model"
)

// ErrNoCredentials is returned when neither a user nor a data directory is configured.
var ErrNoCredentials = errors.New("rpc credentials required: set rpc user/password or datadir")

// Config describes how to reach a bitcoind node.
type Config struct {
	URL      string
	User     string
	Password string
	// DataDir enables cookie authentication when User is empty.
	DataDir string
	Network model.Network
}

// CookiePath returns where bitcoind writes its RPC cookie for network under dataDir.
func CookiePath(dataDir string, network model.Network) string {
	switch network {
	case model.Testnet:
		return filepath.Join(dataDir, "testnet3", ".cookie")
	case model.Regtest:
		return filepath.Join(dataDir, "regtest", ".cookie")
	case model.Signet:
		return filepath.Join(dataDir, "signet", ".cookie")
	default:
		return filepath.Join(dataDir, ".cookie")
	}
}

// NewConnConfig builds an HTTP POST mode connection config. When only a data directory is
// given, the cookie file must exist.
func NewConnConfig(cfg Config) (*rpcclient.ConnConfig, error) {
	parsed, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse rpc url: %w", err)
	}
	if parsed.Scheme != "http" {
		return nil, fmt.Errorf("rpc url scheme %q not supported, use http", parsed.Scheme)
	}
	if parsed.Host == "" {
		return nil, errors.New("rpc url missing host")
	}

	conn := &rpcclient.ConnConfig{
		Host:         parsed.Host,
		HTTPPostMode: true,
		DisableTLS:   true,
	}

	switch {
	case cfg.User != "":
		conn.User = cfg.User
		conn.Pass = cfg.Password
	case cfg.DataDir != "":
		cookie := CookiePath(cfg.DataDir, cfg.Network)
		if _, err := os.Stat(cookie); err != nil {
			return nil, fmt.Errorf("rpc cookie: %w", err)
		}
		conn.CookiePath = cookie
	default:
		return nil, ErrNoCredentials
	}

	return conn, nil
}

// New constructs a client for cfg. In HTTP POST mode nothing is dialed until the first request.
func New(cfg Config) (*rpcclient.Client, error) {
	conn, err := NewConnConfig(cfg)
	if err != nil {
		return nil, err
	}
	client, err := rpcclient.New(conn, nil)
	if err != nil {
		return nil, fmt.Errorf("init rpc client: %w", err)
	}
	return client, nil
}
