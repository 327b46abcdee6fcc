package keystore

import (
	"crypto/ed25519"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/questledger/questledger/internal/domain/ledger"
)

// StaticKeyStore is a simple in-memory store of signing authorities.
type StaticKeyStore struct {
	authorities map[string]ledger.Authority
	defaultID   string
}

// NewFromEnv builds a keystore from environment variables.
// AUTHORITY_KEYS format: "authorityId:hexSeed,authorityId2:hexSeed".
// Each seed is a 32-byte ed25519 seed in hex.
// AUTHORITY_DEFAULT_ID sets the default authority id.
func NewFromEnv() (*StaticKeyStore, error) {
	authorities := make(map[string]ledger.Authority)
	raw := os.Getenv("AUTHORITY_KEYS")
	if raw != "" {
		pairs := strings.Split(raw, ",")
		for _, p := range pairs {
			p = strings.TrimSpace(p)
			if p == "" {
				continue
			}
			parts := strings.SplitN(p, ":", 2)
			if len(parts) != 2 {
				return nil, errors.New("invalid AUTHORITY_KEYS format")
			}
			id := parts[0]
			seed, err := hex.DecodeString(parts[1])
			if err != nil {
				return nil, err
			}
			if len(seed) != ed25519.SeedSize {
				return nil, fmt.Errorf("authority %s: seed must be %d bytes", id, ed25519.SeedSize)
			}
			authorities[id] = ledger.Authority{
				ID:  id,
				Key: ed25519.NewKeyFromSeed(seed),
			}
		}
	}

	return &StaticKeyStore{
		authorities: authorities,
		defaultID:   os.Getenv("AUTHORITY_DEFAULT_ID"),
	}, nil
}

// Get returns the authority for an id.
func (s *StaticKeyStore) Get(id string) (ledger.Authority, error) {
	auth, ok := s.authorities[id]
	if !ok {
		return ledger.Authority{}, fmt.Errorf("authority %q not found", id)
	}
	return auth, nil
}

// Default returns the configured default authority.
func (s *StaticKeyStore) Default() (ledger.Authority, error) {
	if s.defaultID == "" {
		return ledger.Authority{}, errors.New("default authority not configured")
	}
	return s.Get(s.defaultID)
}
