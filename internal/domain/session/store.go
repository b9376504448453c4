// internal/domain/session/store.go
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-core/internal/pkg/storage"
	"github.com/your-org/storefront-core/internal/pkg/vault"
)

// Tier names one of the two browser storage tiers for session data
type Tier string

const (
	// TierRemember survives browser restarts ("remember me").
	TierRemember Tier = "remember"
	// TierEphemeral lives for the browsing session only.
	TierEphemeral Tier = "ephemeral"
)

const (
	rememberTTL  = 30 * 24 * time.Hour
	ephemeralTTL = 12 * time.Hour
	stashTTL     = 30 * 24 * time.Hour
)

// GuestStash holds the contact/shipping fields of a guest checkout, kept to
// prefill a future visit.
type GuestStash struct {
	Email    string   `json:"email"`
	Shipping *Address `json:"shipping,omitempty"`
}

// Store persists vault-encrypted sessions across the two storage tiers.
// Invariant: writing a session to one tier clears the other, so a stale
// duplicate can never survive in the opposite tier.
type Store struct {
	remember  storage.KV
	ephemeral storage.KV
	vault     *vault.Vault
	logger    *logrus.Logger
}

// NewStore creates a session store over the two tiers
func NewStore(remember, ephemeral storage.KV, v *vault.Vault, logger *logrus.Logger) *Store {
	return &Store{
		remember:  remember,
		ephemeral: ephemeral,
		vault:     v,
		logger:    logger,
	}
}

// Save encrypts and writes the session to the chosen tier, clearing the
// other tier in the same operation.
func (s *Store) Save(ctx context.Context, clientID string, sess *Session, tier Tier) error {
	payload, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to serialize session: %w", err)
	}

	ciphertext, err := s.vault.Encrypt(payload)
	if err != nil {
		return fmt.Errorf("failed to encrypt session: %w", err)
	}

	key := sessionKey(clientID)
	target, other, ttl := s.remember, s.ephemeral, rememberTTL
	if tier == TierEphemeral {
		target, other, ttl = s.ephemeral, s.remember, ephemeralTTL
	}

	if err := target.Set(ctx, key, ciphertext, ttl); err != nil {
		return fmt.Errorf("failed to persist session: %w", err)
	}
	if err := other.Del(ctx, key); err != nil {
		// The write already succeeded; a surviving stale copy is the failure
		// mode this invariant exists to prevent, so report it.
		return fmt.Errorf("failed to clear opposite session tier: %w", err)
	}
	return nil
}

// Load returns the live session and the tier holding it. A missing or
// undecryptable blob yields nil; corruption is never an error to the caller.
func (s *Store) Load(ctx context.Context, clientID string) (*Session, Tier) {
	if sess := s.loadFrom(ctx, s.remember, clientID); sess != nil {
		return sess, TierRemember
	}
	if sess := s.loadFrom(ctx, s.ephemeral, clientID); sess != nil {
		return sess, TierEphemeral
	}
	return nil, ""
}

// Destroy clears the session from both tiers
func (s *Store) Destroy(ctx context.Context, clientID string) {
	key := sessionKey(clientID)
	if err := s.remember.Del(ctx, key); err != nil {
		s.logger.WithError(err).Warn("failed to clear remember-tier session")
	}
	if err := s.ephemeral.Del(ctx, key); err != nil {
		s.logger.WithError(err).Warn("failed to clear ephemeral-tier session")
	}
}

// SaveGuestStash stores guest contact/shipping prefill data. Best-effort.
func (s *Store) SaveGuestStash(ctx context.Context, clientID string, stash *GuestStash) {
	payload, err := json.Marshal(stash)
	if err != nil {
		s.logger.WithError(err).Warn("failed to serialize guest stash")
		return
	}
	if err := s.remember.Set(ctx, stashKey(clientID), string(payload), stashTTL); err != nil {
		s.logger.WithError(err).Warn("failed to persist guest stash")
	}
}

// GuestStash loads previously stashed guest prefill data, nil when absent
func (s *Store) GuestStash(ctx context.Context, clientID string) *GuestStash {
	data, err := s.remember.Get(ctx, stashKey(clientID))
	if err != nil {
		return nil
	}
	var stash GuestStash
	if err := json.Unmarshal([]byte(data), &stash); err != nil {
		return nil
	}
	return &stash
}

func (s *Store) loadFrom(ctx context.Context, kv storage.KV, clientID string) *Session {
	ciphertext, err := kv.Get(ctx, sessionKey(clientID))
	if err != nil {
		if err != storage.ErrNotFound {
			s.logger.WithError(err).Warn("failed to read session tier")
		}
		return nil
	}

	payload := s.vault.Decrypt(ciphertext)
	if payload == nil {
		return nil
	}

	var sess Session
	if err := json.Unmarshal(payload, &sess); err != nil {
		return nil
	}
	return &sess
}

func sessionKey(clientID string) string {
	return fmt.Sprintf("session:%s", clientID)
}

func stashKey(clientID string) string {
	return fmt.Sprintf("session:stash:%s", clientID)
}
