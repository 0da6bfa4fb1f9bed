package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"ludo-gateway/internal/config"
	"ludo-gateway/internal/models"
)

// Store is the persisted client state: auth token and user, the active round,
// the last result and the mint ledger. Each record has a single writing
// component; the store itself does no coordination.
type Store struct {
	client *redis.Client
	ctx    context.Context
}

func NewStore(cfg *config.Config) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisURL,
		Password: cfg.RedisPass,
		DB:       cfg.RedisDB,
	})

	ctx := context.Background()

	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %v", err)
	}

	return &Store{client: client, ctx: ctx}, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) SaveAuth(token string, user *models.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to marshal user: %v", err)
	}

	if err := s.client.Set(s.ctx, KeyAuthToken, token, 0).Err(); err != nil {
		return fmt.Errorf("failed to save token: %v", err)
	}
	if err := s.client.Set(s.ctx, KeyAuthUser, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save user: %v", err)
	}
	return nil
}

// Token returns the persisted bearer token, or "" when none is stored.
func (s *Store) Token() (string, error) {
	token, err := s.client.Get(s.ctx, KeyAuthToken).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get token: %v", err)
	}
	return token, nil
}

// User returns the persisted identity, or nil when none is stored.
func (s *Store) User() (*models.User, error) {
	data, err := s.client.Get(s.ctx, KeyAuthUser).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %v", err)
	}

	var user models.User
	if err := json.Unmarshal([]byte(data), &user); err != nil {
		return nil, fmt.Errorf("failed to unmarshal user: %v", err)
	}
	return &user, nil
}

func (s *Store) ClearAuth() error {
	return s.client.Del(s.ctx, KeyAuthToken, KeyAuthUser).Err()
}

func (s *Store) SaveRound(round *models.GameRound) error {
	data, err := json.Marshal(round)
	if err != nil {
		return fmt.Errorf("failed to marshal round: %v", err)
	}
	return s.client.Set(s.ctx, KeyActiveRound, data, 0).Err()
}

// Round returns the persisted active round, or nil when none is stored.
func (s *Store) Round() (*models.GameRound, error) {
	data, err := s.client.Get(s.ctx, KeyActiveRound).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get round: %v", err)
	}

	var round models.GameRound
	if err := json.Unmarshal([]byte(data), &round); err != nil {
		return nil, fmt.Errorf("failed to unmarshal round: %v", err)
	}
	return &round, nil
}

func (s *Store) ClearRound() error {
	return s.client.Del(s.ctx, KeyActiveRound).Err()
}

// SaveResult overwrites the last result. Finalize never clears it; only a
// later result replaces it.
func (s *Store) SaveResult(result *models.GameResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %v", err)
	}
	return s.client.Set(s.ctx, KeyLastResult, data, 0).Err()
}

// Result returns the persisted last result, or nil when none is stored.
func (s *Store) Result() (*models.GameResult, error) {
	data, err := s.client.Get(s.ctx, KeyLastResult).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get result: %v", err)
	}

	var result models.GameResult
	if err := json.Unmarshal([]byte(data), &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal result: %v", err)
	}
	return &result, nil
}

// MarkMinted records the mint transaction for a round id. The ledger is
// persisted so repeat mints stay idempotent across restarts.
func (s *Store) MarkMinted(roundID int, txHash string) error {
	field := strconv.Itoa(roundID)
	if err := s.client.HSet(s.ctx, KeyMintedRounds, field, txHash).Err(); err != nil {
		return fmt.Errorf("failed to record mint: %v", err)
	}
	return s.client.Set(s.ctx, KeyLastMintTx, txHash, 0).Err()
}

// MintedTx returns the cached transaction hash for a round id, or "" when the
// round has not been minted.
func (s *Store) MintedTx(roundID int) (string, error) {
	hash, err := s.client.HGet(s.ctx, KeyMintedRounds, strconv.Itoa(roundID)).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get mint record: %v", err)
	}
	return hash, nil
}

// LastMintTx returns the most recent mint transaction hash, or "".
func (s *Store) LastMintTx() (string, error) {
	hash, err := s.client.Get(s.ctx, KeyLastMintTx).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get last mint tx: %v", err)
	}
	return hash, nil
}

// ClearAll removes every persisted key. Invoked on logout.
func (s *Store) ClearAll() error {
	return s.client.Del(s.ctx, logoutKeys...).Err()
}
