package store_test

import (
	"testing"

	"ludo-gateway/internal/config"
	"ludo-gateway/internal/models"
	"ludo-gateway/internal/store"
)

func TestStore(t *testing.T) {
	cfg := &config.Config{
		RedisURL:  "localhost:6379",
		RedisPass: "",
		RedisDB:   0,
	}

	st, err := store.NewStore(cfg)
	if err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	defer st.Close()
	defer st.ClearAll()

	if err := st.ClearAll(); err != nil {
		t.Fatalf("Failed to reset store: %v", err)
	}

	token, err := st.Token()
	if err != nil {
		t.Fatalf("Failed to get token: %v", err)
	}
	if token != "" {
		t.Errorf("Expected empty token on fresh store, got %q", token)
	}

	user := &models.User{ID: "user-1", Username: "player", DisplayName: "Player One"}
	if err := st.SaveAuth("token-1", user); err != nil {
		t.Fatalf("Failed to save auth: %v", err)
	}

	token, err = st.Token()
	if err != nil {
		t.Fatalf("Failed to get token: %v", err)
	}
	if token != "token-1" {
		t.Errorf("Expected token-1, got %q", token)
	}

	loaded, err := st.User()
	if err != nil {
		t.Fatalf("Failed to get user: %v", err)
	}
	if loaded == nil || loaded.ID != "user-1" || loaded.Username != "player" {
		t.Errorf("User mismatch: %+v", loaded)
	}

	round := &models.GameRound{
		ID:              42,
		Trade:           models.TradeLong,
		Leverage:        5,
		Risk:            models.RiskLow,
		PositionSizeFix: 0.1,
		ClientTxHash:    "0xdeposit",
		IsActive:        true,
	}
	if err := st.SaveRound(round); err != nil {
		t.Fatalf("Failed to save round: %v", err)
	}

	stored, err := st.Round()
	if err != nil {
		t.Fatalf("Failed to get round: %v", err)
	}
	if stored == nil || stored.ID != 42 || !stored.IsActive {
		t.Errorf("Round mismatch: %+v", stored)
	}

	if err := st.ClearRound(); err != nil {
		t.Fatalf("Failed to clear round: %v", err)
	}
	stored, err = st.Round()
	if err != nil {
		t.Fatalf("Failed to get cleared round: %v", err)
	}
	if stored != nil {
		t.Errorf("Expected nil round after clear, got %+v", stored)
	}

	result := &models.GameResult{RoundID: 42, PNL: -3.2, ROI: -12.5, StartTime: "2025-01-01T10:00:00Z"}
	if err := st.SaveResult(result); err != nil {
		t.Fatalf("Failed to save result: %v", err)
	}
	got, err := st.Result()
	if err != nil {
		t.Fatalf("Failed to get result: %v", err)
	}
	if got == nil || got.RoundID != 42 || got.PNL != -3.2 {
		t.Errorf("Result mismatch: %+v", got)
	}

	hash, err := st.MintedTx(42)
	if err != nil {
		t.Fatalf("Failed to check mint ledger: %v", err)
	}
	if hash != "" {
		t.Errorf("Expected unminted round, got %q", hash)
	}

	if err := st.MarkMinted(42, "0xminthash"); err != nil {
		t.Fatalf("Failed to record mint: %v", err)
	}
	hash, err = st.MintedTx(42)
	if err != nil {
		t.Fatalf("Failed to read mint ledger: %v", err)
	}
	if hash != "0xminthash" {
		t.Errorf("Expected 0xminthash, got %q", hash)
	}
	last, err := st.LastMintTx()
	if err != nil {
		t.Fatalf("Failed to read last mint tx: %v", err)
	}
	if last != "0xminthash" {
		t.Errorf("Expected 0xminthash, got %q", last)
	}

	if err := st.ClearAll(); err != nil {
		t.Fatalf("Failed to clear store: %v", err)
	}
	token, err = st.Token()
	if err != nil {
		t.Fatalf("Failed to get token after clear: %v", err)
	}
	if token != "" {
		t.Errorf("Expected empty token after clear, got %q", token)
	}
	hash, err = st.MintedTx(42)
	if err != nil {
		t.Fatalf("Failed to read mint ledger after clear: %v", err)
	}
	if hash != "" {
		t.Errorf("Expected cleared mint ledger, got %q", hash)
	}
}
