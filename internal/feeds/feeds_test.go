package feeds_test

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"ludo-gateway/internal/feeds"
	"ludo-gateway/internal/models"
	"ludo-gateway/internal/providers"
)

type fakeBackend struct {
	profileErr error
	history    []models.HistoryPosition
}

func (b *fakeBackend) Profile(ctx context.Context) (*models.ProfileResponse, error) {
	if b.profileErr != nil {
		return nil, b.profileErr
	}
	return &models.ProfileResponse{ID: "user-1", GameBalance: 12.5, TotalMysteryBoxes: 3}, nil
}

func (b *fakeBackend) Leaderboard(ctx context.Context) (*models.LeaderboardResponse, error) {
	return &models.LeaderboardResponse{
		Me: models.LeaderboardEntry{ID: "user-1", Rank: 3, Balance: 12.5},
		TopUsers: []models.LeaderboardEntry{
			{ID: "user-9", Rank: 1, Balance: 99},
		},
	}, nil
}

func (b *fakeBackend) History(ctx context.Context) ([]models.HistoryPosition, error) {
	return b.history, nil
}

type sentCall struct {
	target string
	method string
	arg    any
}

type fakeNotifier struct {
	mu    sync.Mutex
	calls []sentCall
}

func (n *fakeNotifier) Send(target, method string, arg any) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, sentCall{target, method, arg})
	return nil
}

func (n *fakeNotifier) find(method string) (sentCall, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, c := range n.calls {
		if c.method == method {
			return c, true
		}
	}
	return sentCall{}, false
}

func newTestFeeds(t *testing.T, backend *fakeBackend) (*feeds.Feeds, *fakeNotifier) {
	t.Helper()
	wallet := providers.NewLocalWallet("0x1234567890abcdef", 1.5)
	if err := wallet.Connect(context.Background()); err != nil {
		t.Fatalf("Failed to connect wallet: %v", err)
	}
	notifier := &fakeNotifier{}
	return feeds.New(backend, wallet, notifier), notifier
}

func TestPushChainBalance(t *testing.T) {
	f, notifier := newTestFeeds(t, &fakeBackend{})

	if err := f.PushChainBalance(context.Background()); err != nil {
		t.Fatalf("PushChainBalance failed: %v", err)
	}

	if call, ok := notifier.find("UpdateBalanceTextJS"); !ok || call.arg != "1.5" {
		t.Errorf("Expected balance text 1.5, got %+v", call)
	}
	if call, ok := notifier.find("SetMonsBalance"); !ok || call.arg != 1.5 {
		t.Errorf("Expected numeric balance 1.5, got %+v", call)
	}
	if call, ok := notifier.find("SetWalletAddress"); !ok || call.arg != "0x123...bcdef" {
		t.Errorf("Expected truncated address, got %+v", call)
	}
}

func TestPushGameBalance(t *testing.T) {
	f, notifier := newTestFeeds(t, &fakeBackend{})

	if err := f.PushGameBalance(context.Background()); err != nil {
		t.Fatalf("PushGameBalance failed: %v", err)
	}

	if call, ok := notifier.find("SetLudoBalance"); !ok || call.arg != 12.5 {
		t.Errorf("Expected game balance 12.5, got %+v", call)
	}
	if call, ok := notifier.find("SetMysteryBoxesCollected"); !ok || call.arg != 3 {
		t.Errorf("Expected 3 mystery boxes, got %+v", call)
	}
}

func TestPushGameBalancePropagatesBackendError(t *testing.T) {
	f, notifier := newTestFeeds(t, &fakeBackend{profileErr: fmt.Errorf("503")})

	if err := f.PushGameBalance(context.Background()); err == nil {
		t.Error("Expected error when profile fetch fails")
	}
	if _, ok := notifier.find("SetLudoBalance"); ok {
		t.Error("Nothing should be pushed when the fetch fails")
	}
}

func TestPushLeaderboard(t *testing.T) {
	f, notifier := newTestFeeds(t, &fakeBackend{})

	if err := f.PushLeaderboard(context.Background()); err != nil {
		t.Fatalf("PushLeaderboard failed: %v", err)
	}

	top, ok := notifier.find("UpdateTopUsers")
	if !ok {
		t.Fatal("Expected top users push")
	}
	var entries []models.LeaderboardEntry
	if err := json.Unmarshal([]byte(top.arg.(string)), &entries); err != nil {
		t.Fatalf("Top users payload is not JSON: %v", err)
	}
	if len(entries) != 1 || entries[0].ID != "user-9" {
		t.Errorf("Unexpected top users: %+v", entries)
	}

	me, ok := notifier.find("UpdateMyInfo")
	if !ok {
		t.Fatal("Expected own entry push")
	}
	var entry models.LeaderboardEntry
	if err := json.Unmarshal([]byte(me.arg.(string)), &entry); err != nil {
		t.Fatalf("Own entry payload is not JSON: %v", err)
	}
	if entry.Rank != 3 {
		t.Errorf("Expected rank 3, got %d", entry.Rank)
	}
}

func TestPushHistoryFormatsPositions(t *testing.T) {
	backend := &fakeBackend{history: []models.HistoryPosition{
		{ID: "1", PNL: "0E-8", ROI: "1.23456789", FinalTime: "2025-01-01T10:00:00Z"},
		{ID: "2", PNL: "-3.2", ROI: "-12.5", FinalTime: "2025-01-02T10:00:00Z"},
	}}
	f, notifier := newTestFeeds(t, backend)

	if err := f.PushHistory(context.Background()); err != nil {
		t.Fatalf("PushHistory failed: %v", err)
	}

	call, ok := notifier.find("UpdateTransactions")
	if !ok {
		t.Fatal("Expected history push")
	}
	var positions []models.HistoryPosition
	if err := json.Unmarshal([]byte(call.arg.(string)), &positions); err != nil {
		t.Fatalf("History payload is not JSON: %v", err)
	}
	if len(positions) != 2 {
		t.Fatalf("Expected 2 positions, got %d", len(positions))
	}
	// Newest first, numeric fields clamped.
	if positions[0].ID != "2" || positions[1].PNL != "0.00000" {
		t.Errorf("Unexpected formatted history: %+v", positions)
	}
}

func TestSendReferralLink(t *testing.T) {
	f, notifier := newTestFeeds(t, &fakeBackend{})

	if err := f.SendReferralLink("https://game.example/api/ref/user-1"); err != nil {
		t.Fatalf("SendReferralLink failed: %v", err)
	}
	if call, ok := notifier.find("SetReferralLink"); !ok || call.arg != "https://game.example/api/ref/user-1" {
		t.Errorf("Unexpected referral push: %+v", call)
	}
}
