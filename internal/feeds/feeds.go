package feeds

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"ludo-gateway/internal/models"
	"ludo-gateway/internal/providers"
)

const (
	gameManagerTarget   = "GameManager"
	walletServiceTarget = "WalletService"

	balanceTextMethod   = "UpdateBalanceTextJS"
	chainBalanceMethod  = "SetMonsBalance"
	walletAddressMethod = "SetWalletAddress"
	gameBalanceMethod   = "SetLudoBalance"
	mysteryBoxesMethod  = "SetMysteryBoxesCollected"
	topUsersMethod      = "UpdateTopUsers"
	myInfoMethod        = "UpdateMyInfo"
	transactionsMethod  = "UpdateTransactions"
	referralLinkMethod  = "SetReferralLink"
)

// Backend is the slice of the gateway the feeds need.
type Backend interface {
	Profile(ctx context.Context) (*models.ProfileResponse, error)
	Leaderboard(ctx context.Context) (*models.LeaderboardResponse, error)
	History(ctx context.Context) ([]models.HistoryPosition, error)
}

// Notifier pushes state updates to the runtime.
type Notifier interface {
	Send(target, method string, arg any) error
}

// Feeds fetches backend and chain state and pushes it to the runtime in the
// shapes the embedded game expects. Pushes never gate orchestration logic;
// failures are reported to the caller and otherwise dropped.
type Feeds struct {
	backend Backend
	wallet  providers.Wallet
	bridge  Notifier
}

func New(backend Backend, wallet providers.Wallet, bridge Notifier) *Feeds {
	return &Feeds{backend: backend, wallet: wallet, bridge: bridge}
}

// PushChainBalance sends the chain-native balance on both runtime channels
// plus the display-truncated wallet address.
func (f *Feeds) PushChainBalance(ctx context.Context) error {
	balance, err := f.wallet.Balance(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch chain balance: %v", err)
	}

	balanceStr := strconv.FormatFloat(balance, 'f', -1, 64)
	if err := f.bridge.Send(gameManagerTarget, balanceTextMethod, balanceStr); err != nil {
		return err
	}
	if err := f.bridge.Send(walletServiceTarget, chainBalanceMethod, balance); err != nil {
		return err
	}
	return f.bridge.Send(walletServiceTarget, walletAddressMethod, models.TruncateAddress(f.wallet.Address()))
}

// PushGameBalance sends the backend-tracked balance and mystery-box count.
func (f *Feeds) PushGameBalance(ctx context.Context) error {
	profile, err := f.backend.Profile(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch profile: %v", err)
	}

	if err := f.bridge.Send(walletServiceTarget, gameBalanceMethod, profile.GameBalance); err != nil {
		return err
	}
	return f.bridge.Send(walletServiceTarget, mysteryBoxesMethod, profile.TotalMysteryBoxes)
}

// PushLeaderboard sends the top cohort and the caller's own entry as two
// JSON payloads.
func (f *Feeds) PushLeaderboard(ctx context.Context) error {
	board, err := f.backend.Leaderboard(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch leaderboard: %v", err)
	}

	top, err := json.Marshal(board.TopUsers)
	if err != nil {
		return fmt.Errorf("failed to marshal top users: %v", err)
	}
	me, err := json.Marshal(board.Me)
	if err != nil {
		return fmt.Errorf("failed to marshal own entry: %v", err)
	}

	if err := f.bridge.Send(gameManagerTarget, topUsersMethod, string(top)); err != nil {
		return err
	}
	return f.bridge.Send(gameManagerTarget, myInfoMethod, string(me))
}

// PushHistory sends the formatted transaction history: numeric fields clamped
// to five decimals, newest first.
func (f *Feeds) PushHistory(ctx context.Context) error {
	positions, err := f.backend.History(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch history: %v", err)
	}

	data, err := json.Marshal(models.FormatHistory(positions))
	if err != nil {
		return fmt.Errorf("failed to marshal history: %v", err)
	}
	return f.bridge.Send(gameManagerTarget, transactionsMethod, string(data))
}

// SendReferralLink pushes the user's shareable link to the runtime.
func (f *Feeds) SendReferralLink(link string) error {
	return f.bridge.Send(gameManagerTarget, referralLinkMethod, link)
}
