package game

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"sync"

	"ludo-gateway/internal/models"
	"ludo-gateway/internal/providers"
)

const (
	gameManagerTarget = "GameManager"
	mintPopupTarget   = "PopUpMint"

	startCallMethod  = "GameStartCall"
	startErrorMethod = "OnGameStartError"
	mintPopupMethod  = "ShowMintPopup"
	mintErrorMethod  = "OnNFTMintError"
)

// ErrRoundInFlight rejects a round start while another is pending. The
// triggering event can legitimately fire more than once from the runtime, so
// a second attempt is refused rather than queued.
var ErrRoundInFlight = errors.New("round start already in progress")

// ErrNoActiveRound is reported locally, without a network call, when a
// finalize arrives with no round open.
var ErrNoActiveRound = errors.New("no active round")

// ErrNoResult means there is nothing to mint yet.
var ErrNoResult = errors.New("no finished round to mint")

// Backend is the slice of the gateway the controller needs.
type Backend interface {
	StartRound(ctx context.Context, req *models.RoundStartRequest) (*models.RoundStartResponse, error)
	FinalizeRound(ctx context.Context, req *models.RoundFinalRequest) (*models.RoundFinalResponse, error)
}

// Storage is the persisted slice of round state the controller owns.
type Storage interface {
	SaveRound(round *models.GameRound) error
	Round() (*models.GameRound, error)
	ClearRound() error
	SaveResult(result *models.GameResult) error
	Result() (*models.GameResult, error)
	MarkMinted(roundID int, txHash string) error
	MintedTx(roundID int) (string, error)
	LastMintTx() (string, error)
}

// Notifier pushes results back to the runtime.
type Notifier interface {
	Send(target, method string, arg any) error
}

// Controller owns the active round record. Round starts are serialized by a
// rejecting lock; mints are idempotent per round id through the persisted
// ledger.
type Controller struct {
	startMu sync.Mutex

	backend   Backend
	storage   Storage
	wallet    providers.Wallet
	minter    providers.Minter
	secondary providers.SecondaryIdentity
	bridge    Notifier

	depositAddress string
}

func NewController(backend Backend, storage Storage, wallet providers.Wallet, minter providers.Minter, secondary providers.SecondaryIdentity, bridge Notifier, depositAddress string) *Controller {
	return &Controller{
		backend:        backend,
		storage:        storage,
		wallet:         wallet,
		minter:         minter,
		secondary:      secondary,
		bridge:         bridge,
		depositAddress: depositAddress,
	}
}

// StartRound submits the deposit transfer, opens the round on the backend and
// persists the resulting record. The lock is held for the whole sequence and
// a concurrent call is rejected immediately; this is what prevents
// double-spending a position.
func (c *Controller) StartRound(ctx context.Context, positionSize, positionPercent, leverage float64, risk, tradeType string) (*models.GameRound, error) {
	if !c.startMu.TryLock() {
		return nil, ErrRoundInFlight
	}
	defer c.startMu.Unlock()

	round := &models.GameRound{
		Trade:               models.TradeType(tradeType),
		Leverage:            leverage,
		Risk:                models.RiskLevel(risk),
		PositionSizeFix:     positionSize,
		PositionSizePercent: positionPercent,
		ClientAddress:       c.wallet.Address(),
	}
	if err := round.Validate(); err != nil {
		c.notifyStartError()
		return nil, err
	}

	txHash, err := c.wallet.SendValue(ctx, c.depositAddress, positionSize)
	if err != nil {
		c.notifyStartError()
		return nil, fmt.Errorf("deposit transfer failed: %v", err)
	}
	round.ClientTxHash = txHash

	resp, err := c.backend.StartRound(ctx, &models.RoundStartRequest{
		Trade:               round.Trade,
		PositionSizeFix:     positionSize,
		PositionSizePercent: positionPercent,
		Leverage:            leverage,
		Risk:                round.Risk,
		ClientAddress:       round.ClientAddress,
		ClientTxHash:        txHash,
	})
	if err != nil {
		c.notifyStartError()
		return nil, fmt.Errorf("round start failed: %v", err)
	}

	round.ID = resp.ID
	round.IsActive = true
	if err := c.storage.SaveRound(round); err != nil {
		c.notifyStartError()
		if cerr := c.storage.ClearRound(); cerr != nil {
			log.Printf("Failed to clear partial round: %v", cerr)
		}
		return nil, fmt.Errorf("failed to persist round: %v", err)
	}

	c.send(gameManagerTarget, startCallMethod, strconv.Itoa(resp.ID))
	log.Printf("Round started: %d", resp.ID)

	return round, nil
}

func (c *Controller) notifyStartError() {
	c.send(gameManagerTarget, startErrorMethod, "Failed to start game")
}

// FinalizeRound settles the active round. The result is persisted
// independently of the round record so a later mint can still reach it. A
// duplicate finalize finds no active round and errors locally.
func (c *Controller) FinalizeRound(ctx context.Context, pnl, roi float64, mysteryBoxesCollected int, hexData string) (*models.GameResult, error) {
	round, err := c.storage.Round()
	if err != nil {
		return nil, fmt.Errorf("failed to load round: %v", err)
	}
	if round == nil || !round.IsActive {
		return nil, ErrNoActiveRound
	}

	resp, err := c.backend.FinalizeRound(ctx, &models.RoundFinalRequest{
		ID:                    strconv.Itoa(round.ID),
		PNL:                   pnl,
		ROI:                   roi,
		MysteryBoxesCollected: mysteryBoxesCollected,
		HexData:               hexData,
		LinkedAddress:         c.secondary.LinkedAddress(),
	})
	if err != nil {
		return nil, fmt.Errorf("round finalize failed: %v", err)
	}

	result := &models.GameResult{
		RoundID:   resp.ID,
		PNL:       resp.PNL,
		ROI:       resp.ROI,
		StartTime: resp.StartTime,
	}
	if err := c.storage.SaveResult(result); err != nil {
		return nil, fmt.Errorf("failed to persist result: %v", err)
	}
	if err := c.storage.ClearRound(); err != nil {
		log.Printf("Failed to clear finalized round: %v", err)
	}

	log.Printf("Round finalized: %d pnl=%v roi=%v", resp.ID, resp.PNL, resp.ROI)
	return result, nil
}

// MintForLastResult mints the collectible for the last finished round. A
// round id already in the ledger replays the cached transaction hash instead
// of minting again; a failed mint leaves the ledger unchanged so a retry is
// possible. A mint that succeeds but cannot be recorded returns both the hash
// and an error.
func (c *Controller) MintForLastResult(ctx context.Context) (string, error) {
	result, err := c.storage.Result()
	if err != nil {
		return "", fmt.Errorf("failed to load result: %v", err)
	}
	if result == nil {
		return "", ErrNoResult
	}

	if cached, err := c.storage.MintedTx(result.RoundID); err != nil {
		return "", fmt.Errorf("failed to read mint ledger: %v", err)
	} else if cached != "" {
		log.Printf("Collectible already minted for round %d", result.RoundID)
		c.send(mintPopupTarget, mintPopupMethod, models.ShortenTxHash(cached))
		return cached, nil
	}

	label := models.MintLabel(formatNumber(result.PNL), formatNumber(result.ROI))

	hash, err := c.minter.Mint(ctx, label)
	if err != nil {
		c.send(gameManagerTarget, mintErrorMethod, "Failed to mint NFT")
		return "", fmt.Errorf("mint failed: %v", err)
	}

	if err := c.storage.MarkMinted(result.RoundID, hash); err != nil {
		// The collectible is on-chain; only the idempotency record is
		// missing. The runtime still gets the hash, the caller gets the
		// error: a repeat request may mint again.
		c.send(mintPopupTarget, mintPopupMethod, models.ShortenTxHash(hash))
		return hash, fmt.Errorf("failed to record mint for round %d: %v", result.RoundID, err)
	}

	c.send(mintPopupTarget, mintPopupMethod, models.ShortenTxHash(hash))
	log.Printf("Minted collectible for round %d: %s", result.RoundID, hash)

	return hash, nil
}

// LastMintTx exposes the most recent mint transaction for the explorer link.
func (c *Controller) LastMintTx() (string, error) {
	return c.storage.LastMintTx()
}

// LastResult exposes the persisted result for share texts.
func (c *Controller) LastResult() (*models.GameResult, error) {
	return c.storage.Result()
}

func (c *Controller) send(target, method string, arg any) {
	if err := c.bridge.Send(target, method, arg); err != nil {
		log.Printf("Failed to notify runtime %s.%s: %v", target, method, err)
	}
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
