package models

import "fmt"

type TradeType string

const (
	TradeLong  TradeType = "Long"
	TradeShort TradeType = "Short"
)

type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// GameRound is the active play-session record. Created when the round-start
// call succeeds, cleared when the round is finalized. Persisted so an active
// round survives process restarts.
type GameRound struct {
	ID                  int       `json:"id" redis:"id"`
	Trade               TradeType `json:"trade" redis:"trade"`
	Leverage            float64   `json:"leverage" redis:"leverage"`
	Risk                RiskLevel `json:"risk" redis:"risk"`
	PositionSizeFix     float64   `json:"position_size_fix" redis:"position_size_fix"`
	PositionSizePercent float64   `json:"position_size_percent" redis:"position_size_percent"`
	ClientAddress       string    `json:"client_address" redis:"client_address"`
	ClientTxHash        string    `json:"client_tx_hash" redis:"client_tx_hash"`
	IsActive            bool      `json:"is_active" redis:"is_active"`
}

// GameResult survives the round record being cleared: a later mint needs the
// round id, pnl and roi after finalize.
type GameResult struct {
	RoundID   int     `json:"round_id" redis:"round_id"`
	PNL       float64 `json:"pnl" redis:"pnl"`
	ROI       float64 `json:"roi" redis:"roi"`
	StartTime string  `json:"start_time" redis:"start_time"`
}

func (r *GameRound) Validate() error {
	switch r.Trade {
	case TradeLong, TradeShort:
	default:
		return fmt.Errorf("invalid trade type: %s", r.Trade)
	}
	switch r.Risk {
	case RiskLow, RiskMedium, RiskHigh:
	default:
		return fmt.Errorf("invalid risk level: %s", r.Risk)
	}
	return nil
}
