package models

// Request/response payloads for the backend API. Field names follow the wire
// format, which is snake_case throughout.

type NonceResponse struct {
	Nonce string `json:"nonce"`
}

type LoginRequest struct {
	Message      string `json:"message"`
	Signature    string `json:"signature"`
	ReferralCode string `json:"referral_code,omitempty"`
}

type RoundStartRequest struct {
	Trade               TradeType `json:"trade"`
	PositionSizeFix     float64   `json:"position_size_fix"`
	PositionSizePercent float64   `json:"position_size_percent"`
	Leverage            float64   `json:"leverage"`
	Risk                RiskLevel `json:"risk"`
	ClientAddress       string    `json:"client_address"`
	ClientTxHash        string    `json:"client_tx_hash"`
}

type RoundStartResponse struct {
	ID   int    `json:"id"`
	Lang string `json:"lang"`
}

type RoundFinalRequest struct {
	ID                    string  `json:"id"`
	PNL                   float64 `json:"pnl"`
	ROI                   float64 `json:"roi"`
	MysteryBoxesCollected int     `json:"mystery_boxes_collected"`
	HexData               string  `json:"hex_data"`
	LinkedAddress         string  `json:"monad_id_address"`
}

type RoundFinalResponse struct {
	ID                  int     `json:"id"`
	Trade               string  `json:"trade"`
	Leverage            float64 `json:"leverage"`
	Risk                string  `json:"risk"`
	PNL                 float64 `json:"pnl"`
	ROI                 float64 `json:"roi"`
	PositionSizeFix     float64 `json:"position_size_fix"`
	PositionSizePercent float64 `json:"position_size_percent"`
	ClientAddress       string  `json:"client_address"`
	ClientTxHash        string  `json:"client_tx_hash"`
	ServerTxHash        string  `json:"server_tx_hash"`
	StartTime           string  `json:"start_time"`
	FinalTime           string  `json:"final_time"`
	Lang                string  `json:"lang"`
}

type ProfileResponse struct {
	ID                string  `json:"id"`
	GameBalance       float64 `json:"ludo_balance"`
	TotalMysteryBoxes int     `json:"total_mystery_boxes"`
	Lang              string  `json:"lang"`
}

type LeaderboardEntry struct {
	ID      string  `json:"id"`
	Rank    int     `json:"rank"`
	Balance float64 `json:"balance"`
}

type LeaderboardResponse struct {
	Me       LeaderboardEntry   `json:"me"`
	TopUsers []LeaderboardEntry `json:"top_users"`
	Lang     string             `json:"lang"`
}

// HistoryPosition is one settled round in the transaction history. Numeric
// fields arrive as strings and are re-clamped before being forwarded to the
// runtime.
type HistoryPosition struct {
	ID                  string  `json:"id"`
	Trade               string  `json:"trade"`
	Leverage            string  `json:"leverage"`
	Risk                string  `json:"risk"`
	PNL                 string  `json:"pnl"`
	ROI                 string  `json:"roi"`
	PositionSizeFix     string  `json:"position_size_fix"`
	PositionSizePercent string  `json:"position_size_percent"`
	ClientAddress       string  `json:"client_address"`
	ClientTxHash        string  `json:"client_tx_hash"`
	ServerTxHash        *string `json:"server_tx_hash"`
	StartTime           string  `json:"start_time"`
	FinalTime           string  `json:"final_time"`
	Lang                string  `json:"lang"`
}

type OnboardingCheckResponse struct {
	ShowTutorial bool   `json:"show_tutorial"`
	Lang         string `json:"lang"`
}

type OnboardingCompletedResponse struct {
	Message string `json:"message"`
	Lang    string `json:"lang"`
}
