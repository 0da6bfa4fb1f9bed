package models

// User is the identity returned by the primary-provider login exchange.
// The backend may attach more fields over time; only the id is load-bearing
// on the client side (referral links, profile views).
type User struct {
	ID          string `json:"id" redis:"id"`
	Username    string `json:"username,omitempty" redis:"username"`
	DisplayName string `json:"display_name,omitempty" redis:"display_name"`
	AvatarURL   string `json:"avatar_url,omitempty" redis:"avatar_url"`
}

// TokenValidity is the tri-state result of the last verify-token call.
type TokenValidity int

const (
	TokenUnknown TokenValidity = iota
	TokenValid
	TokenInvalid
)

func (v TokenValidity) String() string {
	switch v {
	case TokenValid:
		return "valid"
	case TokenInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}
