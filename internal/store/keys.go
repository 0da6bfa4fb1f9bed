package store

const (
	KeyAuthToken = "auth:token"
	KeyAuthUser  = "auth:user"

	KeyActiveRound = "game:round"
	KeyLastResult  = "game:last_result"

	KeyMintedRounds = "mint:minted"
	KeyLastMintTx   = "mint:last_tx"
)

// logoutKeys are cleared together when the session ends.
var logoutKeys = []string{
	KeyAuthToken,
	KeyAuthUser,
	KeyActiveRound,
	KeyLastResult,
	KeyMintedRounds,
	KeyLastMintTx,
}
