// Package providers declares the external collaborators the gateway
// orchestrates: the wallet, the two identity layers, the on-chain minter and
// the host platform actions. Implementations wrap the respective SDKs and are
// out of scope here.
package providers

import "context"

// Wallet is the value-holding wallet attached to the hosting platform.
type Wallet interface {
	// Connect is idempotent: connecting an already-connected wallet is a
	// no-op.
	Connect(ctx context.Context) error
	Connected() bool
	Address() string
	// Balance reports the chain-native balance for the connected address.
	Balance(ctx context.Context) (float64, error)
	// SendValue submits a value transfer and returns the transaction hash.
	SendValue(ctx context.Context, to string, amount float64) (string, error)
	Disconnect()
}

// Minter writes the collectible contract. Kept separate from Wallet because
// the contract binding has its own lifecycle in the host SDK.
type Minter interface {
	// Mint writes the label on-chain and returns the transaction hash.
	Mint(ctx context.Context, label string) (string, error)
}

// SignedMessage is the proof produced by a primary-identity sign-in.
type SignedMessage struct {
	Message   string
	Signature string
}

// PrimaryIdentity is the sign-in mechanism of the hosting social platform.
type PrimaryIdentity interface {
	// SignIn requests a signature proof embedding the given nonce.
	SignIn(ctx context.Context, nonce string) (*SignedMessage, error)
}

// SecondaryIdentity is the wallet-linking authentication layer required
// before gameplay. Its result is observed asynchronously through
// Authenticated.
type SecondaryIdentity interface {
	Login(ctx context.Context) error
	Authenticated() bool
	// LinkedAddress returns the cross-provider linked wallet address, or ""
	// when no account is linked.
	LinkedAddress() string
}

// HostActions are fire-and-forget actions delegated to the hosting platform.
type HostActions interface {
	OpenURL(url string) error
	ViewProfile(id string) error
	// ComposeCast opens the host's share composer with the text and embed.
	ComposeCast(text string, embeds ...string) error
	WriteClipboard(text string) error
}
