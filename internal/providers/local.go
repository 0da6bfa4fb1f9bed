package providers

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"sync"
)

// Local stand-ins for the provider interfaces. Real deployments wrap the
// host-platform SDKs; these keep the gateway runnable in development and are
// reused by tests.

type LocalWallet struct {
	mu        sync.Mutex
	address   string
	balance   float64
	connected bool
	nonce     int
}

func NewLocalWallet(address string, balance float64) *LocalWallet {
	return &LocalWallet{address: address, balance: balance}
}

func (w *LocalWallet) Connect(ctx context.Context) error {
	w.mu.Lock()
	w.connected = true
	w.mu.Unlock()
	return nil
}

func (w *LocalWallet) Connected() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.connected
}

func (w *LocalWallet) Address() string {
	return w.address
}

func (w *LocalWallet) Balance(ctx context.Context) (float64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.connected {
		return 0, fmt.Errorf("wallet not connected")
	}
	return w.balance, nil
}

func (w *LocalWallet) SendValue(ctx context.Context, to string, amount float64) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.connected {
		return "", fmt.Errorf("wallet not connected")
	}
	if amount <= 0 {
		return "", fmt.Errorf("invalid transfer amount: %v", amount)
	}
	if amount > w.balance {
		return "", fmt.Errorf("insufficient balance: have %v, need %v", w.balance, amount)
	}
	w.balance -= amount
	w.nonce++

	sum := sha256.Sum256([]byte(fmt.Sprintf("%s:%s:%v:%d", w.address, to, amount, w.nonce)))
	return "0x" + hex.EncodeToString(sum[:]), nil
}

func (w *LocalWallet) Disconnect() {
	w.mu.Lock()
	w.connected = false
	w.mu.Unlock()
}

// LocalMinter fabricates deterministic mint transactions. Deployments use
// the collectible contract binding instead.
type LocalMinter struct {
	Wallet Wallet

	mu    sync.Mutex
	nonce int
}

func (m *LocalMinter) Mint(ctx context.Context, label string) (string, error) {
	if m.Wallet != nil && !m.Wallet.Connected() {
		return "", fmt.Errorf("wallet not connected")
	}
	m.mu.Lock()
	m.nonce++
	n := m.nonce
	m.mu.Unlock()

	sum := sha256.Sum256([]byte(fmt.Sprintf("mint:%s:%d", label, n)))
	return "0x" + hex.EncodeToString(sum[:]), nil
}

type LocalPrimary struct {
	UserID string
}

func (p *LocalPrimary) SignIn(ctx context.Context, nonce string) (*SignedMessage, error) {
	message := fmt.Sprintf("sign-in:%s:%s", p.UserID, nonce)
	sum := sha256.Sum256([]byte(message))
	return &SignedMessage{
		Message:   message,
		Signature: hex.EncodeToString(sum[:]),
	}, nil
}

type LocalSecondary struct {
	mu            sync.Mutex
	authenticated bool
	linked        string
}

func NewLocalSecondary(linkedAddress string) *LocalSecondary {
	return &LocalSecondary{linked: linkedAddress}
}

func (s *LocalSecondary) Login(ctx context.Context) error {
	s.mu.Lock()
	s.authenticated = true
	s.mu.Unlock()
	return nil
}

func (s *LocalSecondary) Authenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authenticated
}

func (s *LocalSecondary) LinkedAddress() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.authenticated {
		return ""
	}
	return s.linked
}

// LogActions logs host actions instead of performing them. Useful when the
// gateway runs headless.
type LogActions struct{}

func (LogActions) OpenURL(url string) error {
	log.Printf("Host action: open %s", url)
	return nil
}

func (LogActions) ViewProfile(id string) error {
	log.Printf("Host action: view profile %s", id)
	return nil
}

func (LogActions) ComposeCast(text string, embeds ...string) error {
	log.Printf("Host action: compose cast (%d embeds): %s", len(embeds), text)
	return nil
}

func (LogActions) WriteClipboard(text string) error {
	log.Printf("Host action: copy to clipboard: %s", text)
	return nil
}
