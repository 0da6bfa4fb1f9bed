package session

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"sync"

	"ludo-gateway/internal/models"
	"ludo-gateway/internal/providers"
)

// State is the authentication pipeline position, derived from the session
// fields. Gameplay handlers are unreachable until Ready.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateAwaitingPrimaryAuth
	StateAwaitingTokenCheck
	StateAwaitingSecondaryAuth
	StateFetchingOnboarding
	StateReady
	StateReauthRequired
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateAwaitingPrimaryAuth:
		return "awaiting_primary_auth"
	case StateAwaitingTokenCheck:
		return "awaiting_token_check"
	case StateAwaitingSecondaryAuth:
		return "awaiting_secondary_auth"
	case StateFetchingOnboarding:
		return "fetching_onboarding"
	case StateReady:
		return "ready"
	case StateReauthRequired:
		return "reauth_required"
	}
	return "unknown"
}

// Backend is the slice of the gateway the machine needs.
type Backend interface {
	Nonce(ctx context.Context) (string, error)
	Login(ctx context.Context, req *models.LoginRequest) (*models.User, string, error)
	VerifyToken(ctx context.Context) error
	OnboardingCheck(ctx context.Context) (*models.OnboardingCheckResponse, error)
}

// Storage is the persisted slice of auth state the machine owns.
type Storage interface {
	Token() (string, error)
	User() (*models.User, error)
	SaveAuth(token string, user *models.User) error
	ClearAuth() error
	ClearAll() error
}

// Machine owns authentication progress: wallet connection, primary identity
// sign-in, token validation, secondary identity and the onboarding fetch-once
// latch. Every precondition is re-checked under one mutex hold, so triggers
// cannot double-fire from interleaved evaluations.
type Machine struct {
	mu sync.Mutex

	wallet    providers.Wallet
	primary   providers.PrimaryIdentity
	secondary providers.SecondaryIdentity
	backend   Backend
	storage   Storage

	referralCode string

	token    string
	user     *models.User
	validity models.TokenValidity

	onboardingFetched bool
	onboarding        *models.OnboardingCheckResponse

	connecting       bool
	checking         bool
	signing          bool
	secondaryAttempt bool
	reachedReady     bool

	notify chan struct{}
}

func NewMachine(wallet providers.Wallet, primary providers.PrimaryIdentity, secondary providers.SecondaryIdentity, backend Backend, storage Storage, referralCode string) (*Machine, error) {
	m := &Machine{
		wallet:       wallet,
		primary:      primary,
		secondary:    secondary,
		backend:      backend,
		storage:      storage,
		referralCode: referralCode,
		notify:       make(chan struct{}, 1),
	}

	token, err := storage.Token()
	if err != nil {
		return nil, fmt.Errorf("failed to load token: %v", err)
	}
	user, err := storage.User()
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %v", err)
	}

	m.token = token
	m.user = user
	m.validity = models.TokenUnknown

	return m, nil
}

// ReferralFromURL extracts the referral code from the launch URL, if any.
func ReferralFromURL(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Query().Get("ref")
}

// State derives the pipeline position from the current fields.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stateLocked()
}

func (m *Machine) stateLocked() State {
	if !m.wallet.Connected() {
		if m.connecting {
			return StateConnecting
		}
		return StateDisconnected
	}
	if m.user == nil || m.validity == models.TokenInvalid {
		if m.reachedReady && m.validity == models.TokenInvalid {
			return StateReauthRequired
		}
		if m.token != "" && m.validity == models.TokenUnknown {
			return StateAwaitingTokenCheck
		}
		return StateAwaitingPrimaryAuth
	}
	if m.validity == models.TokenUnknown {
		return StateAwaitingTokenCheck
	}
	if !m.secondary.Authenticated() {
		return StateAwaitingSecondaryAuth
	}
	if !m.onboardingFetched {
		return StateFetchingOnboarding
	}
	return StateReady
}

func (m *Machine) Ready() bool {
	return m.State() == StateReady
}

// Token returns the current bearer token, "" when unauthenticated. Used as
// the gateway's token source.
func (m *Machine) Token() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token
}

func (m *Machine) User() *models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.user
}

// OnboardingNeeded reports the stringified flag the runtime expects. Before
// the onboarding check has answered, onboarding is assumed needed.
func (m *Machine) OnboardingNeeded() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.onboarding == nil {
		return "true"
	}
	if m.onboarding.ShowTutorial {
		return "false"
	}
	return "true"
}

// Notify wakes the run loop after an external input changed (secondary
// authentication completing, wallet events).
func (m *Machine) Notify() {
	select {
	case m.notify <- struct{}{}:
	default:
	}
}

// Run drives the machine until the context ends. Each iteration performs at
// most one transition; when nothing is eligible, or the last action failed,
// it waits for a notification. Failures are never retried internally — the
// next notify re-triggers the precondition evaluation.
func (m *Machine) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		if m.Step(ctx) {
			continue
		}
		select {
		case <-ctx.Done():
			return
		case <-m.notify:
		}
	}
}

// Step evaluates the transition preconditions and performs at most one
// action. It reports whether an action advanced the machine, so callers can
// keep stepping until it settles; failed actions settle too and need a fresh
// trigger.
func (m *Machine) Step(ctx context.Context) bool {
	m.mu.Lock()

	// Wallet connection comes first. A failed connect settles until the next
	// evaluation is triggered.
	if !m.wallet.Connected() {
		if m.connecting {
			m.mu.Unlock()
			return false
		}
		m.connecting = true
		m.mu.Unlock()

		err := m.wallet.Connect(ctx)

		m.mu.Lock()
		m.connecting = false
		m.mu.Unlock()
		if err != nil {
			log.Printf("Wallet connection failed: %v", err)
			return false
		}
		return true
	}

	// A persisted token of unknown validity is checked before anything else.
	// A second trigger while a check is in flight is a no-op.
	if m.token != "" && m.validity == models.TokenUnknown {
		if m.checking || m.signing {
			m.mu.Unlock()
			return false
		}
		m.checking = true
		m.mu.Unlock()

		err := m.backend.VerifyToken(ctx)

		m.mu.Lock()
		m.checking = false
		if err != nil {
			// Any rejection, including transport failure, invalidates the
			// stored session.
			log.Printf("Token verification failed: %v", err)
			m.validity = models.TokenInvalid
			m.token = ""
			m.user = nil
			if cerr := m.storage.ClearAuth(); cerr != nil {
				log.Printf("Failed to clear auth state: %v", cerr)
			}
		} else {
			m.validity = models.TokenValid
		}
		m.mu.Unlock()
		return true
	}

	// Primary sign-in: wallet connected, identity absent or token invalid,
	// nothing in flight.
	if m.user == nil || m.validity == models.TokenInvalid {
		if m.signing || m.checking {
			m.mu.Unlock()
			return false
		}
		m.signing = true
		referral := m.referralCode
		m.mu.Unlock()

		user, token, err := m.signInPrimary(ctx, referral)

		m.mu.Lock()
		m.signing = false
		if err != nil {
			// No state changed; settle rather than re-enter the same branch.
			log.Printf("Authentication failed: %v", err)
			m.mu.Unlock()
			return false
		}
		m.user = user
		m.token = token
		m.validity = models.TokenValid
		if serr := m.storage.SaveAuth(token, user); serr != nil {
			log.Printf("Failed to persist auth state: %v", serr)
		}
		m.mu.Unlock()
		return true
	}

	// Secondary identity: triggered once per eligibility window; the attempt
	// flag resets only when the provider reports authenticated.
	if !m.secondary.Authenticated() {
		if m.secondaryAttempt {
			m.mu.Unlock()
			return false
		}
		m.secondaryAttempt = true
		m.mu.Unlock()

		if err := m.secondary.Login(ctx); err != nil {
			log.Printf("Secondary authentication failed: %v", err)
		}

		m.mu.Lock()
		if m.secondary.Authenticated() {
			m.secondaryAttempt = false
		}
		m.mu.Unlock()
		return true
	}
	if m.secondaryAttempt {
		// Login succeeded since the last evaluation.
		m.secondaryAttempt = false
	}

	// Onboarding status: fetched at most once per session; the latch is set
	// when the fetch is triggered, not when it succeeds.
	if !m.onboardingFetched {
		m.onboardingFetched = true
		m.mu.Unlock()

		check, err := m.backend.OnboardingCheck(ctx)

		m.mu.Lock()
		if err != nil {
			log.Printf("Onboarding check failed: %v", err)
		} else {
			m.onboarding = check
		}
		m.mu.Unlock()
		return true
	}

	m.reachedReady = true
	m.mu.Unlock()
	return false
}

// signInPrimary runs the nonce/sign/login exchange. Nonces are single-use
// and expire server-side, so a failure partway leaves nothing to roll back.
func (m *Machine) signInPrimary(ctx context.Context, referral string) (*models.User, string, error) {
	nonce, err := m.backend.Nonce(ctx)
	if err != nil {
		return nil, "", fmt.Errorf("failed to get nonce: %v", err)
	}

	signed, err := m.primary.SignIn(ctx, nonce)
	if err != nil {
		return nil, "", fmt.Errorf("sign-in rejected: %v", err)
	}

	user, token, err := m.backend.Login(ctx, &models.LoginRequest{
		Message:      signed.Message,
		Signature:    signed.Signature,
		ReferralCode: referral,
	})
	if err != nil {
		return nil, "", fmt.Errorf("login failed: %v", err)
	}

	return user, token, nil
}

// RecheckToken re-verifies the stored token. If validation flips to invalid
// while Ready, the machine re-enters the primary-auth stage without touching
// externally managed secondary-provider state. A recheck while one is in
// flight is a no-op.
func (m *Machine) RecheckToken(ctx context.Context) {
	m.mu.Lock()
	if m.checking || m.token == "" {
		m.mu.Unlock()
		return
	}
	m.checking = true
	m.mu.Unlock()

	err := m.backend.VerifyToken(ctx)

	m.mu.Lock()
	m.checking = false
	if err != nil {
		log.Printf("Token re-validation failed: %v", err)
		m.validity = models.TokenInvalid
		m.token = ""
		m.user = nil
		if cerr := m.storage.ClearAuth(); cerr != nil {
			log.Printf("Failed to clear auth state: %v", cerr)
		}
	} else {
		m.validity = models.TokenValid
	}
	m.mu.Unlock()

	m.Notify()
}

// MarkOnboardingDone records a completed onboarding locally so repeated
// runtime queries answer without refetching.
func (m *Machine) MarkOnboardingDone() {
	m.mu.Lock()
	m.onboarding = &models.OnboardingCheckResponse{ShowTutorial: false}
	m.mu.Unlock()
}

// Logout clears all persisted state and resets the pipeline to its initial
// position. Secondary-provider state is managed externally and not touched.
func (m *Machine) Logout() {
	m.mu.Lock()
	m.token = ""
	m.user = nil
	m.validity = models.TokenUnknown
	m.onboardingFetched = false
	m.onboarding = nil
	m.secondaryAttempt = false
	m.reachedReady = false
	if err := m.storage.ClearAll(); err != nil {
		log.Printf("Failed to clear persisted state: %v", err)
	}
	m.mu.Unlock()

	m.wallet.Disconnect()
	m.Notify()
}
