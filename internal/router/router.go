package router

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"sync"

	"ludo-gateway/internal/bridge"
	"ludo-gateway/internal/config"
	"ludo-gateway/internal/feeds"
	"ludo-gateway/internal/game"
	"ludo-gateway/internal/models"
	"ludo-gateway/internal/providers"
	"ludo-gateway/internal/session"
)

// Runtime-originated command names.
const (
	EventGameStart     = "GameStart"
	EventGameOver      = "GameOver"
	EventUpdateBalance = "UpdateBalance"
	EventLeaderboard   = "LeaderBoard"
	EventTransaction   = "Transaction"
	EventTutorCheck    = "RequestTutorCheck"
	EventCloseTutor    = "CloseTutor"
	EventMintRequest   = "MintRequest"
	EventOpenTxURL     = "OpenTxUrl"
	EventCopyReferral  = "CopyReferralLinkToClipboard"
	EventGetReferral   = "RequestReferralLink"
	EventShareReferral = "ShareReferralLink"
	EventShowProfile   = "ShowLeaderboardProfile"
	EventShareCast     = "ShareFarcaster"
	EventShareTweet    = "ShareTwitter"
	EventLogout        = "Logout"
)

const (
	tutorTarget      = "Trump"
	tutorCheckMethod = "CheckIfTutorialNeeded"
)

// Backend is the slice of the gateway the router calls directly.
type Backend interface {
	OnboardingComplete(ctx context.Context) (*models.OnboardingCompletedResponse, error)
}

// Router binds runtime events to handlers resolved from the session machine,
// the game controller and the feeds. Each event name is registered exactly
// once per bridge session and every handler is deregistered on teardown.
// Session callbacks fire from connection goroutines, so the binding list is
// mutex-guarded.
type Router struct {
	bridge  bridge.Bridge
	machine *session.Machine
	games   *game.Controller
	feeds   *feeds.Feeds
	backend Backend
	host    providers.HostActions
	cfg     *config.Config

	mu         sync.Mutex
	registered []string
}

func New(b bridge.Bridge, machine *session.Machine, games *game.Controller, f *feeds.Feeds, backend Backend, host providers.HostActions, cfg *config.Config) *Router {
	return &Router{
		bridge:  b,
		machine: machine,
		games:   games,
		feeds:   f,
		backend: backend,
		host:    host,
		cfg:     cfg,
	}
}

// Register binds every handler. A name that is already bound makes the whole
// registration fail: duplicate handlers would double-fire value-transferring
// commands.
func (r *Router) Register(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.registerLocked(ctx)
}

func (r *Router) registerLocked(ctx context.Context) error {
	bindings := []struct {
		name    string
		handler bridge.Handler
	}{
		{EventGameStart, r.onGameStart(ctx)},
		{EventGameOver, r.onGameOver(ctx)},
		{EventUpdateBalance, r.onUpdateBalance(ctx)},
		{EventLeaderboard, r.onLeaderboard(ctx)},
		{EventTransaction, r.onTransaction(ctx)},
		{EventTutorCheck, r.onTutorCheck},
		{EventCloseTutor, r.onCloseTutor(ctx)},
		{EventMintRequest, r.onMintRequest(ctx)},
		{EventOpenTxURL, r.onOpenTxURL},
		{EventCopyReferral, r.onCopyReferral},
		{EventGetReferral, r.onRequestReferral},
		{EventShareReferral, r.onShareReferral},
		{EventShowProfile, r.onShowProfile},
		{EventShareCast, r.onShareCast},
		{EventShareTweet, r.onShareTweet},
		{EventLogout, r.onLogout},
	}

	for _, b := range bindings {
		if err := r.bridge.On(b.name, b.handler); err != nil {
			r.teardownLocked()
			return fmt.Errorf("failed to register %s: %v", b.name, err)
		}
		r.registered = append(r.registered, b.name)
	}
	return nil
}

// Teardown deregisters every bound handler. Must run before re-registration
// to avoid duplicate invocation.
func (r *Router) Teardown() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.teardownLocked()
}

func (r *Router) teardownLocked() {
	for _, name := range r.registered {
		r.bridge.Off(name)
	}
	r.registered = nil
}

// Rebind tears down and re-registers as one critical section. Bridge session
// callbacks run on their connection's goroutine; two near-simultaneous
// reconnects must not interleave teardown with registration.
func (r *Router) Rebind(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.teardownLocked()
	return r.registerLocked(ctx)
}

// ready gates gameplay handlers behind full authentication.
func (r *Router) ready(event string) bool {
	if r.machine.Ready() {
		return true
	}
	log.Printf("Dropping %s: session not ready (%s)", event, r.machine.State())
	return false
}

func (r *Router) onGameStart(ctx context.Context) bridge.Handler {
	return func(e bridge.Event) {
		if !r.ready(e.Name) {
			return
		}
		positionSize := e.Float(0)
		positionPercent := e.Float(1)
		leverage := e.Float(2)
		risk := e.String(3)
		tradeType := e.String(4)

		go func() {
			if _, err := r.games.StartRound(ctx, positionSize, positionPercent, leverage, risk, tradeType); err != nil {
				log.Printf("Round start rejected: %v", err)
			}
		}()
	}
}

func (r *Router) onGameOver(ctx context.Context) bridge.Handler {
	return func(e bridge.Event) {
		if !r.ready(e.Name) {
			return
		}
		// Argument order fixed by the runtime: final leverage, pnl, position
		// token, position fix, risk, roi, start leverage, mystery boxes, hex
		// payload.
		pnl := e.Float(1)
		roi := e.Float(5)
		mysteryBoxes := e.Int(7)
		hexData := e.String(8)

		go func() {
			if _, err := r.games.FinalizeRound(ctx, pnl, roi, mysteryBoxes, hexData); err != nil {
				log.Printf("Round finalize failed: %v", err)
				return
			}
			if err := r.feeds.PushGameBalance(ctx); err != nil {
				log.Printf("Balance refresh after finalize failed: %v", err)
			}
			if err := r.feeds.PushChainBalance(ctx); err != nil {
				log.Printf("Chain balance refresh after finalize failed: %v", err)
			}
		}()
	}
}

func (r *Router) onUpdateBalance(ctx context.Context) bridge.Handler {
	return func(e bridge.Event) {
		go func() {
			if err := r.feeds.PushChainBalance(ctx); err != nil {
				log.Printf("Balance push failed: %v", err)
			}
			if err := r.feeds.PushGameBalance(ctx); err != nil {
				log.Printf("Game balance push failed: %v", err)
			}
		}()
	}
}

func (r *Router) onLeaderboard(ctx context.Context) bridge.Handler {
	return func(e bridge.Event) {
		go func() {
			if err := r.feeds.PushLeaderboard(ctx); err != nil {
				log.Printf("Leaderboard push failed: %v", err)
			}
		}()
	}
}

func (r *Router) onTransaction(ctx context.Context) bridge.Handler {
	return func(e bridge.Event) {
		go func() {
			if err := r.feeds.PushHistory(ctx); err != nil {
				log.Printf("History push failed: %v", err)
			}
		}()
	}
}

func (r *Router) onTutorCheck(e bridge.Event) {
	if err := r.bridge.Send(tutorTarget, tutorCheckMethod, r.machine.OnboardingNeeded()); err != nil {
		log.Printf("Onboarding flag push failed: %v", err)
	}
}

func (r *Router) onCloseTutor(ctx context.Context) bridge.Handler {
	return func(e bridge.Event) {
		go func() {
			if _, err := r.backend.OnboardingComplete(ctx); err != nil {
				log.Printf("Failed to mark onboarding complete: %v", err)
				return
			}
			r.machine.MarkOnboardingDone()
		}()
	}
}

func (r *Router) onMintRequest(ctx context.Context) bridge.Handler {
	return func(e bridge.Event) {
		if !r.ready(e.Name) {
			return
		}
		go func() {
			if _, err := r.games.MintForLastResult(ctx); err != nil {
				log.Printf("Mint rejected: %v", err)
			}
		}()
	}
}

func (r *Router) onOpenTxURL(e bridge.Event) {
	hash, err := r.games.LastMintTx()
	if err != nil {
		log.Printf("Failed to load last mint tx: %v", err)
		return
	}
	if hash == "" {
		log.Printf("OpenTxUrl requested but no transaction hash is available")
		return
	}
	if err := r.host.OpenURL(r.cfg.ExplorerTxURL + hash); err != nil {
		log.Printf("Failed to open explorer: %v", err)
	}
}

func (r *Router) referralLink() (string, bool) {
	user := r.machine.User()
	if user == nil {
		return "", false
	}
	return r.cfg.ReferralLink(user.ID), true
}

func (r *Router) onCopyReferral(e bridge.Event) {
	link, ok := r.referralLink()
	if !ok {
		log.Printf("Cannot copy referral link: no identity")
		return
	}
	if err := r.host.WriteClipboard(link); err != nil {
		log.Printf("Failed to copy referral link: %v", err)
	}
}

func (r *Router) onRequestReferral(e bridge.Event) {
	link, ok := r.referralLink()
	if !ok {
		log.Printf("Cannot send referral link: no identity")
		return
	}
	if err := r.feeds.SendReferralLink(link); err != nil {
		log.Printf("Failed to send referral link: %v", err)
	}
}

func (r *Router) onShareReferral(e bridge.Event) {
	link, ok := r.referralLink()
	if !ok {
		log.Printf("Cannot share referral link: no identity")
		return
	}
	text := fmt.Sprintf("We keep earning MONs on LUDONAD game mf\n\nLink for the gamble thing - %s", link)
	if r.cfg.ChannelInvite != "" {
		text += "\nChannel - " + r.cfg.ChannelInvite
	}
	if err := r.host.ComposeCast(text, link); err != nil {
		log.Printf("Failed to share referral link: %v", err)
	}
}

func (r *Router) onShowProfile(e bridge.Event) {
	id := e.String(0)
	if id == "" {
		return
	}
	if err := r.host.ViewProfile(id); err != nil {
		log.Printf("Failed to open profile %s: %v", id, err)
	}
}

func (r *Router) lastROI() float64 {
	result, err := r.games.LastResult()
	if err != nil || result == nil {
		return 0
	}
	return result.ROI
}

func (r *Router) onShareCast(e bridge.Event) {
	link, ok := r.referralLink()
	if !ok {
		log.Printf("Cannot share: no identity")
		return
	}
	text := models.ShareText(r.lastROI(), "LUDONAD")
	text += fmt.Sprintf("\n\nLink for the gamble thing - %s", link)
	if r.cfg.ChannelInvite != "" {
		text += "\nChannel - " + r.cfg.ChannelInvite
	}
	if err := r.host.ComposeCast(text, link); err != nil {
		log.Printf("Failed to compose cast: %v", err)
	}
}

func (r *Router) onShareTweet(e bridge.Event) {
	link, ok := r.referralLink()
	if !ok {
		log.Printf("Cannot share: no identity")
		return
	}
	text := models.ShareText(r.lastROI(), "@Ludonad_game")
	text += fmt.Sprintf("\n\nLink for the gamble thing - %s", link)
	tweetURL := "https://twitter.com/intent/tweet?text=" + url.QueryEscape(text)
	if err := r.host.OpenURL(tweetURL); err != nil {
		log.Printf("Failed to open tweet intent: %v", err)
	}
}

func (r *Router) onLogout(e bridge.Event) {
	r.machine.Logout()
	log.Printf("Session logged out")
}
