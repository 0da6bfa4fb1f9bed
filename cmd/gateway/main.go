package main

import (
	"context"
	"log"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"ludo-gateway/internal/bridge"
	"ludo-gateway/internal/config"
	"ludo-gateway/internal/feeds"
	"ludo-gateway/internal/game"
	"ludo-gateway/internal/gateway"
	"ludo-gateway/internal/providers"
	"ludo-gateway/internal/router"
	"ludo-gateway/internal/session"
	"ludo-gateway/internal/store"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	st, err := store.NewStore(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer st.Close()

	// Provider stand-ins; deployments swap in the host SDK wrappers here.
	wallet := providers.NewLocalWallet(os.Getenv("WALLET_ADDRESS"), 100)
	primary := &providers.LocalPrimary{UserID: os.Getenv("DEV_USER_ID")}
	secondary := providers.NewLocalSecondary(os.Getenv("LINKED_ADDRESS"))
	host := providers.LogActions{}

	var machine *session.Machine
	client := gateway.NewClient(cfg.APIBaseURL, func() string {
		if machine == nil {
			return ""
		}
		return machine.Token()
	})

	referral := session.ReferralFromURL(os.Getenv("LAUNCH_URL"))
	machine, err = session.NewMachine(wallet, primary, secondary, client, st, referral)
	if err != nil {
		log.Fatalf("Failed to initialize session: %v", err)
	}

	server := bridge.NewServer()
	pushes := feeds.New(client, wallet, server)
	games := game.NewController(client, st, wallet, minterFor(wallet), secondary, server, cfg.DepositAddress)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events := router.New(server, machine, games, pushes, client, host, cfg)

	server.SetSessionFunc(func() {
		if err := events.Rebind(ctx); err != nil {
			log.Printf("Failed to register event handlers: %v", err)
		}
	})

	server.SetReadyFunc(func() {
		machine.Notify()
		if !machine.Ready() {
			return
		}
		go func() {
			if err := pushes.PushChainBalance(ctx); err != nil {
				log.Printf("Initial balance push failed: %v", err)
			}
			if err := pushes.PushGameBalance(ctx); err != nil {
				log.Printf("Initial game balance push failed: %v", err)
			}
			if err := pushes.PushLeaderboard(ctx); err != nil {
				log.Printf("Initial leaderboard push failed: %v", err)
			}
			if err := pushes.PushHistory(ctx); err != nil {
				log.Printf("Initial history push failed: %v", err)
			}
		}()
	})

	go machine.Run(ctx)

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.Default()
	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"session": machine.State().String(),
			"loaded":  server.Loaded(),
		})
	})
	server.Attach(engine)

	log.Printf("Gateway starting on port %s", cfg.Port)
	if err := engine.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start gateway: %v", err)
	}
}

// minterFor derives a development minter from the wallet. Deployments
// replace this with the contract binding.
func minterFor(wallet providers.Wallet) providers.Minter {
	return &providers.LocalMinter{Wallet: wallet}
}
