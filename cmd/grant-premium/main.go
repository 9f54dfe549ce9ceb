package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/medprep/medmcq-backend/internal/config"
	"github.com/medprep/medmcq-backend/internal/database"
	"github.com/medprep/medmcq-backend/internal/logger"
	"github.com/medprep/medmcq-backend/internal/model"
	"github.com/medprep/medmcq-backend/internal/repository"
)

// grant-premium activates or revokes a subscription by hand, for support
// cases and for accounts that do not pay through the processor.
func main() {
	var (
		email  string
		plan   string
		days   int
		revoke bool
	)
	flag.StringVar(&email, "email", "", "Email of the user")
	flag.StringVar(&plan, "plan", "manual", "Plan id recorded on the user")
	flag.IntVar(&days, "days", 30, "Days until expiry (0 keeps the stored expiry)")
	flag.BoolVar(&revoke, "revoke", false, "Cancel the subscription instead")
	flag.Parse()

	if email == "" {
		fmt.Println("Usage: grant-premium -email user@example.com [-plan id] [-days n] [-revoke]")
		os.Exit(2)
	}

	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx := context.Background()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	userRepo := repository.NewUserRepository(pool)

	user, err := userRepo.GetByEmail(ctx, email)
	if errors.Is(err, pgx.ErrNoRows) {
		fmt.Printf("Error: no user with email %s\n", email)
		os.Exit(1)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to look up user")
	}

	upd := model.SubscriptionUpdate{
		Status: model.SubscriptionActive,
		PlanID: plan,
	}
	if user.StripeSubscriptionID != nil {
		upd.SubscriptionID = *user.StripeSubscriptionID
	}
	if revoke {
		upd.Status = model.SubscriptionCanceled
	} else if days > 0 {
		exp := time.Now().AddDate(0, 0, days)
		upd.ExpiresAt = &exp
	}

	if err := userRepo.UpdateSubscription(ctx, user.ID, upd); err != nil {
		log.Fatal().Err(err).Msg("Failed to update subscription")
	}

	fmt.Printf("Success! %s is now %s", user.Email, upd.Status)
	if upd.ExpiresAt != nil {
		fmt.Printf(" until %s", upd.ExpiresAt.Format(time.DateOnly))
	}
	fmt.Println()
}
