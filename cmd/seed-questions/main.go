package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/medprep/medmcq-backend/internal/config"
	"github.com/medprep/medmcq-backend/internal/database"
	"github.com/medprep/medmcq-backend/internal/logger"
	"github.com/medprep/medmcq-backend/internal/model"
	"github.com/medprep/medmcq-backend/internal/repository"
	"github.com/medprep/medmcq-backend/internal/service"
)

// seed-questions imports question bank files. Each file replaces the
// questions of its module, so re-running a file is safe.
//
//	seed-questions banks/cardiology.json banks/neurology.json
func main() {
	flag.Usage = func() {
		fmt.Println("Usage: seed-questions <bank.json> [bank.json...]")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// Redis is only needed to drop stale caches; imports still succeed without it.
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Warn().Err(err).Msg("Redis unavailable, caches will expire on their own")
	} else {
		defer rdb.Close()
	}

	userRepo := repository.NewUserRepository(pool)
	moduleRepo := repository.NewModuleRepository(pool)
	questionRepo := repository.NewQuestionRepository(pool)
	entitlement := service.NewEntitlementService(userRepo, moduleRepo)
	questionService := service.NewQuestionService(questionRepo, moduleRepo, entitlement, rdb, cfg, log)

	fmt.Printf("=== Seeding %d question bank(s) ===\n", flag.NArg())

	total := 0
	for _, path := range flag.Args() {
		bank, err := readBank(path)
		if err != nil {
			log.Fatal().Err(err).Str("file", path).Msg("Failed to read question bank")
		}

		n, err := questionService.ImportModule(ctx, &bank.Module, bank.Questions)
		if err != nil {
			log.Fatal().Err(err).Str("file", path).Msg("Failed to import question bank")
		}
		fmt.Printf("  %-24s %4d questions\n", bank.Module.ID, n)
		total += n
	}

	fmt.Printf("\nSuccess! Imported %d questions.\n", total)
}

func readBank(path string) (*model.QuestionBankFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var bank model.QuestionBankFile
	dec := json.NewDecoder(f)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&bank); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if bank.Module.ID == "" {
		return nil, fmt.Errorf("%s: module.id is required", path)
	}
	return &bank, nil
}
