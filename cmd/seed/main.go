// Command seed loads the default categories and, optionally, demo content.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"kasinoforum/internal/config"
	"kasinoforum/internal/database"
	"kasinoforum/internal/seed"

	"github.com/joho/godotenv"
)

func main() {
	demo := flag.Bool("demo", false, "Create demo users, threads, replies and likes")
	numUsers := flag.Int("users", 20, "Number of demo users")
	threads := flag.Int("threads", 5, "Threads per category")
	replies := flag.Int("replies", 8, "Replies per thread")
	likes := flag.Int("likes", 4, "Maximum likes per post")
	seedValue := flag.Int64("seed", 0, "Random seed, 0 for random")
	dryRun := flag.Bool("dry-run", false, "Report what would be created without writing")
	flag.Parse()

	_ = godotenv.Load()

	log.Println("Forum seeder")
	log.Println("============")

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	if !*dryRun {
		if err := seed.Categories(ctx, db); err != nil {
			log.Fatalf("Category seeding failed: %v", err)
		}
		log.Printf("Categories ready: %d", len(seed.DefaultCategories))
	}

	if !*demo {
		return
	}

	result, err := seed.NewFactory(db, seed.DemoOptions{
		Users:              *numUsers,
		ThreadsPerCategory: *threads,
		RepliesPerThread:   *replies,
		MaxLikesPerPost:    *likes,
		Seed:               *seedValue,
		DryRun:             *dryRun,
	}).Demo(ctx)
	if err != nil {
		log.Fatalf("Demo seeding failed: %v", err)
	}
	log.Printf("Demo content: users=%d threads=%d posts=%d likes=%d", result.Users, result.Threads, result.Posts, result.Likes)
}
