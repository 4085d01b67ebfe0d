// Command main runs the database seeder for VideoTube.
package main

import (
	"context"
	"flag"
	"log"

	"videotube/internal/bootstrap"
	"videotube/internal/config"
	"videotube/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 50, "Number of users to create")
	numVideos := flag.Int("videos", 300, "Number of videos to create")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	preset := flag.String("preset", "", "Apply a seeder preset (minimal, demo, large)")
	dryRun := flag.Bool("dry-run", false, "Build everything but write nothing")
	fastHash := flag.Bool("fast-hash", false, "Hash the shared password with the minimum bcrypt cost")
	seedValue := flag.Int64("seed", 0, "Random seed for reproducible runs (0 uses the clock)")
	flag.Parse()

	log.Println("🌱 Database Seeder")
	log.Println("==================")

	if *preset != "" {
		log.Printf("Applying preset: %s (ignoring size flags)\n", *preset)
	} else {
		log.Printf("Target: %d users, %d videos, clean=%v\n", *numUsers, *numVideos, *shouldClean)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	rt, err := bootstrap.InitRuntime(context.Background(), cfg, bootstrap.Options{SkipMedia: true})
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}

	s := seed.NewSeeder(rt.DB, seed.Options{
		NumUsers:    *numUsers,
		NumVideos:   *numVideos,
		ShouldClean: *shouldClean,
		DryRun:      *dryRun,
		FastHash:    *fastHash,
		Seed:        *seedValue,
	})

	var sum seed.Summary
	if *preset != "" {
		sum, err = s.ApplyPreset(*preset)
	} else {
		sum, err = s.Run()
	}
	if err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}

	log.Printf("✨ All done! Created %s.", sum)
	log.Printf("📧 All test users have the password: %s", seed.DefaultPassword)
}
