package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	fsMigration "blackyoga/internal/migrations/firestore"
	mongoMigration "blackyoga/internal/migrations/mongo"
	"blackyoga/pkg/config"
)

const JobName = "studio-migration"

func main() {
	firestoreIndexes := flag.Bool("firestore-indexes", false, "print the Firestore composite index file and exit")
	flag.Parse()

	if *firestoreIndexes {
		if err := fsMigration.WriteIndexFile(os.Stdout); err != nil {
			log.Fatalf("Failed to write index file: %v", err)
		}
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()
	cfg := config.Load(JobName)
	cfg.SetMongo()
	cfg.Log.Info("Starting Mongo migration job", "database", cfg.MongoDatabaseName)
	defer cfg.GracefulShutdown()
	migrateMongo(ctx, cfg)
	fmt.Println("Migration completed successfully.")
}

func migrateMongo(ctx context.Context, cfg *config.Config) {
	if err := mongoMigration.RunMigration(ctx, cfg.Client.Mongo, cfg.MongoDatabaseName); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
}
