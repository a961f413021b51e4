package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"go.uber.org/zap"

	"lit-review/config"
	"lit-review/storage"
)

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: backup <command> [args]

Commands:
  push            upload the database file as a new timestamped backup
  pull            restore the newest backup over the database file
  list            list stored backups, newest first
  delete <key>    delete one backup by key
`)
	os.Exit(2)
}

func main() {
	flag.Parse()
	if flag.NArg() < 1 {
		usage()
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if !cfg.BackupEnabled() {
		log.Fatal("Object storage is not configured (SPACES_S3_KEY / SPACES_S3_SECRET / SPACES_S3_BUCKET)")
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	client, err := storage.NewS3Client(cfg)
	if err != nil {
		log.Fatalf("Failed to create S3 client: %v", err)
	}
	backups := storage.NewBackups(client, cfg, logger)

	ctx := context.Background()
	switch flag.Arg(0) {
	case "push":
		key, err := backups.Push(ctx, cfg.DBPath)
		if err != nil {
			log.Fatalf("Backup failed: %v", err)
		}
		log.Printf("Uploaded s3://%s/%s", cfg.SpacesBucket, key)

	case "pull":
		key, err := backups.Pull(ctx, cfg.DBPath)
		if err != nil {
			log.Fatalf("Restore failed: %v", err)
		}
		log.Printf("Restored %s to %s", key, cfg.DBPath)

	case "list":
		objects, err := backups.List(ctx)
		if err != nil {
			log.Fatalf("Listing failed: %v", err)
		}
		if len(objects) == 0 {
			log.Println("No backups stored.")
			return
		}
		for _, obj := range objects {
			fmt.Printf("%s\t%d bytes\t%s\n", obj.Key, obj.Size, obj.LastModified.Format("2006-01-02 15:04:05"))
		}

	case "delete":
		if flag.NArg() < 2 {
			usage()
		}
		if err := backups.Delete(ctx, flag.Arg(1)); err != nil {
			log.Fatalf("Delete failed: %v", err)
		}
		log.Printf("Deleted %s", flag.Arg(1))

	default:
		usage()
	}
}
