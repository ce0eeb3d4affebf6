package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/shaharge/library-circulation/internal/config"
	"github.com/shaharge/library-circulation/internal/lib/sl"
	"github.com/shaharge/library-circulation/internal/schema"
	"github.com/shaharge/library-circulation/internal/storage"
)

var dataDir string

var rootCmd = &cobra.Command{
	Use:   "import-items <file.json>",
	Short: "Import media records into the library catalog",
	Long: `Reads a JSON array of book/CD records, normalizes malformed entries
the same way the catalog does on load, and merges them into the catalog.
Duplicates and invalid records are skipped and reported.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.Flags().StringVar(&dataDir, "data-dir", "", "catalog data directory (defaults to the configured one)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runImport(cmd *cobra.Command, args []string) error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if dataDir == "" {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		dataDir = cfg.DataDir
	}

	catalog, err := storage.OpenCatalog(dataDir, logger)
	if err != nil {
		return fmt.Errorf("open catalog: %w", err)
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	records, _, err := schema.DecodeArray(data)
	if err != nil {
		return fmt.Errorf("parse input: %w", err)
	}

	var imported, skipped, unreadable int
	for _, raw := range records {
		rec, _, err := schema.RepairMedia(raw)
		if err != nil {
			logger.Warn("skipping unreadable record", sl.Err(err))
			unreadable++
			continue
		}
		item := rec.ToModel()
		if err := catalog.Add(item); err != nil {
			if errors.Is(err, storage.ErrDuplicateItem) || errors.Is(err, storage.ErrBlankField) {
				logger.Warn("skipping record", slog.String("title", item.Title), sl.Err(err))
				skipped++
				continue
			}
			return fmt.Errorf("add %q: %w", item.Title, err)
		}
		imported++
	}

	fmt.Printf("Imported %d item(s), skipped %d duplicate/invalid, %d unreadable.\n",
		imported, skipped, unreadable)
	return nil
}
