package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/convoke/convoke-api/internal/config"
	"github.com/convoke/convoke-api/internal/database"
	"github.com/convoke/convoke-api/internal/models"
	"github.com/convoke/convoke-api/internal/validation"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// NewModelsCmd creates the model catalog command with list, seed, and remove subcommands.
func NewModelsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "models",
		Short: "Manage the model catalog",
		Long:  "List, seed, or remove entries in the model catalog (stored in database).",
	}
	cmd.AddCommand(newModelsListCmd())
	cmd.AddCommand(newModelsSeedCmd())
	cmd.AddCommand(newModelsRemoveCmd())
	return cmd
}

func newModelsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List catalog entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, closeDB, err := openCatalogRepo()
			if err != nil {
				return err
			}
			defer closeDB()

			entries, err := repo.List(context.Background())
			if err != nil {
				return fmt.Errorf("list models: %w", err)
			}
			if len(entries) == 0 {
				fmt.Println("Model catalog is empty. Use 'models seed' to populate it.")
				return nil
			}
			fmt.Println("Model catalog:")
			for _, e := range entries {
				fmt.Printf("  %3d. %s (%s)\n", e.OrderNumber, e.ModelName, e.Provider)
				if e.ModelDescription != "" {
					fmt.Printf("       %s\n", e.ModelDescription)
				}
			}
			return nil
		},
	}
}

// catalogFile is the yaml shape accepted by 'models seed'.
type catalogFile struct {
	Models []struct {
		Name        string `yaml:"name"`
		Description string `yaml:"description"`
		Provider    string `yaml:"provider"`
		Order       int    `yaml:"order"`
	} `yaml:"models"`
}

func newModelsSeedCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Seed the catalog from a yaml file",
		Long:  "Upsert catalog entries from a yaml file. Existing entries with the same name are replaced; entries not in the file are left alone.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if file == "" {
				return fmt.Errorf("--file is required")
			}

			data, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("read catalog file: %w", err)
			}
			var catalog catalogFile
			if err := yaml.Unmarshal(data, &catalog); err != nil {
				return fmt.Errorf("parse catalog file: %w", err)
			}
			if len(catalog.Models) == 0 {
				return fmt.Errorf("catalog file contains no models")
			}

			// Validate everything before writing anything
			for i, m := range catalog.Models {
				if m.Name == "" {
					return fmt.Errorf("models[%d]: name is required", i)
				}
				if err := validation.ValidateModelProvider(m.Provider); err != nil {
					return fmt.Errorf("models[%d] (%s): %w", i, m.Name, err)
				}
			}

			repo, closeDB, err := openCatalogRepo()
			if err != nil {
				return err
			}
			defer closeDB()

			ctx := context.Background()
			for _, m := range catalog.Models {
				d := &models.ModelDescriptor{
					ModelName:        m.Name,
					ModelDescription: m.Description,
					Provider:         models.ModelProvider(m.Provider),
					OrderNumber:      m.Order,
				}
				if err := repo.Upsert(ctx, d); err != nil {
					return fmt.Errorf("upsert model %s: %w", m.Name, err)
				}
				fmt.Printf("Upserted model: %s\n", m.Name)
			}
			fmt.Printf("Seeded %d model(s).\n", len(catalog.Models))
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "Path to catalog yaml file (required)")
	return cmd
}

func newModelsRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <model-name>",
		Short: "Remove a catalog entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, closeDB, err := openCatalogRepo()
			if err != nil {
				return err
			}
			defer closeDB()

			if err := repo.Delete(context.Background(), args[0]); err != nil {
				return fmt.Errorf("remove model %s: %w", args[0], err)
			}
			fmt.Printf("Removed model: %s\n", args[0])
			return nil
		},
	}
}

func openCatalogRepo() (*database.ModelCatalogRepository, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}
	closeDB := func() {
		if err := db.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close database: %v\n", err)
		}
	}
	return database.NewModelCatalogRepository(db), closeDB, nil
}
