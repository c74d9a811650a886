package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/zaqqye/toolcrib/internal/config"
	"github.com/zaqqye/toolcrib/internal/database"
	"github.com/zaqqye/toolcrib/internal/export"
	"github.com/zaqqye/toolcrib/internal/repository"
)

func openDB() (*gorm.DB, *config.Config, error) {
	_ = godotenv.Load()
	cfg := config.Load()
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("connect: %w", err)
	}
	if err := database.Migrate(db); err != nil {
		return nil, nil, fmt.Errorf("migrate: %w", err)
	}
	return db, cfg, nil
}

func newSeedCmd() *cobra.Command {
	var demo bool
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create the admin account and, with --demo, the demo workshops",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, cfg, err := openDB()
			if err != nil {
				return err
			}
			if err := database.SeedAdmin(db, cfg); err != nil {
				return fmt.Errorf("seed admin: %w", err)
			}
			if demo {
				if err := database.SeedDemoData(db); err != nil {
					return fmt.Errorf("seed demo data: %w", err)
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), "seed complete")
			return nil
		},
	}
	cmd.Flags().BoolVar(&demo, "demo", false, "Also load demo users, tools and tasks")
	return cmd
}

func newExportCmd() *cobra.Command {
	var output, workshop string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the tool inventory to an .xlsx file",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, _, err := openDB()
			if err != nil {
				return err
			}
			return exportTools(cmd.Context(), repository.NewToolRepository(db), workshop, output)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "tools.xlsx", "Output file")
	cmd.Flags().StringVar(&workshop, "workshop", "", "Only export one workshop")
	return cmd
}

func exportTools(ctx context.Context, tools *repository.ToolRepository, workshop, output string) error {
	list, _, err := tools.List(ctx, repository.ListToolsQuery{All: true, Workshop: workshop, Limit: -1})
	if err != nil {
		return err
	}
	f, err := os.Create(output)
	if err != nil {
		return err
	}
	if err := export.WriteTools(f, list); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
