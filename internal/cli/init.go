package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/brewquest/internal/config"
	"github.com/example/brewquest/internal/db"
	"github.com/example/brewquest/internal/wire"
)

// InitCmd returns the init command
func InitCmd() *cobra.Command {
	var (
		seed     bool
		start    bool
		fixtures bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize BrewQuest config and database",
		Long: `Write a default config file if none exists, then create the database
schema. Optionally seed and start the journey and load development fixtures.

Examples:
  brewquest init
  brewquest init --seed --start
  brewquest init --seed --fixtures`,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("config")
			if path == "" {
				path = config.DefaultPath
			}

			if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
				if err := config.SaveConfig(path, config.Default()); err != nil {
					return err
				}
				fmt.Printf("✓ Config written to %s\n", path)
			} else if err != nil {
				return fmt.Errorf("failed to check config: %w", err)
			} else {
				fmt.Printf("ℹ️  Using existing config %s\n", path)
			}
			wire.SetConfigPath(path)

			cfg := wire.Config()
			database := wire.DB()
			fmt.Printf("✓ Database ready (%s)\n", cfg.Database.Driver)

			ctx := cmd.Context()
			if seed {
				seeds, err := db.DefaultStateSeeds()
				if err != nil {
					return err
				}
				if _, err := wire.JourneyAdapter().Seed(ctx, toSeedStates(seeds)); err != nil {
					return err
				}
			}
			if start {
				if _, err := wire.JourneyAdapter().Start(ctx, time.Now()); err != nil {
					return err
				}
			}
			if fixtures {
				if cfg.Database.Driver != config.DriverSQLite {
					return fmt.Errorf("fixtures are only supported on the sqlite driver")
				}
				if err := db.SeedFixtures(database, time.Now()); err != nil {
					return err
				}
				fmt.Println("✓ Development fixtures loaded")
			}

			fmt.Println()
			fmt.Println("Next steps:")
			if !seed {
				fmt.Println("  brewquest journey seed")
			}
			if !start {
				fmt.Println("  brewquest journey start")
			}
			fmt.Println("  brewquest serve")

			return nil
		},
	}

	cmd.Flags().BoolVar(&seed, "seed", false, "Seed the built-in 50 state schedule")
	cmd.Flags().BoolVar(&start, "start", false, "Make week one current")
	cmd.Flags().BoolVar(&fixtures, "fixtures", false, "Load development subscribers, reviews and posts")
	return cmd
}
