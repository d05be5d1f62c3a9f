package cli

import (
	"fmt"
	"log"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/spf13/cobra"

	"github.com/poalrom/big-web-quiz/internal/config"
	pgstore "github.com/poalrom/big-web-quiz/internal/infra/postgres"
)

// NewSeedCmd loads the sample questions into the configured Postgres store.
func NewSeedCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert sample questions into Postgres",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if cfg.Postgres.URL == "" {
				return fmt.Errorf("postgres url not configured")
			}
			ctx := cmd.Context()
			if err := runMigrationsWithConfig(ctx, cfg); err != nil {
				return err
			}
			pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
			if err != nil {
				return err
			}
			defer pool.Close()

			store := pgstore.NewQuestionStore(pool)
			for _, update := range sampleQuestions() {
				if _, err := store.Upsert(ctx, update); err != nil {
					return fmt.Errorf("seed question %s: %w", update.Key, err)
				}
			}
			log.Printf("seeded %d sample questions", len(sampleQuestions()))
			return nil
		},
	}
}
