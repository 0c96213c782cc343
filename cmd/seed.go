package cmd

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	inventoryx "github.com/tanpawarit/inventory-sms-agent/agent/inventory"
	configx "github.com/tanpawarit/inventory-sms-agent/pkg/config"
)

func newSeedCmd() *cobra.Command {
	var (
		dsn  string
		file string
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create the Postgres dataset tables and load a dataset into them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(dsn) == "" {
				datasetCfg, err := configx.New[inventoryx.Config]("DATASET")
				if err != nil {
					return fmt.Errorf("load dataset config: %w", err)
				}
				dsn = datasetCfg.PostgresDSN
			}

			var (
				data *inventoryx.Dataset
				err  error
			)
			if strings.TrimSpace(file) != "" {
				data, err = inventoryx.LoadFile(file)
			} else {
				data, err = inventoryx.DefaultDataset()
			}
			if err != nil {
				return err
			}

			src, err := inventoryx.OpenPostgres(dsn)
			if err != nil {
				return err
			}
			defer src.Close()

			if err := src.Migrate(cmd.Context()); err != nil {
				return err
			}
			if err := src.Seed(cmd.Context(), data); err != nil {
				return err
			}
			log.Info().Int("products", len(data.Products)).Msg("dataset seeded")
			return nil
		},
	}
	cmd.Flags().StringVar(&dsn, "dsn", "", "postgres dsn (defaults to DATASET_POSTGRES_DSN)")
	cmd.Flags().StringVar(&file, "file", "", "YAML dataset to load instead of the embedded sample")
	return cmd
}
