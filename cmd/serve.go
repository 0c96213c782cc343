package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	configx "github.com/tanpawarit/inventory-sms-agent/pkg/config"
	openrouterx "github.com/tanpawarit/inventory-sms-agent/pkg/openrouter"
	twiliox "github.com/tanpawarit/inventory-sms-agent/pkg/twilio"
	"github.com/tanpawarit/inventory-sms-agent/server"
)

func newServeCmd() *cobra.Command {
	var skipModelCheck bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the Twilio webhook server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			serverCfg, err := configx.New[server.Config]("SERVER")
			if err != nil {
				return fmt.Errorf("load server config: %w", err)
			}
			twilioCfg, err := configx.New[twiliox.Config]("TWILIO")
			if err != nil {
				return fmt.Errorf("load twilio config: %w", err)
			}
			validator, err := twiliox.NewValidator(*twilioCfg)
			if err != nil {
				return err
			}
			if twilioCfg.SkipSignature {
				log.Warn().Msg("twilio signature verification is disabled")
			}

			a, err := wireApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			if !skipModelCheck {
				if err := checkModels(ctx, a); err != nil {
					return err
				}
			}
			if a.janitor != nil {
				go a.janitor(ctx)
			}

			srv, err := server.New(*serverCfg, a.orchestrator, validator)
			if err != nil {
				return err
			}
			return srv.Start(ctx)
		},
	}
	cmd.Flags().BoolVar(&skipModelCheck, "skip-model-check", false, "do not check the configured models at startup")
	return cmd
}

func checkModels(ctx context.Context, a *app) error {
	client := openrouterx.NewClient(a.openrouter)
	if err := openrouterx.CheckModels(ctx, client, a.modelNames()...); err != nil {
		return err
	}
	log.Info().Strs("models", a.modelNames()).Msg("models available")
	return nil
}
