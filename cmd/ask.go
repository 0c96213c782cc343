package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newAskCmd() *cobra.Command {
	var threadID string

	cmd := &cobra.Command{
		Use:   "ask <message>",
		Short: "Send one message through the agent pipeline and print the reply",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := wireApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			reply, err := a.orchestrator.HandleMessage(cmd.Context(), threadID, strings.Join(args, " "))
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), reply)
			return err
		},
	}
	cmd.Flags().StringVar(&threadID, "thread", "cli", "conversation thread id")
	return cmd
}
