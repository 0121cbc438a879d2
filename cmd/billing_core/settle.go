package main

import (
	"log/slog"

	"github.com/SscSPs/community_billing/internal/jobs"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(settleCmd)
}

var settleCmd = &cobra.Command{
	Use:   "settle",
	Short: "Run one settlement sweep and exit",
	Long:  `Settles every pending referral bonus whose settlement delay has elapsed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		container, cleanup, err := buildServices(ctx, appCfg)
		if err != nil {
			return err
		}
		defer cleanup()

		settled, err := jobs.NewScheduler(container.Earnings, slog.Default()).RunSettlement(ctx)
		if err != nil {
			return err
		}
		cmd.Printf("settled %d bonuses\n", settled)
		return nil
	},
}
