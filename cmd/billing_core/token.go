package main

import (
	"time"

	"github.com/SscSPs/community_billing/internal/utils"
	"github.com/spf13/cobra"
)

func init() {
	tokenCmd.Flags().String("subject", "", "Calling service the token identifies")
	tokenCmd.Flags().Duration("ttl", 24*time.Hour, "Token lifetime")
	_ = tokenCmd.MarkFlagRequired("subject")
	rootCmd.AddCommand(tokenCmd)
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Print a service token signed with JWT_SECRET",
	RunE: func(cmd *cobra.Command, args []string) error {
		subject, _ := cmd.Flags().GetString("subject")
		ttl, _ := cmd.Flags().GetDuration("ttl")

		signed, err := utils.GenerateServiceToken(subject, appCfg.JWTSecret, ttl, appCfg.JWTIssuer)
		if err != nil {
			return err
		}
		cmd.Println(signed)
		return nil
	},
}
