package cli

import (
	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Fetch the price feed once and merge it into the store",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().SyncOnce(cmd.Context())
	},
}
