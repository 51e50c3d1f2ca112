package cli

import (
	"github.com/spf13/cobra"
)

var trackPersist bool

var trackCmd = &cobra.Command{
	Use:   "track",
	Short: "Evaluate the look-back windows for every tracked field",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().Track(cmd.Context(), trackPersist)
	},
}

func init() {
	trackCmd.Flags().BoolVar(&trackPersist, "persist", false, "Write critical changes to the alert log")
}
