package cli

import (
	"github.com/spf13/cobra"

	"github.com/avaldivia/cosecha/internal/config"
)

// NewRootCmd creates the top-level "cosecha" command.
func NewRootCmd(cfg *config.Config) *cobra.Command {
	root := &cobra.Command{
		Use:   "cosecha",
		Short: "Agronomic follow-up assistant for smallholder producers",
	}

	root.AddCommand(
		newServeCmd(cfg),
		newSeedCmd(cfg),
	)

	return root
}
