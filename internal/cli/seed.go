package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/avaldivia/cosecha/internal/agent"
	"github.com/avaldivia/cosecha/internal/config"
	"github.com/avaldivia/cosecha/internal/domain"
)

// defaultLogTypes are created once so the oracle can classify check-ins.
var defaultLogTypes = []domain.LogType{
	{Name: "riego", Description: "Registro de riego"},
	{Name: "fertilizacion", Description: "Aplicación de fertilizante"},
	{Name: "observacion", Description: "Observación general del cultivo"},
}

func newSeedCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Seed agent configs and log types",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := BuildApp(cfg)
			if err != nil {
				return err
			}
			defer app.DB.Close()

			ctx := cmd.Context()
			if err := agent.EnsureDefaultConfigs(ctx, app.Configs); err != nil {
				return err
			}

			existing, err := app.Logs.ListLogTypes(ctx)
			if err != nil {
				return err
			}
			have := make(map[string]bool, len(existing))
			for _, lt := range existing {
				have[lt.Name] = true
			}
			for _, lt := range defaultLogTypes {
				if have[lt.Name] {
					continue
				}
				seedType := lt
				if err := app.Logs.CreateLogType(ctx, &seedType); err != nil {
					return err
				}
			}

			fmt.Fprintln(cmd.OutOrStdout(), "seeded agent configs and log types")
			return nil
		},
	}
}
