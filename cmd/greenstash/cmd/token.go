package cmd

import (
	"fmt"

	"github.com/greenstash/greenstash/internal/app"
	"github.com/spf13/cobra"
)

func TokenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "token <device>",
		Short: "Mint an API token for a device",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app.App) error {
				token, err := a.TokenService.GenerateJWT(args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), token)
				return nil
			})
		},
	}
}
