package cli

import (
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/dmitrijs2005/accountkeeper/internal/client/models"
	"github.com/dmitrijs2005/accountkeeper/internal/common"
	"github.com/spf13/cobra"
)

func (a *App) devicesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List devices and apps attached to the signed-in account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			acct, err := a.signedIn()
			if err != nil {
				return err
			}
			devices, err := a.user.FetchAccountDevices(cmd.Context(), acct)
			if err != nil {
				return err
			}
			apps, err := a.user.FetchAccountOAuthApps(cmd.Context(), acct)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "TYPE\tID\tNAME\tDETAILS")
			for _, d := range devices {
				details := d.Type
				if d.IsCurrentDevice {
					details += " (this device)"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", models.ClientTypeDevice, d.ID, d.Name, details)
			}
			for _, app := range apps {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", models.ClientTypeOAuthApp, app.ID, app.Name, strings.Join(app.Scope, " "))
			}
			return w.Flush()
		},
	}
}

func (a *App) disconnectCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "disconnect <device|oAuthApp> <id>",
		Short:     "Disconnect a device or app from the signed-in account",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{string(models.ClientTypeDevice), string(models.ClientTypeOAuthApp)},
		RunE: func(cmd *cobra.Command, args []string) error {
			acct, err := a.signedIn()
			if err != nil {
				return err
			}
			c := models.AttachedClient{ClientType: models.ClientType(args[0]), ID: args[1]}
			if err := a.user.DestroyAccountClient(cmd.Context(), acct, c); err != nil {
				if errors.Is(err, common.ErrInvalidParameter) {
					return fmt.Errorf("%w (want %s or %s)", err, models.ClientTypeDevice, models.ClientTypeOAuthApp)
				}
				return err
			}
			a.printf("Disconnected %s %s\n", args[0], args[1])
			return nil
		},
	}
}
