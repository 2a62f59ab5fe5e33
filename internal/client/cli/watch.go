package cli

import (
	"context"
	"encoding/json"

	"github.com/dmitrijs2005/accountkeeper/internal/client/notifier"
	"github.com/spf13/cobra"
)

func (a *App) watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Print identity changes made by other processes until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, c := range notifier.Commands {
				off := a.notifier.On(c, a.printNotification(c))
				defer off()
			}
			a.printf("Watching for account changes (Ctrl+C to stop)\n")
			return a.channel.Listen(cmd.Context(), a.config.ChannelPollInterval, a.notifier)
		},
	}
}

// printNotification reloads storage, since the sender has changed it, and
// prints the notification with the now current account.
func (a *App) printNotification(cmd notifier.Command) notifier.Handler {
	return func(ctx context.Context, payload notifier.Payload) {
		if err := a.store.Reload(ctx); err != nil {
			a.logger.Warn(ctx, "reload storage failed", "error", err)
		}
		body, err := json.Marshal(payload)
		if err != nil {
			body = []byte("{}")
		}
		current := a.user.GetSignedInAccount().Email()
		if current == "" {
			current = "-"
		}
		a.printf("%s %s current=%s\n", cmd, body, current)
	}
}
