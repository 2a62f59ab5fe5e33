package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/dmitrijs2005/accountkeeper/internal/client/models"
	"github.com/dmitrijs2005/accountkeeper/internal/common"
	"github.com/spf13/cobra"
)

func (a *App) accountsCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "accounts",
		Aliases: []string{"ls"},
		Short:   "List stored accounts",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			accounts := a.user.Accounts()
			if len(accounts) == 0 {
				a.printf("No stored accounts\n")
				return nil
			}

			w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "\tUID\tEMAIL\tVERIFIED\tLAST LOGIN")
			for _, acct := range accounts {
				mark := ""
				if a.user.IsSignedInAccount(acct) {
					mark = "*"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%s\n",
					mark, acct.UID(), acct.Email(),
					models.Truthy(acct.Get(models.KeyVerified)),
					lastLogin(acct.Get(models.KeyLastLogin)),
				)
			}
			return w.Flush()
		},
	}
}

// lastLogin formats a lastLogin attribute, stored as epoch milliseconds.
func lastLogin(v any) string {
	var ms int64
	switch n := v.(type) {
	case float64:
		ms = int64(n)
	case int64:
		ms = n
	default:
		return "-"
	}
	return time.UnixMilli(ms).UTC().Format(time.RFC3339)
}

func (a *App) useCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "use <uid>",
		Short: "Make a stored account current",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			acct := a.user.GetAccountByUID(args[0])
			if acct.IsDefault() {
				return fmt.Errorf("%w: %s", common.ErrUnknownAccount, args[0])
			}
			if err := a.user.SetSignedInAccountByUID(cmd.Context(), acct.UID()); err != nil {
				return err
			}
			a.printf("Now using %s\n", acct.Email())
			return nil
		},
	}
}

func (a *App) removeCmd() *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "remove [uid]",
		Short: "Forget a stored account without signing it out on the server",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if all {
				if err := a.user.RemoveAllAccounts(cmd.Context()); err != nil {
					return err
				}
				a.printf("Removed all accounts\n")
				return nil
			}
			if len(args) == 0 {
				return fmt.Errorf("%w: uid or --all required", common.ErrInvalidParameter)
			}
			acct := a.user.GetAccountByUID(args[0])
			if acct.IsDefault() {
				return fmt.Errorf("%w: %s", common.ErrUnknownAccount, args[0])
			}
			if err := a.user.RemoveAccount(cmd.Context(), acct); err != nil {
				return err
			}
			a.printf("Removed %s\n", acct.Email())
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "remove every stored account")
	return cmd
}

func (a *App) checkCmd() *cobra.Command {
	var byEmail bool
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check that the signed-in account still exists on the server",
		Long:  "Check that the signed-in account still exists on the server. Accounts that no longer exist are removed locally.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			acct, err := a.signedIn()
			if err != nil {
				return err
			}
			var exists bool
			if byEmail {
				exists, err = a.user.CheckAccountEmailExists(cmd.Context(), acct)
			} else {
				exists, err = a.user.CheckAccountUIDExists(cmd.Context(), acct)
			}
			if err != nil {
				return err
			}
			if exists {
				a.printf("%s exists\n", acct.Email())
			} else {
				a.printf("%s no longer exists and was removed\n", acct.Email())
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&byEmail, "email", false, "look the account up by email instead of uid")
	return cmd
}
