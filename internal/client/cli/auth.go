package cli

import (
	"errors"
	"fmt"

	"github.com/dmitrijs2005/accountkeeper/internal/client/account"
	"github.com/dmitrijs2005/accountkeeper/internal/client/models"
	"github.com/dmitrijs2005/accountkeeper/internal/client/resumetoken"
	"github.com/dmitrijs2005/accountkeeper/internal/common"
	"github.com/spf13/cobra"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

var errNotSignedIn = errors.New("not signed in")

// signedIn returns the signed-in account or errNotSignedIn.
func (a *App) signedIn() (*account.Account, error) {
	acct := a.user.GetSignedInAccount()
	if acct.IsDefault() {
		return nil, errNotSignedIn
	}
	return acct, nil
}

// emailArg returns args[0] or prompts for an email.
func (a *App) emailArg(args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	return getSimpleText(a.reader, "Enter email", a.out)
}

// accountForEmail returns the stored account with email, or a fresh one.
func (a *App) accountForEmail(email string) *account.Account {
	acct := a.user.GetAccountByEmail(email)
	if acct.IsDefault() {
		acct = a.user.InitAccount(models.Attributes{models.KeyEmail: email})
	}
	return acct
}

func (a *App) relierFor(service string, wantsKeys bool) models.Relier {
	r := a.relier
	r.Service = service
	r.WantsKeys = wantsKeys
	return r
}

func (a *App) signInCmd() *cobra.Command {
	var (
		service string
		keys    bool
		opts    account.SignInOptions
	)
	cmd := &cobra.Command{
		Use:   "signin [email]",
		Short: "Sign in and make the account current",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			email, err := a.emailArg(args)
			if err != nil {
				return err
			}
			password, err := getPassword(a.out, "Password")
			if err != nil {
				return err
			}
			defer common.WipeByteArray(password)

			acct, err := a.user.SignInAccount(cmd.Context(), a.accountForEmail(email), password, a.relierFor(service, keys), opts)
			if err != nil {
				return err
			}
			a.printf("Signed in as %s (uid %s)\n", acct.Email(), acct.UID())
			if !models.Truthy(acct.Get(models.KeyVerified)) {
				a.printf("Session is unverified; run \"verify <code>\" with the code sent to %s\n", acct.Email())
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&service, "service", "", "service the sign-in is for")
	cmd.Flags().BoolVar(&keys, "keys", false, "request key material")
	cmd.Flags().StringVar(&opts.Reason, "reason", "signin", "reason for the sign-in")
	cmd.Flags().StringVar(&opts.UnblockCode, "unblock-code", "", "code that unblocks a throttled sign-in")
	cmd.Flags().StringVar(&opts.VerificationMethod, "verification-method", "", "how the session should be verified")
	return cmd
}

func (a *App) signUpCmd() *cobra.Command {
	var (
		service string
		keys    bool
		opts    account.SignUpOptions
	)
	cmd := &cobra.Command{
		Use:   "signup [email]",
		Short: "Create an account and sign in to it",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			email, err := a.emailArg(args)
			if err != nil {
				return err
			}
			password, err := getPassword(a.out, "Choose a password")
			if err != nil {
				return err
			}
			defer common.WipeByteArray(password)

			opts.ResumeToken, err = resumetoken.Stringify(resumetoken.Collect(a.user))
			if err != nil {
				return err
			}

			acct, err := a.user.SignUpAccount(cmd.Context(), a.accountForEmail(email), password, a.relierFor(service, keys), opts)
			if err != nil {
				return err
			}
			a.printf("Created %s (uid %s). Check your inbox for a verification code.\n", acct.Email(), acct.UID())
			return nil
		},
	}
	cmd.Flags().StringVar(&service, "service", "", "service the sign-up is for")
	cmd.Flags().BoolVar(&keys, "keys", false, "request key material")
	cmd.Flags().BoolVar(&opts.OptInToMarketingEmail, "marketing", false, "subscribe to product news once verified")
	return cmd
}

func (a *App) verifyCmd() *cobra.Command {
	var opts account.VerifyOptions
	cmd := &cobra.Command{
		Use:   "verify <code>",
		Short: "Verify the signed-in account with an emailed code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			acct, err := a.signedIn()
			if err != nil {
				return err
			}
			err = a.user.CompleteAccountSignUp(cmd.Context(), acct, args[0], opts)
			if common.IsMarketingEmailError(err) {
				a.printf("Verified %s, but the newsletter subscription failed: %v\n", acct.Email(), err)
				return nil
			}
			if err != nil {
				return err
			}
			a.printf("Verified %s\n", acct.Email())
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.Service, "service", "", "service the code was sent for")
	cmd.Flags().StringVar(&opts.Reminder, "reminder", "", "reminder email the code came from")
	cmd.Flags().StringVar(&opts.Type, "type", "", "verification type")
	return cmd
}

func (a *App) signOutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "signout",
		Short: "Sign out of the current account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			acct, err := a.signedIn()
			if err != nil {
				return err
			}
			if err := a.user.SignOutAccount(cmd.Context(), acct); err != nil {
				// Local state is already gone.
				a.printf("Signed out of %s locally; server sign-out failed: %v\n", acct.Email(), err)
				return nil
			}
			a.printf("Signed out of %s\n", acct.Email())
			return nil
		},
	}
}

func (a *App) statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the signed-in account and check its session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			acct, err := a.signedIn()
			if errors.Is(err, errNotSignedIn) {
				a.printf("Not signed in\n")
				return nil
			}
			if err != nil {
				return err
			}
			checked, err := a.user.SessionStatus(cmd.Context(), acct)
			if errors.Is(err, common.ErrInvalidToken) {
				a.printf("%s (uid %s): session expired, sign in again\n", acct.Email(), acct.UID())
				return nil
			}
			if err != nil {
				return err
			}
			a.printf("%s (uid %s) verified=%t\n", checked.Email(), checked.UID(), models.Truthy(checked.Get(models.KeyVerified)))
			return nil
		},
	}
}

func (a *App) deleteCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Permanently delete the signed-in account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			acct, err := a.signedIn()
			if err != nil {
				return err
			}
			if !yes {
				typed, err := getSimpleText(a.reader, fmt.Sprintf("Type %s to confirm deletion", acct.Email()), a.out)
				if err != nil {
					return err
				}
				if typed != acct.Email() {
					return common.ErrUserCanceled
				}
			}
			password, err := getPassword(a.out, "Password")
			if err != nil {
				return err
			}
			defer common.WipeByteArray(password)

			if err := a.user.DeleteAccount(cmd.Context(), acct, password); err != nil {
				return err
			}
			a.printf("Deleted %s\n", acct.Email())
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

func (a *App) changePasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "change-password",
		Short: "Change the signed-in account's password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			acct, err := a.signedIn()
			if err != nil {
				return err
			}
			oldPassword, err := getPassword(a.out, "Current password")
			if err != nil {
				return err
			}
			defer common.WipeByteArray(oldPassword)
			newPassword, err := getPassword(a.out, "New password")
			if err != nil {
				return err
			}
			defer common.WipeByteArray(newPassword)

			if _, err := a.user.ChangeAccountPassword(cmd.Context(), acct, oldPassword, newPassword, a.relier); err != nil {
				return err
			}
			a.printf("Password changed for %s\n", acct.Email())
			return nil
		},
	}
}

func (a *App) resetPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset-password <email> <token> <code>",
		Short: "Finish a password reset and sign in",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := getPassword(a.out, "New password")
			if err != nil {
				return err
			}
			defer common.WipeByteArray(password)

			acct, err := a.user.CompleteAccountPasswordReset(cmd.Context(), a.accountForEmail(args[0]), password, args[1], args[2], a.relier)
			if err != nil {
				return err
			}
			a.printf("Password reset; signed in as %s\n", acct.Email())
			return nil
		},
	}
}

func (a *App) rejectUnblockCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reject-unblock <email> <code>",
		Short: "Report an unblock code you did not request",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			acct := a.user.GetAccountByEmail(args[0])
			if acct.IsDefault() {
				return fmt.Errorf("%w: %s", common.ErrUnknownAccount, args[0])
			}
			if err := a.user.RejectAccountUnblockCode(cmd.Context(), acct, args[1]); err != nil {
				return err
			}
			a.printf("Unblock code rejected\n")
			return nil
		},
	}
}
