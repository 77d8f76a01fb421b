package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nikicat/pass-engine/internal/dispatch"
)

// copyKinds maps --field values to operations
var copyKinds = map[string]dispatch.Kind{
	"id":       dispatch.CopyID,
	"password": dispatch.CopyPassword,
	"login":    dispatch.CopyLogin,
	"otp":      dispatch.CopyOTP,
}

func newCopyCmd(a *app) *cobra.Command {
	var (
		field  string
		remote bool
	)

	cmd := &cobra.Command{
		Use:   "copy <id>",
		Short: "Copy a field of an entry to the clipboard",
		Long: `Copy a field of an entry to the clipboard.

Passwords, logins and one-time passwords are cleared from the clipboard once
the clipboard timeout has passed, unless something else was copied meanwhile.
Without --remote the command stays in the foreground until then; interrupting
it clears the clipboard early.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, ok := copyKinds[field]
			if !ok {
				return fmt.Errorf("invalid field: %s (valid values: id, password, login, otp)", field)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			ev, finish, err := a.do(ctx, kind, args[0], remote)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.ErrOrStderr(), ev.Message)
			finish(ctx)
			return nil
		},
	}

	cmd.Flags().StringVarP(&field, "field", "f", "password", "Field to copy: id, password, login or otp")
	cmd.Flags().BoolVar(&remote, "remote", false, "Ask the running pass-engine service instead of copying locally")
	return cmd
}

