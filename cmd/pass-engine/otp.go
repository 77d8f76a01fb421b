package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nikicat/pass-engine/internal/dispatch"
)

func newOTPCmd(a *app) *cobra.Command {
	var remote bool

	cmd := &cobra.Command{
		Use:   "otp <id>",
		Short: "Print the current one-time password of an entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ev, finish, err := a.do(cmd.Context(), dispatch.FetchOTP, args[0], remote)
			if err != nil {
				return err
			}
			defer finish(cmd.Context())

			_, err = fmt.Fprintln(cmd.OutOrStdout(), ev.Value)
			return err
		},
	}

	cmd.Flags().BoolVar(&remote, "remote", false, "Ask the running pass-engine service instead of decrypting locally")
	return cmd
}
