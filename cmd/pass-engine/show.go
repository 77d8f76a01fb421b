package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nikicat/pass-engine/internal/dispatch"
)

func newShowCmd(a *app) *cobra.Command {
	var remote bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Print the decrypted entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ev, finish, err := a.do(cmd.Context(), dispatch.FetchEntry, args[0], remote)
			if err != nil {
				return err
			}
			defer finish(cmd.Context())

			out := ev.Value
			if !strings.HasSuffix(out, "\n") {
				out += "\n"
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), out)
			return err
		},
	}

	cmd.Flags().BoolVar(&remote, "remote", false, "Ask the running pass-engine service instead of decrypting locally")
	return cmd
}
