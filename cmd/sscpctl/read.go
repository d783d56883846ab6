package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newReadCmd(gf *globalFlags) *cobra.Command {
	vf := &varFlags{}

	cmd := &cobra.Command{
		Use:   "read [name]",
		Short: "Read a single variable",
		Example: `  # Read an INT by UID
  sscpctl read --host 192.168.1.10 -u admin -p rw --uid 42 --type INT

  # Read a variable of a .vlist file by name
  sscpctl read --host 192.168.1.10 -u admin -p rw --vlist boiler.vlist Temperature`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := gf.settings(cmd)
			if err != nil {
				return err
			}

			name := ""
			if len(args) > 0 {
				name = args[0]
			}

			v, err := resolveVariable(cmd, cfg, name, vf)
			if err != nil {
				return err
			}

			c, err := newClient(cfg, newLogger(cfg))
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			defer c.Close(ctx)

			val, err := c.ReadVariable(ctx, v)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), val)

			return nil
		},
	}

	vf.register(cmd)

	return cmd
}
