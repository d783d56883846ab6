package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newWriteCmd(gf *globalFlags) *cobra.Command {
	vf := &varFlags{}

	cmd := &cobra.Command{
		Use:   "write [name] <value>",
		Short: "Write a single variable",
		Example: `  # Write an INT by UID
  sscpctl write --host 192.168.1.10 -u admin -p rw --uid 42 --type INT -- -15

  # Write a BOOL of a .vlist file by name
  sscpctl write --host 192.168.1.10 -u admin -p rw --vlist boiler.vlist PumpRunning true`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := gf.settings(cmd)
			if err != nil {
				return err
			}

			name, value := "", args[0]
			if len(args) == 2 {
				name, value = args[0], args[1]
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

			if err := c.WriteVariable(ctx, v, value); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s to %s\n", value, v)

			return nil
		},
	}

	vf.register(cmd)

	return cmd
}
