package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/go-sscp/go-sscp/vlist"
)

func newVarsCmd() *cobra.Command {
	var filter string

	cmd := &cobra.Command{
		Use:   "vars <file.vlist>",
		Short: "List the variables of a .vlist file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := vlist.LoadCatalog(args[0])
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tUID\tTYPE\tOFFSET\tLENGTH\tSUPPORTED")
			for _, e := range cat.Entries() {
				if filter != "" && !strings.Contains(strings.ToLower(e.Name), strings.ToLower(filter)) {
					continue
				}
				fmt.Fprintf(w, "%s\t%d\t%s\t%d\t%d\t%t\n",
					e.Name, e.Variable.UID, e.TypeName, e.Variable.Offset, e.Variable.Length, e.Supported())
			}

			return w.Flush()
		},
	}

	cmd.Flags().StringVarP(&filter, "filter", "f", "", "only list names containing this text")

	return cmd
}
