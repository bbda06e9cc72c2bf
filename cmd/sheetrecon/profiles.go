package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (a *app) profilesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "profiles",
		Short: "List configured ledger profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, name := range a.cfg.ProfileNames() {
				p, err := a.cfg.Profile(name)
				if err != nil {
					return err
				}
				marker := " "
				if name == a.cfg.DefaultProfile {
					marker = "*"
				}
				fmt.Fprintf(out, "%s %-10s encoding=%s delimiter=%q\n", marker, name, p.Encoding, p.Delimiter)
				fmt.Fprintf(out, "    destination=%s item_code=%s quantity=%s\n",
					p.DestinationColumn, p.ItemCodeColumn, p.QuantityColumn)
			}
			return nil
		},
	}
}
