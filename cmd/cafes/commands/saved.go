package commands

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func savedCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "saved",
		Short: "Print the saved cafes",
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := list.Load(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(items)
			}
			if len(items) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No saved cafes yet.")
				return nil
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "#\tNAME\tRATING\tOPEN")
			for i, c := range items {
				open := "?"
				if c.OpenNow != nil {
					open = map[bool]string{true: "yes", false: "no"}[*c.OpenNow]
				}
				fmt.Fprintf(w, "%d\t%s\t%.1f\t%s\n", i+1, c.Name, c.Rating, open)
			}
			return w.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the raw list as JSON")
	return cmd
}
