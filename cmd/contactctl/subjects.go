package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/0xobelisk/dubhe-website-sub001/pkg/contactform"
	"github.com/spf13/cobra"
)

var subjectsCmd = &cobra.Command{
	Use:   "subjects",
	Short: "List the subject options offered by the website",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		for _, s := range contactform.Subjects() {
			fmt.Fprintf(w, "%s\t%s\n", s.Value, s.Label)
		}
		return w.Flush()
	},
}
