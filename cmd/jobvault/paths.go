package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newPathsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "paths",
		Short: "Print the profile locations of the current user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "profile:  %s\n", a.profile.User)
			fmt.Fprintf(out, "database: %s\n", a.profile.DB)
			fmt.Fprintf(out, "config:   %s\n", a.profile.Config)
			fmt.Fprintf(out, "cache:    %s\n", a.profile.Cache)
			return nil
		},
	}
}
