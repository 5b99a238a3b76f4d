package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (c *cli) diagCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "diag <file>",
		Short: "List diagnostics produced while building the type graph",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := c.load(args[0])
			if err != nil {
				return err
			}
			if c.yaml() {
				return c.writeYAML(data.Diagnostics)
			}
			for _, d := range data.Diagnostics {
				fmt.Fprintln(c.output, d)
			}
			return nil
		},
	}
}
