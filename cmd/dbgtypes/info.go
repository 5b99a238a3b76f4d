package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/skdltmxn/dbgtypes/loader"
)

type infoReport struct {
	File        string `yaml:"file"`
	Format      string `yaml:"format"`
	Units       int    `yaml:"units"`
	Variables   int    `yaml:"variables"`
	Types       int    `yaml:"types"`
	Sections    int    `yaml:"sections"`
	Diagnostics int    `yaml:"diagnostics"`
}

func (c *cli) infoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info <file>",
		Short: "Display container kind and table sizes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := loader.Detect(args[0])
			if err != nil {
				return err
			}
			data, err := c.load(args[0])
			if err != nil {
				return err
			}

			units := 0
			for _, u := range data.UnitNames {
				if u != "" {
					units++
				}
			}
			r := infoReport{
				File:        args[0],
				Format:      format.String(),
				Units:       units,
				Variables:   data.Variables.Len(),
				Types:       len(data.Types),
				Sections:    len(data.Sections),
				Diagnostics: len(data.Diagnostics),
			}
			if c.yaml() {
				return c.writeYAML(r)
			}

			fmt.Fprintf(c.output, "File: %s\n", r.File)
			fmt.Fprintf(c.output, "Format: %s\n", r.Format)
			fmt.Fprintf(c.output, "Units: %d\n", r.Units)
			fmt.Fprintf(c.output, "Variables: %d\n", r.Variables)
			fmt.Fprintf(c.output, "Types: %d\n", r.Types)
			fmt.Fprintf(c.output, "Sections: %d\n", r.Sections)
			fmt.Fprintf(c.output, "Diagnostics: %d\n", r.Diagnostics)
			return nil
		},
	}
}
