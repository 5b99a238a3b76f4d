package main

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/skdltmxn/dbgtypes/debuginfo"
)

type typeEntry struct {
	ID     uint64 `yaml:"id"`
	Name   string `yaml:"name,omitempty"`
	Kind   string `yaml:"kind"`
	Size   uint64 `yaml:"size"`
	Unit   int    `yaml:"unit"`
	Detail string `yaml:"detail"`
}

func (c *cli) typesCmd() *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "types <file>",
		Short: "List the resolved type table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := c.load(args[0])
			if err != nil {
				return err
			}

			var records []debuginfo.TypeRecord
			if name != "" {
				records = data.TypesByName(name)
			} else {
				for _, t := range data.Types {
					records = append(records, t)
				}
				slices.SortFunc(records, func(a, b debuginfo.TypeRecord) int {
					return cmp.Compare(a.ID, b.ID)
				})
			}

			entries := make([]typeEntry, 0, len(records))
			for _, t := range records {
				detail := "-"
				if t.DataType != nil {
					detail = fmt.Sprint(t.DataType)
				}
				entries = append(entries, typeEntry{
					ID:     uint64(t.ID),
					Name:   t.Name,
					Kind:   debuginfo.KindName(t.DataType),
					Size:   t.Size(),
					Unit:   t.Unit,
					Detail: detail,
				})
			}
			if c.yaml() {
				return c.writeYAML(entries)
			}

			fmt.Fprintf(c.output, "%-10s %-10s %-8s %-24s %s\n", "ID", "KIND", "SIZE", "NAME", "DETAIL")
			fmt.Fprintf(c.output, "%s\n", strings.Repeat("-", 80))
			for _, e := range entries {
				n := e.Name
				if n == "" {
					n = "<anonymous>"
				}
				fmt.Fprintf(c.output, "0x%08X %-10s %-8d %-24s %s\n", e.ID, e.Kind, e.Size, n, e.Detail)
			}
			fmt.Fprintf(c.output, "\nTotal: %d types\n", len(entries))
			return nil
		},
	}
	cmd.Flags().StringVarP(&name, "name", "n", "", "only show types with this name")
	return cmd
}
