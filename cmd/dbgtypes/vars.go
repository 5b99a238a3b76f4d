package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

type varEntry struct {
	Name       string   `yaml:"name"`
	Address    uint64   `yaml:"address"`
	Type       string   `yaml:"type"`
	TypeID     uint64   `yaml:"type_id"`
	Size       uint64   `yaml:"size"`
	Unit       string   `yaml:"unit,omitempty"`
	Function   string   `yaml:"function,omitempty"`
	Namespaces []string `yaml:"namespaces,omitempty"`
}

func (c *cli) varsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "vars <file>",
		Short: "List global and static variables",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := c.load(args[0])
			if err != nil {
				return err
			}

			var entries []varEntry
			for pair := data.Variables.Oldest(); pair != nil; pair = pair.Next() {
				for _, v := range pair.Value {
					t, _ := data.LookupType(v.TypeID)
					unit, _ := data.SimpleUnitName(v.Unit)
					entries = append(entries, varEntry{
						Name:       pair.Key,
						Address:    v.Address,
						Type:       typeName(data, v.TypeID),
						TypeID:     uint64(v.TypeID),
						Size:       t.Size(),
						Unit:       unit,
						Function:   v.Function,
						Namespaces: v.Namespaces,
					})
				}
			}
			if c.yaml() {
				return c.writeYAML(entries)
			}

			fmt.Fprintf(c.output, "%-18s %-8s %-24s %s\n", "ADDRESS", "SIZE", "TYPE", "NAME")
			fmt.Fprintf(c.output, "%s\n", strings.Repeat("-", 80))
			for _, e := range entries {
				name := e.Name
				if len(e.Namespaces) > 0 {
					name = strings.Join(e.Namespaces, "::") + "::" + name
				}
				if e.Function != "" {
					name += " (in " + e.Function + ")"
				}
				if e.Unit != "" {
					name += " [" + e.Unit + "]"
				}
				fmt.Fprintf(c.output, "0x%016X %-8d %-24s %s\n", e.Address, e.Size, e.Type, name)
			}
			fmt.Fprintf(c.output, "\nTotal: %d variables\n", len(entries))
			return nil
		},
	}
}
