package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/skdltmxn/dbgtypes/debuginfo"
)

type walkEntry struct {
	Path    string `yaml:"path"`
	Address uint64 `yaml:"address"`
	Size    uint64 `yaml:"size"`
	Kind    string `yaml:"kind"`
	Type    string `yaml:"type,omitempty"`
}

func (c *cli) walkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "walk <file> <variable>",
		Short: "Expand a variable into its members and array elements",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			style, err := debuginfo.ParseArrayStyle(c.cfg.ArrayStyle)
			if err != nil {
				return err
			}
			data, err := c.load(args[0])
			if err != nil {
				return err
			}
			vars, ok := data.LookupVariable(args[1])
			if !ok {
				return fmt.Errorf("variable %q not found", args[1])
			}

			var entries []walkEntry
			for _, v := range vars {
				root, ok := data.LookupType(v.TypeID)
				if !ok {
					continue
				}
				entries = append(entries, walkEntry{
					Path:    args[1],
					Address: v.Address,
					Size:    debuginfo.Deref(data.Types, root).Size(),
					Kind:    debuginfo.KindName(root.DataType),
					Type:    root.Name,
				})
				err := debuginfo.Walk(data.Types, root, args[1], style,
					func(path string, t debuginfo.TypeRecord, offset uint64) error {
						entries = append(entries, walkEntry{
							Path:    path,
							Address: v.Address + offset,
							Size:    t.Size(),
							Kind:    debuginfo.KindName(t.DataType),
							Type:    t.Name,
						})
						return nil
					})
				if err != nil {
					return err
				}
			}
			if c.yaml() {
				return c.writeYAML(entries)
			}

			for _, e := range entries {
				fmt.Fprintf(c.output, "0x%016X %-6d %-10s %s", e.Address, e.Size, e.Kind, e.Path)
				if e.Type != "" {
					fmt.Fprintf(c.output, " : %s", e.Type)
				}
				fmt.Fprintln(c.output)
			}
			return nil
		},
	}
}
