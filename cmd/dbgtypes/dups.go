package main

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/skdltmxn/dbgtypes/debuginfo"
)

type dupEntry struct {
	Name     string     `yaml:"name"`
	Variants []dupGroup `yaml:"variants"`
}

type dupGroup struct {
	Fingerprint string   `yaml:"fingerprint"`
	Size        uint64   `yaml:"size"`
	IDs         []uint64 `yaml:"ids"`
}

// conflicts groups the ids indexed under one name by structural fingerprint
// and returns the groups when the definitions really differ.
func conflicts(data *debuginfo.DebugData, ids []debuginfo.TypeID) []dupGroup {
	var (
		groups []dupGroup
		reps   []debuginfo.TypeRecord
	)
	for _, id := range ids {
		t, ok := data.LookupType(id)
		if !ok {
			continue
		}
		fp := fmt.Sprintf("%016x", debuginfo.Fingerprint(data.Types, t))
		i := slices.IndexFunc(groups, func(g dupGroup) bool { return g.Fingerprint == fp })
		if i < 0 {
			groups = append(groups, dupGroup{Fingerprint: fp, Size: t.Size()})
			reps = append(reps, t)
			i = len(groups) - 1
		}
		groups[i].IDs = append(groups[i].IDs, uint64(id))
	}
	if len(groups) < 2 {
		return nil
	}
	for _, r := range reps[1:] {
		if !debuginfo.Compare(reps[0], data.Types, r, data.Types) {
			return groups
		}
	}
	return nil
}

func (c *cli) dupsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dups <file>",
		Short: "Report names bound to structurally different types",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := c.load(args[0])
			if err != nil {
				return err
			}

			names := make([]string, 0, len(data.TypeNames))
			for name, ids := range data.TypeNames {
				if len(ids) > 1 {
					names = append(names, name)
				}
			}
			slices.Sort(names)

			var entries []dupEntry
			for _, name := range names {
				if groups := conflicts(data, data.TypeNames[name]); groups != nil {
					entries = append(entries, dupEntry{Name: name, Variants: groups})
				}
			}
			if c.yaml() {
				return c.writeYAML(entries)
			}

			for _, e := range entries {
				fmt.Fprintf(c.output, "%s\n", e.Name)
				for _, g := range e.Variants {
					fmt.Fprintf(c.output, "  %s size=%d ids=%#x\n", g.Fingerprint, g.Size, g.IDs)
				}
			}
			fmt.Fprintf(c.output, "\nTotal: %d conflicting names\n", len(entries))
			return nil
		},
	}
}
