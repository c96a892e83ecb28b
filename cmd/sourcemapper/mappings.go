package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/HugoDaniel/sourcemapper/pkg/api"
)

type mappingsFlags struct {
	line     int
	oneBased bool
	jsonOut  bool
}

func newMappingsCmd(gs *globalState) *cobra.Command {
	var f mappingsFlags

	cmd := &cobra.Command{
		Use:   "mappings <map>",
		Short: "List every decoded mapping in generated order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMappings(cmd, gs, &f, args)
		},
	}

	cmd.Flags().IntVar(&f.line, "line", -1, "Only show mappings on this generated line")
	cmd.Flags().BoolVar(&f.oneBased, "one-based", false, "Print 1-based lines and columns")
	cmd.Flags().BoolVar(&f.jsonOut, "json", false, "Output as JSON")

	return cmd
}

func runMappings(cmd *cobra.Command, gs *globalState, f *mappingsFlags, args []string) error {
	cache, err := gs.loadMap(args[0])
	if err != nil {
		return err
	}

	all := cache.Mappings()
	mappings := make([]api.Mapping, 0, len(all))
	for _, m := range all {
		if f.line >= 0 && int64(m.GeneratedLine) != lineFilter(f) {
			continue
		}
		mappings = append(mappings, m)
	}

	out := cmd.OutOrStdout()
	if f.jsonOut {
		return writeJSON(out, mappings)
	}

	for _, m := range mappings {
		fmt.Fprintln(out, formatMapping(gs.styles, m, f.oneBased))
	}
	return nil
}

// lineFilter converts --line to a zero-based line.
func lineFilter(f *mappingsFlags) int64 {
	if f.oneBased {
		return int64(f.line) - 1
	}
	return int64(f.line)
}
