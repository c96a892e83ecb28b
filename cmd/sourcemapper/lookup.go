package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/HugoDaniel/sourcemapper/internal/sourcemap"
	"github.com/HugoDaniel/sourcemapper/pkg/api"
)

type lookupFlags struct {
	generated string
	offset    int
	oneBased  bool
	exact     bool
	jsonOut   bool
}

func newLookupCmd(gs *globalState) *cobra.Command {
	var f lookupFlags

	cmd := &cobra.Command{
		Use:   "lookup <map> [<line> <column>]",
		Short: "Resolve a generated position to its original location",
		Long: `Resolve a generated position to the nearest original location: the mapping
with the greatest generated position not after the query.

The position is given either as a line and column, or as a byte offset into
the generated file with --generated and --offset.`,
		Example: `  sourcemapper lookup app.min.js.map 0 1520
  sourcemapper lookup app.min.js.map --one-based 1 1521
  sourcemapper lookup app.min.js.map --generated app.min.js --offset 1520`,
		Args: cobra.RangeArgs(1, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLookup(cmd, gs, &f, args)
		},
	}

	cmd.Flags().StringVar(&f.generated, "generated", "", "Generated `file` used to convert --offset")
	cmd.Flags().IntVar(&f.offset, "offset", 0, "Byte offset in the generated file")
	cmd.Flags().BoolVar(&f.oneBased, "one-based", false, "Lines and columns are 1-based")
	cmd.Flags().BoolVar(&f.exact, "exact", false, "Only report a mapping starting exactly at the position")
	cmd.Flags().BoolVar(&f.jsonOut, "json", false, "Output as JSON")

	return cmd
}

func runLookup(cmd *cobra.Command, gs *globalState, f *lookupFlags, args []string) error {
	line, column, err := lookupPosition(cmd, gs, f, args)
	if err != nil {
		return err
	}

	cache, err := gs.loadMap(args[0])
	if err != nil {
		return err
	}

	var m api.Mapping
	if f.exact {
		var ok bool
		if m, ok = cache.LookupExact(line, column); !ok {
			return fmt.Errorf("no mapping starts at %d:%d", line, column)
		}
	} else {
		m = cache.Lookup(line, column)
	}

	gs.logger.WithField("mapping", m).Debug("Lookup")

	out := cmd.OutOrStdout()
	if f.jsonOut {
		return writeJSON(out, m)
	}
	fmt.Fprintln(out, formatMapping(gs.styles, m, f.oneBased))
	return nil
}

// lookupPosition returns the zero-based query position from the arguments.
func lookupPosition(cmd *cobra.Command, gs *globalState, f *lookupFlags, args []string) (uint32, uint32, error) {
	if cmd.Flags().Changed("offset") {
		if f.generated == "" {
			return 0, 0, errors.New("--offset requires --generated")
		}
		if len(args) != 1 {
			return 0, 0, errors.New("--offset takes no line and column arguments")
		}
		text, err := gs.readInput(f.generated)
		if err != nil {
			return 0, 0, err
		}
		p := sourcemap.NewLineIndex(text).PositionAt(f.offset)
		return p.Line, p.Column, nil
	}

	if len(args) != 3 {
		return 0, 0, errors.New("expected <map> <line> <column>")
	}
	line, err := parseCoordinate(args[1], f.oneBased)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid line: %w", err)
	}
	column, err := parseCoordinate(args[2], f.oneBased)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid column: %w", err)
	}
	return line, column, nil
}

func parseCoordinate(s string, oneBased bool) (uint32, error) {
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, err
	}
	if oneBased {
		if n == 0 {
			return 0, errors.New("1-based value cannot be 0")
		}
		n--
	}
	return uint32(n), nil
}

// formatMapping renders "gen -> source:line:column (name)".
func formatMapping(s *styles, m api.Mapping, oneBased bool) string {
	base := uint32(0)
	if oneBased {
		base = 1
	}

	gen := s.position.Sprintf("%d:%d", m.GeneratedLine+base, m.GeneratedColumn+base)
	if !m.HasSource() {
		return fmt.Sprintf("%s -> %s", gen, s.dim.Sprint("(no source)"))
	}

	source := m.Source
	if source == "" {
		source = fmt.Sprintf("<source #%d>", m.SourceIndex)
	}
	result := fmt.Sprintf("%s -> %s:%d:%d", gen, s.source.Sprint(source), m.OriginalLine+base, m.OriginalColumn+base)
	if m.Name != "" {
		result += " " + s.name.Sprintf("(%s)", m.Name)
	}
	return result
}

func writeJSON(out io.Writer, v any) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
