package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/HugoDaniel/sourcemapper/internal/sourcemap"
	"github.com/HugoDaniel/sourcemapper/internal/stacktrace"
)

type traceFlags struct {
	file   string
	frames bool
}

func newTraceCmd(gs *globalState) *cobra.Command {
	var f traceFlags

	cmd := &cobra.Command{
		Use:   "trace <map> [trace-file]",
		Short: "Rewrite a stack trace from generated to original locations",
		Long: `Rewrite every file:line:column location of a stack trace that belongs to
the generated file of the map. The trace is read from trace-file, or from
stdin when it is omitted. Locations in traces are 1-based.`,
		Example: `  node app.min.js 2>&1 | sourcemapper trace app.min.js.map
  sourcemapper trace --file bundle.js bundle.js.map crash.txt`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(cmd, gs, &f, args)
		},
	}

	cmd.Flags().StringVar(&f.file, "file", "", "Generated file name to match (default: the map's \"file\" field)")
	cmd.Flags().BoolVar(&f.frames, "frames", false, "List resolved frames instead of rewriting the trace")

	return cmd
}

func runTrace(cmd *cobra.Command, gs *globalState, f *traceFlags, args []string) error {
	mapText, err := gs.readInput(args[0])
	if err != nil {
		return err
	}

	opts := []sourcemap.Option{sourcemap.WithLogger(gs.logger)}
	if gs.cfg.StrictVersion.Bool {
		opts = append(opts, sourcemap.WithStrictVersion())
	}
	cache, err := sourcemap.Consume(mapText, opts...)
	if err != nil {
		return fmt.Errorf("loading %s: %w", args[0], err)
	}

	tracePath := "-"
	if len(args) == 2 {
		tracePath = args[1]
	}
	trace, err := gs.readInput(tracePath)
	if err != nil {
		return err
	}

	rwOpts := []stacktrace.Option{stacktrace.WithLogger(gs.logger)}
	if f.file != "" {
		rwOpts = append(rwOpts, stacktrace.WithFile(f.file))
	}
	rw, err := stacktrace.New(cache, rwOpts...)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if f.frames {
		frames, err := rw.Frames(trace)
		if err != nil {
			return err
		}
		for _, frame := range frames {
			orig, ok := rw.Resolve(frame)
			if !ok {
				fmt.Fprintf(out, "%s -> %s\n", frame, gs.styles.dim.Sprint("(unresolved)"))
				continue
			}
			line := fmt.Sprintf("%s -> %s", frame, gs.styles.source.Sprint(orig))
			if orig.Name != "" {
				line += " " + gs.styles.name.Sprintf("(%s)", orig.Name)
			}
			fmt.Fprintln(out, line)
		}
		return nil
	}

	rewritten, err := rw.Rewrite(trace)
	if err != nil {
		return err
	}
	fmt.Fprint(out, rewritten)
	return nil
}
