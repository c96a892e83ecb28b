package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"

	"github.com/HugoDaniel/sourcemapper/internal/diagnostic"
	"github.com/HugoDaniel/sourcemapper/internal/sourcemap"
)

type validateFlags struct {
	failOnWarnings bool
}

func newValidateCmd(gs *globalState) *cobra.Command {
	var f validateFlags

	cmd := &cobra.Command{
		Use:   "validate <map>",
		Short: "Check that a source map decodes and report suspicious mappings",
		Long: `Decode a source map and report the first error with its location in
"mappings". Maps that decode are linted for source and name indexes outside
their tables.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, gs, &f, args)
		},
	}

	cmd.Flags().BoolVar(&f.failOnWarnings, "fail-on-warnings", false, "Exit with an error when warnings are reported")

	return cmd
}

func runValidate(cmd *cobra.Command, gs *globalState, f *validateFlags, args []string) error {
	path := args[0]
	text, err := gs.readInput(path)
	if err != nil {
		return err
	}

	opts := []sourcemap.Option{sourcemap.WithLogger(gs.logger)}
	if gs.cfg.StrictVersion.Bool {
		opts = append(opts, sourcemap.WithStrictVersion())
	}

	out := cmd.OutOrStdout()
	list := diagnostic.NewList(gjson.Get(text, "mappings").String())

	cache, err := sourcemap.Consume(text, opts...)
	if err != nil {
		list.AddError(err)
		fmt.Fprint(out, gs.styles.error.Sprint(list.Format()))
		return fmt.Errorf("%s is not a valid source map", path)
	}

	diagnostic.Lint(list, cache)
	if list.WarningCount() > 0 {
		fmt.Fprint(out, gs.styles.warning.Sprint(list.Format()))
	}

	fmt.Fprintf(out, "%s %s: %d mappings on %d lines, %d sources, %d names\n",
		gs.styles.ok.Sprint("ok"), path, cache.Len(), cache.Lines(), len(cache.Sources()), len(cache.Names()))

	if f.failOnWarnings && list.WarningCount() > 0 {
		return fmt.Errorf("%d warning(s)", list.WarningCount())
	}
	return nil
}
