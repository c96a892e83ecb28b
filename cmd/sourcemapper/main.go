// Command sourcemapper inspects Source Map v3 files and resolves generated
// positions to original ones.
//
// Usage:
//
//	sourcemapper lookup <map> <line> <column>
//	sourcemapper lookup <map> --generated <file> --offset <n>
//	sourcemapper mappings <map>
//	sourcemapper validate <map>
//	sourcemapper trace <map> [trace-file]
//	sourcemapper version
//
// Lines and columns are zero-based unless --one-based is given. Use "-" as
// the map path to read it from stdin.
//
// Config file:
//
//	sourcemapper looks for sourcemapper.json, .sourcemapperrc or
//	sourcemapper.yaml in the current directory and parent directories.
//	SOURCEMAPPER_* environment variables override the file and CLI flags
//	override both.
//
// Example sourcemapper.json:
//
//	{
//	    "logLevel": "info",
//	    "logFormat": "text",
//	    "strictVersion": true,
//	    "noColor": false
//	}
package main

import (
	"os"

	"github.com/fatih/color"
)

func main() {
	gs := newGlobalState()
	if err := newRootCmd(gs).Execute(); err != nil {
		red := color.New(color.FgRed)
		if gs.cfg.NoColor.Bool {
			red.DisableColor()
		}
		red.Fprintf(gs.stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
