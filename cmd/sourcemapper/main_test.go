package main

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/HugoDaniel/sourcemapper/internal/config"
)

// Line 0: 0 -> a.js 0:0, 5 -> a.js 0:1, 9 -> a.js 0:3
// Line 2: 3 -> b.js 1:4 (bar), 15 -> b.js 1:15
// Line 3: 0 -> b.js 2:7 (foo)
const testMap = `{
	"version": 3,
	"file": "min.js",
	"sources": ["a.js", "b.js"],
	"names": ["foo", "bar"],
	"mappings": "AAAA,KAAC,IAAE;;GCCCC,YAAW;AACRD"
}`

type testState struct {
	*globalState
	stderr *bytes.Buffer
	env    map[string]string
}

func newTestState(t *testing.T, files map[string]string) *testState {
	t.Helper()

	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/work", 0o755))
	for path, content := range files {
		require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0o644))
	}

	ts := &testState{
		stderr: &bytes.Buffer{},
		// NO_COLOR keeps output free of escape codes
		env: map[string]string{"NO_COLOR": ""},
	}

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	ts.globalState = &globalState{
		fs:    fs,
		getwd: func() (string, error) { return "/work", nil },
		lookupEnv: func(key string) (string, bool) {
			v, ok := ts.env[key]
			return v, ok
		},
		stdin:  strings.NewReader(""),
		stderr: ts.stderr,
		cfg:    config.NewConfig(),
		logger: logger,
		styles: newStyles(false),
	}
	return ts
}

func (ts *testState) execute(args ...string) (string, error) {
	var out bytes.Buffer
	cmd := newRootCmd(ts.globalState)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}
