package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const scenarioDir = "../harness/testdata/scenarios"

// execute runs the root command with args and returns stdout and the error.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

// decodeData unmarshals the data field of a JSON CLIResponse.
func decodeData(t *testing.T, out string, v any) (status string, failure *CLIError) {
	t.Helper()
	var resp struct {
		Status string          `json:"status"`
		Data   json.RawMessage `json:"data"`
		Error  *CLIError       `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
	if v != nil && len(resp.Data) > 0 {
		require.NoError(t, json.Unmarshal(resp.Data, v))
	}
	return resp.Status, resp.Error
}

func scenario(name string) string {
	return filepath.Join(scenarioDir, name+".yaml")
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const failingScenario = `
name: wrong_count
description: "asserts a stroke count that cannot hold"
source:
  slides:
    - title: Intro
      sheets: [{ name: ink, kind: ink }]
destination:
  slides: [{ title: Intro }]
steps:
  - { action: add_stroke, slide: Intro, sheet: ink, dots: 2 }
assertions:
  - { type: stroke_count, slide: Intro, index: 0, count: 9 }
`
