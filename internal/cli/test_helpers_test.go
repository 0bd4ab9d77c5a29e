package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

// newTestOptions returns options backed by a temp config with a temp store,
// 1ms playback holds and quiet logging.
func newTestOptions(t *testing.T) *RootOptions {
	t.Helper()
	dir := t.TempDir()

	body := fmt.Sprintf(`[store]
path = %q

[player]
ramp_up_ms = 1
ramp_down_ms = 1
audio_missing_hold_ms = 1

[bundle]
output = %q

[logging]
level = "error"
`, filepath.Join(dir, "reel.db"), filepath.Join(dir, "out", "bundle.json"))

	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return &RootOptions{Format: "text", ConfigPath: path}
}

// execute runs a subcommand built from opts and returns its stdout.
func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// importFixture imports a testdata fixture into the options' store.
func importFixture(t *testing.T, opts *RootOptions, name string) {
	t.Helper()
	_, err := execute(t, NewImportCommand(opts), filepath.Join("testdata", name))
	require.NoError(t, err)
}

// decodeData decodes a JSON CLIResponse and its data payload into data.
func decodeData(t *testing.T, out string, data any) CLIResponse {
	t.Helper()
	var raw struct {
		Status string          `json:"status"`
		Data   json.RawMessage `json:"data"`
		Error  *CLIError       `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &raw), out)
	if data != nil && raw.Data != nil {
		require.NoError(t, json.Unmarshal(raw.Data, data))
	}
	return CLIResponse{Status: raw.Status, Error: raw.Error}
}
