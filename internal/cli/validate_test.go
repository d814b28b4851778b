package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_AllScenarios(t *testing.T) {
	paths := allScenarios(t)
	out, err := execute(t, append([]string{"validate"}, paths...)...)
	require.NoError(t, err)
	for _, p := range paths {
		assert.Contains(t, out, "✓ "+p)
	}
}

func TestValidate_InvalidFile(t *testing.T) {
	dir := t.TempDir()
	bad := writeFile(t, dir, "bad.yaml", "name: x\ndescription: d\nsource: { slides: [{ title: A }] }\nassertions: [{ type: vibes }]\n")

	out, err := execute(t, "validate", "--format", "json", scenario("intro_ink"), bad)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var result ValidationResult
	status, failure := decodeData(t, out, &result)
	assert.Equal(t, "error", status)
	require.NotNil(t, failure)
	assert.Equal(t, ErrCodeValidateFailed, failure.Code)
	assert.False(t, result.Valid)
	require.Len(t, result.Files, 2)
	assert.True(t, result.Files[0].Valid)
	assert.Equal(t, "intro_ink", result.Files[0].Name)
	assert.False(t, result.Files[1].Valid)
	assert.Contains(t, result.Files[1].Error, `unknown type "vibes"`)
}

func TestValidate_NothingToValidate(t *testing.T) {
	out, err := execute(t, "validate")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E005]")
}
