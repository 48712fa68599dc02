package executor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDefaultToolSetExcludesOptional(t *testing.T) {
	require := require.New(t)
	ts := DefaultToolSet()
	require.True(ts.Contains("find_symbol"))
	require.True(ts.Contains("replace_symbol_body"))
	require.False(ts.Contains("request_workspace_symbol"))
}

func TestDeriveActivationIncludesOptional(t *testing.T) {
	require := require.New(t)
	ts, err := DeriveActivation([]ToolInclusionDefinition{
		{IncludedOptionalTools: []string{"request_workspace_symbol"}},
	}, false)
	require.NoError(err)
	require.True(ts.Contains("request_workspace_symbol"))
}

func TestDeriveActivationExcludesTool(t *testing.T) {
	require := require.New(t)
	ts, err := DeriveActivation([]ToolInclusionDefinition{
		{ExcludedTools: []string{"delete_symbol"}},
	}, false)
	require.NoError(err)
	require.False(ts.Contains("delete_symbol"))
}

func TestDeriveActivationUnknownToolIsError(t *testing.T) {
	require := require.New(t)
	_, err := DeriveActivation([]ToolInclusionDefinition{
		{ExcludedTools: []string{"not_a_real_tool"}},
	}, false)
	require.Error(err)
}

func TestDeriveActivationReadOnlyStripsEditing(t *testing.T) {
	require := require.New(t)
	ts, err := DeriveActivation(nil, true)
	require.NoError(err)
	require.False(ts.Contains("replace_symbol_body"))
	require.False(ts.Contains("delete_lines"))
	require.True(ts.Contains("find_symbol"))
}

func TestValidateTimeouts(t *testing.T) {
	require := require.New(t)
	require.NoError(ValidateTimeouts(240*time.Second, 235*time.Second))
	require.Error(ValidateTimeouts(5*time.Second, 1*time.Second))
	require.Error(ValidateTimeouts(240*time.Second, 236*time.Second))
}
