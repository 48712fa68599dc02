package ignore

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsIgnoredHiddenDir(t *testing.T) {
	require := require.New(t)
	s := New(nil, false, nil)
	require.True(s.IsIgnored(".git/config"))
	require.True(s.IsIgnored("node_modules/foo/index.js"))
	require.False(s.IsIgnored("src/main.go"))
}

func TestIsIgnoredPattern(t *testing.T) {
	require := require.New(t)
	s := New([]string{"vendor/**", "*.pb.go"}, false, nil)
	require.True(s.IsIgnored("vendor/github.com/foo/bar.go"))
	require.True(s.IsIgnored("api.pb.go"))
	require.False(s.IsIgnored("main.go"))
}

func TestIsIgnoredUnsupportedFiles(t *testing.T) {
	require := require.New(t)
	s := New(nil, true, []string{"*.go"})
	require.False(s.IsIgnored("main.go"))
	require.True(s.IsIgnored("README.md"))
}
