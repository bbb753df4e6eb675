package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunLintCountsCommands(t *testing.T) {
	input := "blob\nmark :1\ndata 5\nhello\ndone\n"
	var out strings.Builder
	err := runLint(&out, strings.NewReader(input), DefaultConfig)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "2 commands")
	assert.Contains(t, out.String(), "blob")
	assert.Contains(t, out.String(), "done")
}

func TestRunLintReportsParseError(t *testing.T) {
	input := "blob\nmark :0\n"
	var out strings.Builder
	err := runLint(&out, strings.NewReader(input), DefaultConfig)
	assert.Error(t, err)
}

func TestRunRoundtripReemitsBlob(t *testing.T) {
	input := "blob\nmark :7\ndata 5\nhello\n"
	var out strings.Builder
	err := runRoundtrip(&out, strings.NewReader(input), DefaultConfig)
	require.NoError(t, err)
	assert.Equal(t, "blob\nmark :7\ndata 5\nhello\n", out.String())
}

func TestRunRoundtripReemitsCommitWithChanges(t *testing.T) {
	input := "" +
		"commit refs/heads/main\n" +
		"committer Jane Doe <jane@example.com> 1700000000 +0000\n" +
		"data 7\ninitial\n" +
		"M 100644 :2 path/to/file.txt\n" +
		"deleteall\n"
	var out strings.Builder
	err := runRoundtrip(&out, strings.NewReader(input), DefaultConfig)
	require.NoError(t, err)
	got := out.String()
	assert.Contains(t, got, "commit refs/heads/main\n")
	assert.Contains(t, got, "data 7\ninitial\n")
	assert.Contains(t, got, "M 100644 :2 path/to/file.txt\n")
	assert.Contains(t, got, "deleteall\n")
}
