package fastimport

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestByteCounterTracksReads(t *testing.T) {
	c := NewByteCounter(strings.NewReader("Hello, world!"))
	buf := make([]byte, 5)
	n, err := c.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.EqualValues(t, 5, c.Total())

	_, err = c.Read(buf)
	require.NoError(t, err)
	assert.EqualValues(t, 10, c.Total())
}

func TestByteCounterHumanized(t *testing.T) {
	c := NewByteCounter(strings.NewReader(strings.Repeat("x", 2048)))
	buf := make([]byte, 2048)
	_, err := c.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "2.0 kB", c.Humanized())
}

func TestCommandTallyCounts(t *testing.T) {
	tally := NewCommandTally()
	tally.Observe(CommandKind(&Blob{}))
	tally.Observe(CommandKind(&Blob{}))
	tally.Observe(CommandKind(&Commit{}))

	assert.EqualValues(t, 3, tally.Total())
	counts := tally.Counts()
	assert.EqualValues(t, 2, counts["blob"])
	assert.EqualValues(t, 1, counts["commit"])
}

func TestCommandKindCoversEveryVariant(t *testing.T) {
	cases := []struct {
		cmd  Command
		kind string
	}{
		{&Blob{}, "blob"},
		{&Commit{}, "commit"},
		{&Tag{}, "tag"},
		{&Reset{}, "reset"},
		{&Ls{}, "ls"},
		{&CatBlob{}, "cat-blob"},
		{&GetMark{}, "get-mark"},
		{&Checkpoint{}, "checkpoint"},
		{&Done{}, "done"},
		{&Alias{}, "alias"},
		{&Progress{}, "progress"},
		{&Feature{}, "feature"},
		{&OptionGit{}, "option-git"},
		{&OptionOther{}, "option-other"},
	}
	for _, c := range cases {
		assert.Equal(t, c.kind, CommandKind(c.cmd))
	}
}
