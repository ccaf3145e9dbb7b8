package helper

import (
	"bufio"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reader(s string) *bufio.Reader {
	return bufio.NewReader(strings.NewReader(s))
}

func TestReadLine_SplitsOnSingleSpaces(t *testing.T) {
	tokens, err := ReadLine(reader("fetch abc refs/heads/main\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"fetch", "abc", "refs/heads/main"}, tokens)
}

func TestReadLine_DropsEmptyTokens(t *testing.T) {
	tokens, err := ReadLine(reader("push  +src:dst \n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"push", "+src:dst"}, tokens)
}

func TestReadLine_EmptyLine(t *testing.T) {
	tokens, err := ReadLine(reader("\n"))
	require.NoError(t, err)
	assert.Empty(t, tokens)
}

func TestReadLine_EOF(t *testing.T) {
	_, err := ReadLine(reader(""))
	assert.Error(t, err)
}

func TestCollectFetchBatch(t *testing.T) {
	in := reader("fetch oidB refs/heads/vnext\n\n")
	batch, err := CollectFetchBatch(in, "oidA", "refs/heads/main")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"refs/heads/main":  "oidA",
		"refs/heads/vnext": "oidB",
	}, batch)
}

func TestCollectFetchBatch_SingleEntry(t *testing.T) {
	batch, err := CollectFetchBatch(reader("\n"), "oidA", "refs/heads/main")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"refs/heads/main": "oidA"}, batch)
}

func TestCollectFetchBatch_EOFTerminates(t *testing.T) {
	batch, err := CollectFetchBatch(reader(""), "oidA", "refs/heads/main")
	require.NoError(t, err)
	assert.Len(t, batch, 1)
}

func TestCollectFetchBatch_RejectsOtherCommands(t *testing.T) {
	_, err := CollectFetchBatch(reader("list\n"), "oidA", "refs/heads/main")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "only expecting another fetch or an empty line")
}

func TestCollectFetchBatch_RejectsMalformedFetch(t *testing.T) {
	_, err := CollectFetchBatch(reader("fetch justoneid\n"), "oidA", "refs/heads/main")
	assert.Error(t, err)
}

func TestCollectPushBatch(t *testing.T) {
	batch, err := CollectPushBatch(reader("push src2:dst2\n\n"), "src1:dst1")
	require.NoError(t, err)
	assert.Equal(t, []string{"src1:dst1", "src2:dst2"}, batch)
}

func TestCollectPushBatch_RejectsOtherCommands(t *testing.T) {
	_, err := CollectPushBatch(reader("fetch a b\n"), "src:dst")
	assert.Error(t, err)
}
