package seed

import (
	"io"
	"strings"
	"testing"

	"github.com/poiesic/podsearch/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleJSONL = `{"id":"f1","episode_id":"ep-1","text":"first fragment","start":0,"end":10.5}

{"id":"f2","episode_id":"ep-1","text":"second fragment","start":10.5,"end":20,"metadata":{"speaker":"host"}}
{"id":"f3","episode_id":"ep-2","text":"third fragment","start":0,"end":8}
`

func TestFragmentReader(t *testing.T) {
	t.Run("reads fragments skipping blank lines", func(t *testing.T) {
		reader := NewFragmentReader(strings.NewReader(sampleJSONL))

		first, err := reader.Next()
		require.NoError(t, err)
		assert.Equal(t, "f1", first.Id)
		assert.Equal(t, "ep-1", first.SourceDocumentId)
		assert.Equal(t, 10.5, first.EndOffset)

		second, err := reader.Next()
		require.NoError(t, err)
		assert.Equal(t, "f2", second.Id)
		assert.Equal(t, "host", second.Metadata["speaker"])

		third, err := reader.Next()
		require.NoError(t, err)
		assert.Equal(t, "f3", third.Id)

		_, err = reader.Next()
		assert.Equal(t, io.EOF, err)
	})

	t.Run("malformed line", func(t *testing.T) {
		reader := NewFragmentReader(strings.NewReader("not json\n"))
		_, err := reader.Next()
		assert.ErrorIs(t, err, ErrMalformedRecord)
	})

	t.Run("invalid fragment", func(t *testing.T) {
		reader := NewFragmentReader(strings.NewReader(`{"id":"f1","episode_id":"ep-1","text":"","start":0,"end":1}` + "\n"))
		_, err := reader.Next()
		assert.ErrorIs(t, err, core.ErrEmptyFragmentText)
	})

	t.Run("skip for resume", func(t *testing.T) {
		reader := NewFragmentReader(strings.NewReader(sampleJSONL))

		skipped, err := reader.Skip(2)
		require.NoError(t, err)
		assert.Equal(t, uint64(2), skipped)

		next, err := reader.Next()
		require.NoError(t, err)
		assert.Equal(t, "f3", next.Id)
	})

	t.Run("skip past end", func(t *testing.T) {
		reader := NewFragmentReader(strings.NewReader(sampleJSONL))

		skipped, err := reader.Skip(10)
		require.NoError(t, err)
		assert.Equal(t, uint64(3), skipped)

		_, err = reader.Next()
		assert.Equal(t, io.EOF, err)
	})
}
