package id_test

import (
	"regexp"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/cineverse/pkg/id"
)

var crockford = regexp.MustCompile(`^[0-9A-HJKMNP-TV-Z]+$`)

func TestULID(t *testing.T) {
	t.Parallel()

	t.Run("format", func(t *testing.T) {
		t.Parallel()
		v := id.NewULID()
		require.Len(t, v, id.ULIDLength)
		assert.Regexp(t, crockford, v)
		assert.NotEqual(t, v, id.NewULID())
	})

	t.Run("epoch prefix", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "0000000000", id.ULIDAt(time.UnixMilli(0))[:10])
		assert.Equal(t, "0000000001", id.ULIDAt(time.UnixMilli(1))[:10])
		assert.Equal(t, "000000000Z", id.ULIDAt(time.UnixMilli(31))[:10])
	})

	t.Run("sorted by time", func(t *testing.T) {
		t.Parallel()
		base := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
		ids := make([]string, 0, 50)
		for i := range 50 {
			ids = append(ids, id.ULIDAt(base.Add(time.Duration(i)*time.Millisecond)))
		}
		assert.True(t, sort.StringsAreSorted(ids))
	})
}

func TestRandom(t *testing.T) {
	t.Parallel()

	assert.Empty(t, id.Random(0))
	v := id.Random(6)
	require.Len(t, v, 6)
	assert.Regexp(t, crockford, v)
}
