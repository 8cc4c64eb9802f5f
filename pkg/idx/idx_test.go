package idx

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Parallel()

	a := New()
	b := New()
	require.Len(t, a.String(), 26)
	require.NotEqual(t, a, b)
	require.False(t, a.IsZero())
}

func TestNewAtOrdering(t *testing.T) {
	t.Parallel()

	earlier := NewAt(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	later := NewAt(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	require.Less(t, earlier.String(), later.String())
}

func TestParse(t *testing.T) {
	t.Parallel()

	id := New()
	parsed, err := Parse(id.String())
	require.NoError(t, err)
	require.Equal(t, id, parsed)

	for _, bad := range []string{"", "   ", "not-a-ulid", "0123456789"} {
		_, err := Parse(bad)
		require.ErrorIs(t, err, ErrInvalid, "input %q", bad)
	}
}

func TestConcurrentGeneration(t *testing.T) {
	t.Parallel()

	const n = 200
	var wg sync.WaitGroup
	ids := make([]ID, n)
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ids[i] = New()
		}()
	}
	wg.Wait()

	seen := make(map[ID]struct{}, n)
	for _, id := range ids {
		require.NotContains(t, seen, id)
		seen[id] = struct{}{}
	}
}
