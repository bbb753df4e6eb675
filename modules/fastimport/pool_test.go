package fastimport

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBufPoolTruncateAndReuse(t *testing.T) {
	pool := newBufPool()

	b1 := pool.pushBack()
	*b1 = append(*b1, '1')
	b2 := pool.pushBack()
	*b2 = append(*b2, '2')
	b3 := pool.pushBack()
	*b3 = append(*b3, '3')

	pool.truncateBack(2)

	b4 := pool.pushBack()
	assert.GreaterOrEqual(t, cap(*b4), 1)
	*b4 = append(*b4, '4')

	var got []string
	pool.iterFunc(func(b []byte) { got = append(got, string(b)) })
	assert.Equal(t, []string{"2", "3", "4"}, got)
}

func TestBufPoolRecyclesFreedBuffers(t *testing.T) {
	pool := newBufPool()
	for i := 0; i < 5; i++ {
		buf := pool.pushBack()
		*buf = append(*buf, byte('a'+i))
	}
	pool.truncateBack(0)
	assert.Equal(t, 0, pool.len())
	assert.NotEmpty(t, pool.free)
}
