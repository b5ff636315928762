package http2

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStreamTableInsertKeepsSortedOrder(t *testing.T) {
	var st streamTable

	for _, id := range []uint32{5, 1, 3, 7} {
		s := NewStream(0, 0)
		s.SetID(id)
		st.Insert(s)
	}

	var ids []uint32
	for _, s := range st.All() {
		ids = append(ids, s.ID())
	}
	assert.Equal(t, []uint32{1, 3, 5, 7}, ids)
}

func TestStreamTableGetAndDel(t *testing.T) {
	var st streamTable

	s1 := NewStream(0, 0)
	s1.SetID(1)
	s3 := NewStream(0, 0)
	s3.SetID(3)
	st.Insert(s1)
	st.Insert(s3)

	assert.Same(t, s1, st.Get(1))
	assert.Nil(t, st.Get(2))

	removed := st.Del(1)
	assert.Same(t, s1, removed)
	assert.Nil(t, st.Get(1))
	assert.Equal(t, 1, st.Len())

	assert.Nil(t, st.Del(99))
}
