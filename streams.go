package http2

import "sort"

// streamTable keeps the connection's live streams sorted by id, so
// lookup, insertion, and deletion on frame dispatch are all O(log n)
// plus a slice shift — the same scheme the teacher's Streams type used,
// generalized to carry *Stream instead of the legacy Frame-era type.
type streamTable struct {
	list []*Stream
}

func (t *streamTable) Insert(s *Stream) {
	i := sort.Search(len(t.list), func(i int) bool {
		return t.list[i].id >= s.id
	})

	if i == len(t.list) {
		t.list = append(t.list, s)
		return
	}

	t.list = append(t.list, nil)
	copy(t.list[i+1:], t.list[i:])
	t.list[i] = s
}

func (t *streamTable) Del(id uint32) *Stream {
	i := sort.Search(len(t.list), func(i int) bool {
		return t.list[i].id >= id
	})

	if i < len(t.list) && t.list[i].id == id {
		s := t.list[i]
		t.list = append(t.list[:i], t.list[i+1:]...)
		return s
	}

	return nil
}

func (t *streamTable) Get(id uint32) *Stream {
	i := sort.Search(len(t.list), func(i int) bool {
		return t.list[i].id >= id
	})

	if i < len(t.list) && t.list[i].id == id {
		return t.list[i]
	}

	return nil
}

func (t *streamTable) All() []*Stream {
	return t.list
}

func (t *streamTable) Len() int {
	return len(t.list)
}
