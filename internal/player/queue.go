package player

import "slices"

// engineQueue is the engine's own ordered item list plus its shuffle order.
// It has no audio state and is shared by Player and Mock.
type engineQueue struct {
	items   []Item
	order   []int // permutation of item indices, current item first after reshuffle
	index   int   // current item index, -1 if none
	shuffle bool
	intn    func(n int) int
}

func newEngineQueue(intn func(n int) int) *engineQueue {
	return &engineQueue{index: -1, intn: intn}
}

func (q *engineQueue) set(items []Item, start int) error {
	if len(items) > 0 && (start < 0 || start >= len(items)) {
		return ErrIndexOutOfRange
	}
	q.items = slices.Clone(items)
	q.index = -1
	if len(q.items) > 0 {
		q.index = start
	}
	q.reshuffle()
	return nil
}

func (q *engineQueue) clear() {
	q.items = nil
	q.order = nil
	q.index = -1
}

// reshuffle builds a fresh random order with the current item first.
func (q *engineQueue) reshuffle() {
	n := len(q.items)
	q.order = make([]int, n)
	for i := range q.order {
		q.order[i] = i
	}
	for i := n - 1; i > 0; i-- {
		j := q.intn(i + 1)
		q.order[i], q.order[j] = q.order[j], q.order[i]
	}
	if q.index >= 0 {
		pos := slices.Index(q.order, q.index)
		q.order = slices.Delete(q.order, pos, pos+1)
		q.order = slices.Insert(q.order, 0, q.index)
	}
}

func (q *engineQueue) setShuffle(enabled bool) {
	if enabled && !q.shuffle {
		q.reshuffle()
	}
	q.shuffle = enabled
}

func (q *engineQueue) current() (Item, bool) {
	if q.index < 0 || q.index >= len(q.items) {
		return Item{}, false
	}
	return q.items[q.index], true
}

// insert places item at queue index i. In the shuffle order the new item
// lands at a random slot after the current item.
func (q *engineQueue) insert(i int, item Item) error {
	if i < 0 || i > len(q.items) {
		return ErrIndexOutOfRange
	}
	q.items = slices.Insert(q.items, i, item)
	for k, idx := range q.order {
		if idx >= i {
			q.order[k] = idx + 1
		}
	}
	if q.index >= i {
		q.index++
	}
	pos := -1
	if q.index >= 0 {
		pos = slices.Index(q.order, q.index)
	}
	slot := pos + 1 + q.intn(len(q.order)-pos)
	q.order = slices.Insert(q.order, slot, i)
	return nil
}

// remove deletes the item at i. Returns true if it was the current item;
// the current index then points at the item that followed it, or at the
// new last item when nothing followed.
func (q *engineQueue) remove(i int) (bool, error) {
	if i < 0 || i >= len(q.items) {
		return false, ErrIndexOutOfRange
	}
	q.items = slices.Delete(q.items, i, i+1)
	if pos := slices.Index(q.order, i); pos >= 0 {
		q.order = slices.Delete(q.order, pos, pos+1)
	}
	for k, idx := range q.order {
		if idx > i {
			q.order[k] = idx - 1
		}
	}

	wasCurrent := q.index == i
	switch {
	case len(q.items) == 0:
		q.index = -1
	case q.index > i:
		q.index--
	case wasCurrent && q.index >= len(q.items):
		q.index = len(q.items) - 1
	}
	return wasCurrent, nil
}

func (q *engineQueue) replace(i int, item Item) error {
	if i < 0 || i >= len(q.items) {
		return ErrIndexOutOfRange
	}
	q.items[i] = item
	return nil
}

// next returns the index that follows the current item under the given
// repeat mode, or -1.
func (q *engineQueue) next(repeat RepeatMode) int {
	if q.index < 0 {
		return -1
	}
	if repeat == RepeatOne {
		return q.index
	}
	if q.shuffle {
		pos := slices.Index(q.order, q.index)
		if pos+1 < len(q.order) {
			return q.order[pos+1]
		}
		if repeat == RepeatAll && len(q.order) > 0 {
			return q.order[0]
		}
		return -1
	}
	if q.index+1 < len(q.items) {
		return q.index + 1
	}
	if repeat == RepeatAll {
		return 0
	}
	return -1
}

// previous returns the index before the current item, or -1.
func (q *engineQueue) previous() int {
	if q.index < 0 {
		return -1
	}
	if q.shuffle {
		pos := slices.Index(q.order, q.index)
		if pos > 0 {
			return q.order[pos-1]
		}
		return -1
	}
	return q.index - 1
}
