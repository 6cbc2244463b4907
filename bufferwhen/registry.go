package bufferwhen

type disposable interface {
	dispose()
}

// window pairs an accumulating buffer with the handle of the close
// subscriber that will eventually evict it.
type window[T any, C ~[]T] struct {
	id     int64
	buffer C
	closer disposable
}

// registry is the id-keyed set of live windows, insertion order preserved.
// It is the single owner of all live buffers: once a window is evicted the
// registry holds no reference to its buffer. All methods must be called with
// the coordinator's lock held; dispose of the returned closer handles
// happens outside of it.
type registry[T any, C ~[]T] struct {
	order []*window[T, C]
	byID  map[int64]*window[T, C]
}

func newRegistry[T any, C ~[]T]() *registry[T, C] {
	return &registry[T, C]{byID: map[int64]*window[T, C]{}}
}

func (r *registry[T, C]) add(id int64, buffer C, closer disposable) {
	w := &window[T, C]{id: id, buffer: buffer, closer: closer}
	r.order = append(r.order, w)
	r.byID[id] = w
}

// appendAll fans one source element into every live buffer.
func (r *registry[T, C]) appendAll(v T) {
	for _, w := range r.order {
		w.buffer = append(w.buffer, v)
	}
}

// evict removes the window and transfers ownership of its buffer to the
// caller. Evicting an unknown id is a no-op, which makes flush idempotent.
func (r *registry[T, C]) evict(id int64) (C, bool) {
	w, ok := r.byID[id]
	if !ok {
		return nil, false
	}
	delete(r.byID, id)
	for i, o := range r.order {
		if o == w {
			copy(r.order[i:], r.order[i+1:])
			r.order[len(r.order)-1] = nil
			r.order = r.order[:len(r.order)-1]
			break
		}
	}
	buffer := w.buffer
	w.buffer = nil
	return buffer, true
}

// takeAll removes every window and returns the buffers in window-creation
// order, with the closer handles to dispose.
func (r *registry[T, C]) takeAll() ([]C, []disposable) {
	buffers := make([]C, 0, len(r.order))
	closers := make([]disposable, 0, len(r.order))
	for _, w := range r.order {
		buffers = append(buffers, w.buffer)
		closers = append(closers, w.closer)
		w.buffer = nil
	}
	r.order = nil
	r.byID = map[int64]*window[T, C]{}
	return buffers, closers
}

// discardAll removes every window, dropping the buffers, and returns the
// closer handles to dispose.
func (r *registry[T, C]) discardAll() []disposable {
	closers := make([]disposable, 0, len(r.order))
	for _, w := range r.order {
		closers = append(closers, w.closer)
		w.buffer = nil
	}
	r.order = nil
	r.byID = map[int64]*window[T, C]{}
	return closers
}

func (r *registry[T, C]) size() int {
	return len(r.order)
}
