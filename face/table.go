package face

import "sync"

// Table is the forwarder-wide face registry: every pipeline and
// management module looks faces up here by id rather than holding
// direct references, so a face can be replaced or torn down without
// hunting down every pointer to it.
type Table struct {
	mu    sync.RWMutex
	faces map[uint64]*Face
	next  uint64
}

// NewTable constructs an empty face table. Ids that Add assigns
// automatically start at 256, above the reserved FaceIds; id 0 is
// reserved (used by strategies to mean "no face").
func NewTable() *Table {
	return &Table{faces: make(map[uint64]*Face), next: 256}
}

// Add registers f under its own id if it has one, otherwise assigns
// the next free id and returns the face with that id set.
func (t *Table) Add(f *Face) *Face {
	t.mu.Lock()
	defer t.mu.Unlock()
	if f.id == 0 {
		f.id = t.next
		t.next++
	} else if f.id >= t.next {
		t.next = f.id + 1
	}
	t.faces[f.id] = f
	return f
}

// Remove drops the face with the given id from the table.
func (t *Table) Remove(faceId uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.faces, faceId)
}

// Get returns the face with the given id, or nil if none exists.
func (t *Table) Get(faceId uint64) *Face {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.faces[faceId]
}

// GetAll returns every registered face in unspecified order.
func (t *Table) GetAll() []*Face {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]*Face, 0, len(t.faces))
	for _, f := range t.faces {
		out = append(out, f)
	}
	return out
}

// Size reports the number of registered faces.
func (t *Table) Size() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.faces)
}
