package libemit

type slotKind uint8

const (
	slotEmpty slotKind = iota
	slotSingle
	slotMany
)

// slot holds the listeners of one event. A single listener is stored without a slice; the slot
// switches to a list on the second registration and back when a removal leaves one entry.
type slot struct {
	kind   slotKind
	single *Listener
	many   []*Listener
	// warned is set once the capacity warning fired for the current list.
	warned bool
}

func (s *slot) len() int {
	switch s.kind {
	case slotSingle:
		return 1
	case slotMany:
		return len(s.many)
	}
	return 0
}

func (s *slot) add(l *Listener, prepend bool) {
	switch s.kind {
	case slotEmpty:
		s.kind = slotSingle
		s.single = l
	case slotSingle:
		if prepend {
			s.many = []*Listener{l, s.single}
		} else {
			s.many = []*Listener{s.single, l}
		}
		s.kind = slotMany
		s.single = nil
		s.warned = false
	case slotMany:
		if prepend {
			s.many = append([]*Listener{l}, s.many...)
		} else {
			s.many = append(s.many, l)
		}
	}
}

// remove drops the last entry matching l and returns it.
func (s *slot) remove(l *Listener) (*Listener, bool) {
	switch s.kind {
	case slotSingle:
		if !s.single.matches(l) {
			return nil, false
		}
		removed := s.single
		s.single = nil
		s.kind = slotEmpty
		return removed, true
	case slotMany:
		pos := -1
		for i := len(s.many) - 1; i >= 0; i-- {
			if s.many[i].matches(l) {
				pos = i
				break
			}
		}
		if pos < 0 {
			return nil, false
		}
		removed := s.many[pos]
		s.many = append(s.many[:pos], s.many[pos+1:]...)
		if len(s.many) == 1 {
			s.kind = slotSingle
			s.single = s.many[0]
			s.many = nil
		}
		return removed, true
	}
	return nil, false
}

// snapshot returns a copy of the listeners in dispatch order.
func (s *slot) snapshot() []*Listener {
	switch s.kind {
	case slotSingle:
		return []*Listener{s.single}
	case slotMany:
		out := make([]*Listener, len(s.many))
		copy(out, s.many)
		return out
	}
	return nil
}

func (s *slot) unwrapped() []*Listener {
	out := s.snapshot()
	for i, l := range out {
		out[i] = l.Unwrap()
	}
	return out
}
