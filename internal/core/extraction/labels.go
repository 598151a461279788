package extraction

// LabelSet collects the node types seen during one run, in first-seen
// order, so every prompt lists them the same way.
type LabelSet struct {
	seen  map[string]struct{}
	order []string
}

func NewLabelSet(labels ...string) *LabelSet {
	s := &LabelSet{seen: make(map[string]struct{})}
	s.Add(labels...)
	return s
}

func (s *LabelSet) Add(labels ...string) {
	for _, l := range labels {
		if l == "" {
			continue
		}
		if _, ok := s.seen[l]; ok {
			continue
		}
		s.seen[l] = struct{}{}
		s.order = append(s.order, l)
	}
}

// List returns a copy of the labels.
func (s *LabelSet) List() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

func (s *LabelSet) Len() int { return len(s.order) }
