package extractor

// Section is a named documentation unit found in the target header.
type Section struct {
	Name    string `yaml:"name"`
	Offsets []int  `yaml:"offsets"` // declaration first, then definition if present
}

// Declaration returns the line where the section's declarations begin.
func (s *Section) Declaration() int {
	return s.Offsets[0]
}

// Definition returns the line where the section's definitions begin,
// and false if the section has no definition block.
func (s *Section) Definition() (int, bool) {
	if len(s.Offsets) < 2 {
		return 0, false
	}
	return s.Offsets[1], true
}

// Index is an ordered mapping from section name to section.
// Iteration order is first-appearance order in the scanned file.
type Index struct {
	sections []*Section
	byName   map[string]*Section
}

func NewIndex() *Index {
	return &Index{byName: make(map[string]*Section)}
}

// Get returns the section registered under name.
func (idx *Index) Get(name string) (*Section, bool) {
	s, ok := idx.byName[name]
	return s, ok
}

// Sections returns the sections in first-appearance order.
func (idx *Index) Sections() []*Section {
	return idx.sections
}

func (idx *Index) Len() int {
	return len(idx.sections)
}

// Names returns section names in first-appearance order.
func (idx *Index) Names() []string {
	names := make([]string, 0, len(idx.sections))
	for _, s := range idx.sections {
		names = append(names, s.Name)
	}
	return names
}

// add records offset under name. A repeated name appends a definition
// offset without changing the section's position.
func (idx *Index) add(name string, offset int) error {
	if s, ok := idx.byName[name]; ok {
		if len(s.Offsets) >= 2 {
			return ErrTooManyOccurrences
		}
		s.Offsets = append(s.Offsets, offset)
		return nil
	}

	s := &Section{Name: name, Offsets: []int{offset}}
	idx.sections = append(idx.sections, s)
	idx.byName[name] = s
	return nil
}

// Equal reports whether both indexes hold the same sections, offsets and order.
func (idx *Index) Equal(other *Index) bool {
	if idx.Len() != other.Len() {
		return false
	}
	for i, s := range idx.sections {
		o := other.sections[i]
		if s.Name != o.Name || len(s.Offsets) != len(o.Offsets) {
			return false
		}
		for j := range s.Offsets {
			if s.Offsets[j] != o.Offsets[j] {
				return false
			}
		}
	}
	return true
}
