package model

// Section is a heading together with the blocks nested under it.
type Section struct {
	Block

	// Level is 0 for a document title level heading, 1 for "==", and so on.
	Level int
	// Name is the section kind: "section", or a special name such as "appendix".
	Name string
	// Special is set for sections whose style names a special kind.
	Special bool
	// Numbered is set when the section takes part in numbering.
	Numbered bool
	// Numeral is the assigned number ("1.2", "A") when numbered.
	Numeral string
	// Index is the position among the parent's sections.
	Index int
}

// NewSection creates a section at the given level.
func NewSection(level int) *Section {
	s := &Section{Level: level, Name: "section"}
	s.context = ContextSection
	s.ContentModel = ContentCompound
	s.Attributes = Attributes{}
	s.self = s
	return s
}

// Sections returns the direct child sections.
func (s *Section) Sections() []*Section {
	var out []*Section
	for _, c := range s.Blocks {
		if sec, ok := c.(*Section); ok {
			out = append(out, sec)
		}
	}
	return out
}
