package paged

// LongStack is an unbounded int64 stack that grows one page at a time, so a
// deep traversal never reallocates and copies its whole backlog.
type LongStack struct {
	pages [][]int64
	shift uint
	mask  uint64
	size  uint64
}

// NewLongStack creates an empty stack with the default page size.
func NewLongStack() *LongStack {
	return &LongStack{shift: DefaultPageShift, mask: 1<<DefaultPageShift - 1}
}

// Push adds v on top of the stack.
func (s *LongStack) Push(v int64) {
	p, o := int(s.size>>s.shift), s.size&s.mask
	if p == len(s.pages) {
		s.pages = append(s.pages, make([]int64, 1<<s.shift))
	}
	s.pages[p][o] = v
	s.size++
}

// Pop removes and returns the top value.
func (s *LongStack) Pop() (int64, error) {
	if s.size == 0 {
		return 0, &Error{Op: "Pop", Cause: ErrEmptyStack}
	}
	s.size--
	return s.pages[s.size>>s.shift][s.size&s.mask], nil
}

// Peek returns the top value without removing it.
func (s *LongStack) Peek() (int64, error) {
	if s.size == 0 {
		return 0, &Error{Op: "Peek", Cause: ErrEmptyStack}
	}
	top := s.size - 1
	return s.pages[top>>s.shift][top&s.mask], nil
}

// Size returns the number of stacked values.
func (s *LongStack) Size() uint64 {
	return s.size
}

// IsEmpty reports whether the stack holds no values.
func (s *LongStack) IsEmpty() bool {
	return s.size == 0
}

// Clear empties the stack, keeping only the first page allocated.
func (s *LongStack) Clear() {
	s.size = 0
	for p := 1; p < len(s.pages); p++ {
		s.pages[p] = nil
	}
	if len(s.pages) > 1 {
		s.pages = s.pages[:1]
	}
}
