package domain

// commentKey is the value identity of a Comment. The present bits keep
// an absent field distinct from an empty one.
type commentKey struct {
	author, date, text, url string
	present                 uint8
}

func keyOf(c Comment) commentKey {
	var k commentKey
	for i, f := range []*string{c.Author, c.Date, c.Text, c.URL} {
		if f == nil {
			continue
		}
		k.present |= 1 << i
		switch i {
		case 0:
			k.author = *f
		case 1:
			k.date = *f
		case 2:
			k.text = *f
		case 3:
			k.url = *f
		}
	}
	return k
}

// CommentSet is an insertion-ordered set of comments under value equality.
// The zero value is ready to use.
type CommentSet struct {
	items []Comment
	seen  map[commentKey]struct{}
}

// NewCommentSet creates an empty set.
func NewCommentSet() *CommentSet {
	return &CommentSet{seen: make(map[commentKey]struct{})}
}

// Add merges comments into the set, keeping first-seen order.
// It returns how many were new.
func (s *CommentSet) Add(comments ...Comment) int {
	if s.seen == nil {
		s.seen = make(map[commentKey]struct{})
	}
	added := 0
	for _, c := range comments {
		k := keyOf(c)
		if _, dup := s.seen[k]; dup {
			continue
		}
		s.seen[k] = struct{}{}
		s.items = append(s.items, c)
		added++
	}
	return added
}

// Len returns the number of distinct comments.
func (s *CommentSet) Len() int {
	return len(s.items)
}

// Items returns a copy of the comments in insertion order.
// It never returns nil so the set always serializes as a JSON array.
func (s *CommentSet) Items() []Comment {
	out := make([]Comment, len(s.items))
	copy(out, s.items)
	return out
}
