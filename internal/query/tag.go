package query

import "fmt"

// Tag labels a cached result so mutations can find it. A bare tag (ID == "")
// names a whole category; an id tag names one record in it.
type Tag struct {
	Type string
	ID   string
}

// Bare returns the category tag for typ.
func Bare(typ string) Tag { return Tag{Type: typ} }

// ID returns the tag for record id of typ.
func ID(typ string, id any) Tag { return Tag{Type: typ, ID: fmt.Sprint(id)} }

func (t Tag) String() string {
	if t.ID == "" {
		return t.Type
	}
	return t.Type + "#" + t.ID
}

// Invalidates reports whether invalidating t drops an entry that declared
// provided. A bare tag matches every tag of its type; an id tag matches only
// the same id.
func (t Tag) Invalidates(provided Tag) bool {
	if t.Type != provided.Type {
		return false
	}
	return t.ID == "" || t.ID == provided.ID
}
