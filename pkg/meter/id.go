package meter

import (
	"slices"
	"strings"
)

// Tag is a key/value dimension of a meter.
type Tag struct {
	Key   string
	Value string
}

// Tags is a set of tags sorted by key with unique keys.
type Tags []Tag

// TagsOf builds Tags from alternating keys and values. A trailing key
// without a value gets an empty value.
func TagsOf(kv ...string) Tags {
	var tags Tags
	for i := 0; i < len(kv); i += 2 {
		t := Tag{Key: kv[i]}
		if i+1 < len(kv) {
			t.Value = kv[i+1]
		}
		tags = append(tags, t)
	}
	return tags.normalize()
}

// And returns the union of t and other; other wins on equal keys.
func (t Tags) And(other ...Tag) Tags {
	if len(other) == 0 {
		return t
	}
	merged := make(Tags, 0, len(t)+len(other))
	merged = append(merged, t...)
	merged = append(merged, other...)
	return merged.normalize()
}

// Keys returns the tag keys in order.
func (t Tags) Keys() []string {
	keys := make([]string, len(t))
	for i, tag := range t {
		keys[i] = tag.Key
	}
	return keys
}

// Get returns the value for key.
func (t Tags) Get(key string) (string, bool) {
	i, ok := slices.BinarySearchFunc(t, key, func(tag Tag, k string) int {
		return strings.Compare(tag.Key, k)
	})
	if !ok {
		return "", false
	}
	return t[i].Value, true
}

// normalize sorts by key and keeps the last value of duplicated keys.
func (t Tags) normalize() Tags {
	if len(t) == 0 {
		return nil
	}
	out := slices.Clone(t)
	slices.SortStableFunc(out, func(a, b Tag) int {
		return strings.Compare(a.Key, b.Key)
	})
	n := 0
	for i := range out {
		if n > 0 && out[n-1].Key == out[i].Key {
			out[n-1] = out[i]
			continue
		}
		out[n] = out[i]
		n++
	}
	return out[:n]
}

// ID identifies a meter: a name plus tags. Type, base unit and description
// are metadata and do not take part in equality.
type ID struct {
	name        string
	tags        Tags
	typ         Type
	baseUnit    string
	description string
}

// NewID returns an identity. Tags are copied and normalized.
func NewID(name string, typ Type, tags Tags, baseUnit, description string) ID {
	return ID{
		name:        name,
		tags:        tags.normalize(),
		typ:         typ,
		baseUnit:    baseUnit,
		description: description,
	}
}

func (id ID) Name() string        { return id.name }
func (id ID) Tags() Tags          { return slices.Clone(id.tags) }
func (id ID) Type() Type          { return id.typ }
func (id ID) BaseUnit() string    { return id.baseUnit }
func (id ID) Description() string { return id.description }

// Tag returns the value of the tag with key.
func (id ID) Tag(key string) (string, bool) {
	return id.tags.Get(key)
}

// WithTags returns a copy of id with extra tags merged in; existing keys win.
func (id ID) WithTags(extra Tags) ID {
	if len(extra) == 0 {
		return id
	}
	id.tags = extra.And(id.tags...)
	return id
}

// WithDescription returns a copy of id with the description replaced.
func (id ID) WithDescription(description string) ID {
	id.description = description
	return id
}

// Equal reports whether id and other name the same series.
func (id ID) Equal(other ID) bool {
	return id.name == other.name && slices.Equal(id.tags, other.tags)
}

func (id ID) String() string {
	if len(id.tags) == 0 {
		return id.name
	}
	var b strings.Builder
	b.WriteString(id.name)
	b.WriteByte('{')
	for i, t := range id.tags {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(t.Key)
		b.WriteByte('=')
		b.WriteString(t.Value)
	}
	b.WriteByte('}')
	return b.String()
}
