package domain

import "fmt"

// ChildCollection names the single child collection owned by a parent
// collection and the reserved envelope key that carries it inline.
type ChildCollection struct {
	// Collection is the child collection name, addressed relative to a
	// parent document id.
	Collection string
	// ReservedKey is the envelope field under which the child records ride
	// inside the flat parent record. It must never appear as a genuine
	// document field.
	ReservedKey string
}

// Schema is the static data-lifecycle configuration: which collections are
// exported and imported, which of them own child collections, and which are
// destroyed by a full reset. The set is fixed at construction; nothing is
// discovered at runtime.
type Schema struct {
	// Collections is the ordered list of top-level collections covered by
	// export and import.
	Collections []string
	// Children maps a parent collection name to its child collection.
	Children map[string]ChildCollection
	// Destructible is the ordered list of collections cleared by a reset.
	// Operationally live collections (open tables, the menu) stay out.
	Destructible []string
	// ChunkSize is the maximum number of parent records per import batch.
	ChunkSize int
	// FilePrefix is the application prefix used in archive file names.
	FilePrefix string
}

// HasChildren reports whether the collection is configured as a parent and
// returns its child collection configuration.
func (s Schema) HasChildren(collection string) (ChildCollection, bool) {
	child, ok := s.Children[collection]
	return child, ok
}

// Validate checks internal consistency: every parent and destructible
// collection must be a known collection, reserved keys must be distinct and
// non-empty, and the chunk size must fit under the store batch ceiling.
func (s Schema) Validate() error {
	if len(s.Collections) == 0 {
		return fmt.Errorf("schema: no collections configured")
	}
	if s.ChunkSize <= 0 || s.ChunkSize > MaxBatchOps {
		return fmt.Errorf("schema: chunk size %d outside (0, %d]", s.ChunkSize, MaxBatchOps)
	}
	if s.FilePrefix == "" {
		return fmt.Errorf("schema: empty file prefix")
	}
	known := make(map[string]bool, len(s.Collections))
	for _, name := range s.Collections {
		if name == "" {
			return fmt.Errorf("schema: empty collection name")
		}
		if known[name] {
			return fmt.Errorf("schema: duplicate collection %q", name)
		}
		known[name] = true
	}
	reserved := map[string]bool{}
	for parent, child := range s.Children {
		if !known[parent] {
			return fmt.Errorf("schema: parent %q is not a configured collection", parent)
		}
		if child.Collection == "" {
			return fmt.Errorf("schema: parent %q has empty child collection", parent)
		}
		if child.ReservedKey == "" {
			return fmt.Errorf("schema: parent %q has empty reserved key", parent)
		}
		if reserved[child.ReservedKey] {
			return fmt.Errorf("schema: reserved key %q used twice", child.ReservedKey)
		}
		reserved[child.ReservedKey] = true
	}
	for _, name := range s.Destructible {
		if !known[name] {
			return fmt.Errorf("schema: destructible %q is not a configured collection", name)
		}
	}
	return nil
}
