package documents

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/odyssey-erp/stockflow/internal/shared"
)

// Registry stores documents per type together with their rendered blobs. It is
// not safe for concurrent use; the store serialises access.
type Registry struct {
	docs     map[Type][]Document
	blobs    map[string][]byte
	counters map[Type]int
}

// State is the serialisable content of a registry.
type State struct {
	Documents []Document        `json:"documents"`
	Blobs     map[string][]byte `json:"blobs"`
	Counters  map[Type]int      `json:"counters"`
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		docs:     make(map[Type][]Document),
		blobs:    make(map[string][]byte),
		counters: make(map[Type]int),
	}
}

// NextID reserves the next sequential id for the type, e.g. "GRN1".
func (r *Registry) NextID(t Type) string {
	r.counters[t]++
	return string(t) + strconv.Itoa(r.counters[t])
}

// Append stores doc and its blob. Ids must be unique.
func (r *Registry) Append(doc Document, blob []byte) error {
	if !doc.Type.Valid() {
		return fmt.Errorf("%w: unknown document type %q", shared.ErrValidation, doc.Type)
	}
	if len(doc.Items) == 0 {
		return ErrEmptyDocument
	}
	if _, dup := r.blobs[doc.DocID]; dup {
		return fmt.Errorf("documents: duplicate id %s", doc.DocID)
	}
	doc.Items = append([]Line(nil), doc.Items...)
	r.docs[doc.Type] = append(r.docs[doc.Type], doc)
	r.blobs[doc.DocID] = append([]byte(nil), blob...)
	return nil
}

// Get looks a document up by id.
func (r *Registry) Get(docID string) (Document, error) {
	t := typeOf(docID)
	for _, doc := range r.docs[t] {
		if doc.DocID == docID {
			doc.Items = append([]Line(nil), doc.Items...)
			return doc, nil
		}
	}
	return Document{}, fmt.Errorf("documents: %s: %w", docID, shared.ErrNotFound)
}

// Blob returns the rendered artifact of a document.
func (r *Registry) Blob(docID string) ([]byte, error) {
	blob, ok := r.blobs[docID]
	if !ok {
		return nil, fmt.Errorf("documents: blob %s: %w", docID, shared.ErrNotFound)
	}
	return append([]byte(nil), blob...), nil
}

// List returns documents of the type in issue order, or every document when t
// is empty.
func (r *Registry) List(t Type) []Document {
	var out []Document
	types := Types
	if t != "" {
		types = []Type{t}
	}
	for _, typ := range types {
		for _, doc := range r.docs[typ] {
			doc.Items = append([]Line(nil), doc.Items...)
			out = append(out, doc)
		}
	}
	return out
}

// Len reports the number of stored documents.
func (r *Registry) Len() int {
	return len(r.blobs)
}

// Clear drops documents and blobs but keeps the id counters so ids are never
// reused.
func (r *Registry) Clear() {
	r.docs = make(map[Type][]Document)
	r.blobs = make(map[string][]byte)
}

// Clone returns an independent copy. Blobs are immutable once stored and are
// shared between copies.
func (r *Registry) Clone() *Registry {
	cp := NewRegistry()
	for t, docs := range r.docs {
		cp.docs[t] = append([]Document(nil), docs...)
	}
	for id, blob := range r.blobs {
		cp.blobs[id] = blob
	}
	for t, n := range r.counters {
		cp.counters[t] = n
	}
	return cp
}

// Export returns the registry content.
func (r *Registry) Export() State {
	st := State{Documents: r.List(""), Blobs: make(map[string][]byte, len(r.blobs)), Counters: make(map[Type]int, len(r.counters))}
	for id, blob := range r.blobs {
		st.Blobs[id] = blob
	}
	for t, n := range r.counters {
		st.Counters[t] = n
	}
	return st
}

// Load replaces the registry content.
func (r *Registry) Load(st State) {
	r.docs = make(map[Type][]Document)
	r.blobs = make(map[string][]byte, len(st.Blobs))
	r.counters = make(map[Type]int, len(st.Counters))
	docs := append([]Document(nil), st.Documents...)
	sort.SliceStable(docs, func(i, j int) bool {
		if docs[i].Type != docs[j].Type {
			return docs[i].Type < docs[j].Type
		}
		return sequence(docs[i].DocID) < sequence(docs[j].DocID)
	})
	for _, doc := range docs {
		r.docs[doc.Type] = append(r.docs[doc.Type], doc)
	}
	for id, blob := range st.Blobs {
		r.blobs[id] = blob
	}
	for t, n := range st.Counters {
		r.counters[t] = n
	}
}

func typeOf(docID string) Type {
	for _, t := range []Type{TypeGRN, TypeDO, TypeTN, TypeRN} {
		if strings.HasPrefix(docID, string(t)) {
			if _, err := strconv.Atoi(strings.TrimPrefix(docID, string(t))); err == nil {
				return t
			}
		}
	}
	return ""
}

func sequence(docID string) int {
	n, _ := strconv.Atoi(strings.TrimLeft(docID, "ABCDEFGHIJKLMNOPQRSTUVWXYZ"))
	return n
}
