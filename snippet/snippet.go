package snippet

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Snippet is a named reusable text value
type Snippet struct {
	Title string `json:"Title"`
	Value string `json:"Value"`
}

// ParseError reports a serialized snippet payload that could not be decoded
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse snippet list: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Store is the ordered snippet collection. It is not safe for concurrent use;
// the controller goroutine owns it and hands out copies.
type Store struct {
	items []Snippet
}

// NewStore creates a store holding a copy of items
func NewStore(items ...Snippet) *Store {
	s := &Store{}
	s.ReplaceAll(items)
	return s
}

// Add appends a snippet
func (s *Store) Add(title, value string) {
	s.items = append(s.items, Snippet{Title: title, Value: value})
}

// Remove deletes the snippet at index
func (s *Store) Remove(index int) error {
	if index < 0 || index >= len(s.items) {
		return fmt.Errorf("snippet index %d out of range [0,%d)", index, len(s.items))
	}
	s.items = append(s.items[:index], s.items[index+1:]...)
	return nil
}

// Clear removes every snippet
func (s *Store) Clear() {
	s.items = nil
}

// ReplaceAll swaps the whole collection for a copy of items
func (s *Store) ReplaceAll(items []Snippet) {
	s.items = make([]Snippet, len(items))
	copy(s.items, items)
}

// Count returns the number of snippets
func (s *Store) Count() int {
	return len(s.items)
}

// Snapshot returns a point-in-time copy of the collection
func (s *Store) Snapshot() []Snippet {
	out := make([]Snippet, len(s.items))
	copy(out, s.items)
	return out
}

// Titles returns the snippet titles in order
func (s *Store) Titles() []string {
	return Titles(s.items)
}

// Titles extracts the titles of items in order
func Titles(items []Snippet) []string {
	titles := make([]string, len(items))
	for i, it := range items {
		titles[i] = it.Title
	}
	return titles
}

// ToSerializedForm encodes the collection as the JSON payload embedded in the
// settings file
func (s *Store) ToSerializedForm() (string, error) {
	return Serialize(s.items)
}

// Serialize encodes items as a JSON array of {"Title","Value"} objects
func Serialize(items []Snippet) (string, error) {
	if items == nil {
		items = []Snippet{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("failed to encode snippet list: %w", err)
	}
	return string(data), nil
}

// FromSerializedForm decodes a payload produced by ToSerializedForm. A blank
// payload is an empty list.
func FromSerializedForm(payload string) ([]Snippet, error) {
	if strings.TrimSpace(payload) == "" {
		return []Snippet{}, nil
	}

	var items []Snippet
	if err := json.Unmarshal([]byte(payload), &items); err != nil {
		return nil, &ParseError{Err: err}
	}
	if items == nil {
		items = []Snippet{}
	}
	return items, nil
}
