package api

import (
	"bytes"
	"encoding/json"
)

// KindMore marks a pagination stub.
const KindMore = "more"

// Thing is the {kind, data} envelope every object arrives in.
type Thing struct {
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data"`
}

// HasData reports whether the envelope carries a non-null data object.
func (t *Thing) HasData() bool {
	d := bytes.TrimSpace(t.Data)
	return len(d) > 0 && !bytes.Equal(d, []byte("null"))
}

// Listing is the object wrapping a page of children.
type Listing struct {
	Kind string      `json:"kind"`
	Data ListingData `json:"data"`
}

// ListingData holds the children of a listing.
type ListingData struct {
	After    string            `json:"after"`
	Before   string            `json:"before"`
	Children []json.RawMessage `json:"children"`
}

// MoreData is the payload of a "more" stub.
type MoreData struct {
	Count    int      `json:"count"`
	ParentID string   `json:"parent_id"`
	Children []string `json:"children"`
}

// Fields is a content thing's data object with values kept raw, so each
// field can be read the way the provider serialised it.
type Fields map[string]json.RawMessage

// String returns the field rendered as text: strings unquoted, numbers and
// booleans by their JSON text. ok is false for missing or null fields.
func (f Fields) String(name string) (string, bool) {
	raw, ok := f[name]
	if !ok {
		return "", false
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", false
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", false
		}
		return s, true
	}
	return string(raw), true
}

// StringOr returns the field text or def when it is missing.
func (f Fields) StringOr(name, def string) string {
	if s, ok := f.String(name); ok {
		return s
	}
	return def
}

// Replies returns the raw children of data.replies.data.children.
// Replies may be an empty string when a node has none.
func (f Fields) Replies() []json.RawMessage {
	raw, ok := f["replies"]
	if !ok {
		return nil
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return nil
	}
	var listing Listing
	if err := json.Unmarshal(raw, &listing); err != nil {
		return nil
	}
	return listing.Data.Children
}
