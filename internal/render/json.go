package render

import (
	"encoding/json"
	"io"

	"github.com/fragmede/threadgrab/internal/thread"
)

type jsonDocument struct {
	Source           string        `json:"source,omitempty"`
	DeclaredComments int64         `json:"declared_comments,omitempty"`
	Data             []jsonElement `json:"data"`
}

type jsonElement struct {
	ID        string        `json:"id"`
	ParentID  string        `json:"parent_id,omitempty"`
	Kind      string        `json:"kind"`
	Author    string        `json:"author"`
	Data      string        `json:"data"`
	Ups       uint64        `json:"ups"`
	Depth     int           `json:"depth"`
	Created   *int64        `json:"created"`
	Edited    *int64        `json:"edited"`
	Permalink string        `json:"permalink"`
	URL       string        `json:"url"`
	Over18    bool          `json:"over_18"`
	Children  []jsonElement `json:"children"`
}

// JSON writes {"data": [...]} with one nested object per node.
type JSON struct{}

func (JSON) Format(w io.Writer, doc Document) error {
	out := jsonDocument{
		Source:           doc.Source,
		DeclaredComments: doc.DeclaredComments,
		Data:             jsonElements(doc.Forest),
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	return enc.Encode(out)
}

func jsonElements(nodes []*thread.Node) []jsonElement {
	out := make([]jsonElement, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, jsonElement{
			ID:        n.ID,
			ParentID:  n.ParentID,
			Kind:      n.Kind,
			Author:    n.Author,
			Data:      n.Text,
			Ups:       n.Upvotes,
			Depth:     n.Depth,
			Created:   knownTime(n.Created),
			Edited:    knownTime(n.Edited),
			Permalink: n.Permalink,
			URL:       n.URL,
			Over18:    n.IsAdult,
			Children:  jsonElements(n.Children),
		})
	}
	return out
}

// knownTime maps the unknown-time sentinel to null.
func knownTime(t int64) *int64 {
	if t == thread.Unknown {
		return nil
	}
	return &t
}
