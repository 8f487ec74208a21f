package thread

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/fragmede/threadgrab/internal/api"
)

// textFields are concatenated, in this order, into Node.Text.
var textFields = []string{"url", "title", "selftext", "body"}

// Decoder turns raw things into nodes, recording stubs and node counts in
// the run state it was created with.
type Decoder struct {
	state *RunState
}

// NewDecoder creates a decoder bound to st.
func NewDecoder(st *RunState) *Decoder {
	return &Decoder{state: st}
}

// Decode builds the node for one {kind, data} envelope, including its
// replies. It returns a nil node without error when the budget is used up,
// when the envelope has no data, and for "more" stubs.
func (d *Decoder) Decode(raw json.RawMessage) (*Node, error) {
	if d.state.Exhausted() {
		return nil, nil
	}

	var thing api.Thing
	if err := json.Unmarshal(raw, &thing); err != nil {
		return nil, &api.ParseError{Operation: "decode thing", Err: err}
	}
	if !thing.HasData() {
		return nil, nil
	}

	if thing.Kind == api.KindMore {
		var more api.MoreData
		if err := json.Unmarshal(thing.Data, &more); err != nil {
			return nil, &api.ParseError{Operation: "decode more", Err: err}
		}
		d.state.AddStubs(more.Count, more.Children...)
		return nil, nil
	}

	var f api.Fields
	if err := json.Unmarshal(thing.Data, &f); err != nil {
		return nil, &api.ParseError{Operation: "decode " + thing.Kind, Err: err}
	}

	n := nodeFromFields(f)
	if n.NumComments > 0 {
		d.state.setDeclaredComments(int64(n.NumComments))
	}
	d.state.addNode()

	// Malformed replies are skipped; the rest of the subtree still counts.
	for _, child := range f.Replies() {
		c, err := d.Decode(child)
		if err != nil || c == nil {
			continue
		}
		n.Children = append(n.Children, c)
	}
	return n, nil
}

func nodeFromFields(f api.Fields) *Node {
	var parts []string
	for _, name := range textFields {
		if s, ok := f.String(name); ok && s != "" {
			parts = append(parts, s)
		}
	}

	n := &Node{
		ID:        f.StringOr("id", ""),
		ParentID:  stripTypePrefix(f.StringOr("parent_id", "")),
		Kind:      kindOf(f.StringOr("name", "")),
		Author:    f.StringOr("author", ""),
		Text:      strings.Join(parts, "\n"),
		URL:       f.StringOr("url_overridden_by_dest", ""),
		Permalink: f.StringOr("permalink", ""),
		Upvotes:   parseUint(f.StringOr("ups", "0")),
		Depth:     parseInt(f.StringOr("depth", "0")),
		IsAdult:   f.StringOr("over_18", "false") == "true",
		Created:   parseTimestamp(f, "created"),
		Edited:    parseTimestamp(f, "edited"),
	}
	if s, ok := f.String("num_comments"); ok {
		n.NumComments = parseInt(s)
	}
	return n
}

// kindOf reads the two-character type tag embedded in a fullname like
// "t1_abc123".
func kindOf(name string) string {
	if len(name) < 2 {
		return ""
	}
	return name[:2]
}

// stripTypePrefix drops the "tN_" prefix of a fullname.
func stripTypePrefix(id string) string {
	if len(id) < 3 {
		return id
	}
	return id[3:]
}

func parseUint(s string) uint64 {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0
	}
	return v
}

func parseInt(s string) int {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || v < 0 {
		return 0
	}
	return v
}

// parseTimestamp reads epoch seconds that may arrive as a float. Missing,
// false and malformed values are Unknown.
func parseTimestamp(f api.Fields, name string) int64 {
	s, ok := f.String(name)
	if !ok {
		return Unknown
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return Unknown
	}
	return int64(v)
}
