package thread

import (
	"bytes"
	"encoding/json"
	"errors"

	"github.com/fragmede/threadgrab/internal/api"
)

// BuildForest decodes a listing response into top-level nodes. The payload
// is either an array of listings (post listing, then replies listing) or a
// single listing. Decoding stops once the node budget in st is used up.
func BuildForest(payload []byte, st *RunState) ([]*Node, error) {
	listings, err := decodeListings(payload)
	if err != nil {
		return nil, err
	}

	d := NewDecoder(st)
	var forest []*Node
	for _, l := range listings {
		for _, child := range l.Data.Children {
			if st.Exhausted() {
				return forest, nil
			}
			n, err := d.Decode(child)
			if err != nil || n == nil {
				continue
			}
			forest = append(forest, n)
		}
	}
	return forest, nil
}

func decodeListings(payload []byte) ([]api.Listing, error) {
	payload = bytes.TrimSpace(payload)
	if len(payload) == 0 {
		return nil, &api.ParseError{Operation: "decode listing", Err: errors.New("empty payload")}
	}

	switch payload[0] {
	case '[':
		var listings []api.Listing
		if err := json.Unmarshal(payload, &listings); err != nil {
			return nil, &api.ParseError{Operation: "decode listing", Err: err}
		}
		return listings, nil
	case '{':
		var l api.Listing
		if err := json.Unmarshal(payload, &l); err != nil {
			return nil, &api.ParseError{Operation: "decode listing", Err: err}
		}
		return []api.Listing{l}, nil
	default:
		return nil, &api.ParseError{Operation: "decode listing", Message: "payload is not a JSON array or object"}
	}
}
