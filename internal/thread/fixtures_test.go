package thread

import (
	"encoding/json"
	"testing"
)

// Fixture builders for provider-shaped payloads.

func listing(children ...any) map[string]any {
	if children == nil {
		children = []any{}
	}
	return map[string]any{
		"kind": "Listing",
		"data": map[string]any{"after": nil, "before": nil, "children": children},
	}
}

func moreThing(count int, ids ...string) map[string]any {
	if ids == nil {
		ids = []string{}
	}
	return map[string]any{
		"kind": "more",
		"data": map[string]any{"count": count, "name": "t1__", "id": "_", "children": ids},
	}
}

func postThing(id string, ups int, title, selftext string, numComments int) map[string]any {
	return map[string]any{
		"kind": "t3",
		"data": map[string]any{
			"id":           id,
			"name":         "t3_" + id,
			"parent_id":    nil,
			"author":       "op",
			"title":        title,
			"selftext":     selftext,
			"url":          "https://www.reddit.com/r/golang/comments/" + id + "/title/",
			"ups":          ups,
			"created":      1700000000.0,
			"edited":       false,
			"over_18":      false,
			"num_comments": numComments,
			"permalink":    "/r/golang/comments/" + id + "/title/",
		},
	}
}

func commentThing(id, parentFull string, ups int, author, body string, depth int, replies ...any) map[string]any {
	data := map[string]any{
		"id":        id,
		"name":      "t1_" + id,
		"parent_id": parentFull,
		"author":    author,
		"body":      body,
		"ups":       ups,
		"depth":     depth,
		"created":   1700000100.5,
		"edited":    false,
		"permalink": "/r/golang/comments/p1/title/" + id + "/",
	}
	if len(replies) > 0 {
		data["replies"] = listing(replies...)
	} else {
		data["replies"] = ""
	}
	return map[string]any{"kind": "t1", "data": data}
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal fixture: %v", err)
	}
	return b
}

// threadPayload is the usual [post listing, comment listing] response.
func threadPayload(t *testing.T, post map[string]any, comments ...any) []byte {
	t.Helper()
	return mustJSON(t, []any{listing(post), listing(comments...)})
}

func ids(nodes []*Node) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.ID)
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
