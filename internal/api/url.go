package api

import "strings"

// ParseThreadURL normalises a thread URL typed by the user. It returns the
// JSON endpoint for the thread and the base that continuation ids are
// appended to.
//
//	https://host/r/x/comments/abc/title/?utm=1 -> https://host/r/x/comments/abc/title.json, https://host/r/x/comments/abc/title/
func ParseThreadURL(raw string) (url, base string) {
	url = strings.NewReplacer("'", "", " ", "", "\n", "").Replace(raw)

	if i := strings.LastIndexByte(url, '?'); i >= 0 {
		url = url[:i]
	}

	start := 0
	if i := strings.Index(url, "://"); i >= 0 {
		start = i + len("://")
	}
	// A trailing ":port" is dropped; a host port followed by a path stays.
	if i := strings.LastIndexByte(url[start:], ':'); i >= 0 && !strings.Contains(url[start+i:], "/") {
		url = url[:start+i]
	}

	base = url
	if strings.HasSuffix(url, "/") {
		url = url[:len(url)-1]
	} else {
		base += "/"
	}

	if !strings.HasSuffix(url, ".json") {
		url += ".json"
	}
	return url, base
}

// StubURL is the continuation endpoint for a stub id.
func StubURL(base, id string) string {
	return base + id + ".json"
}
