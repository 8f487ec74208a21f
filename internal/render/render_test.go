package render

import (
	"bytes"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/net/html"

	"github.com/fragmede/threadgrab/internal/config"
	"github.com/fragmede/threadgrab/internal/store"
	"github.com/fragmede/threadgrab/internal/thread"
)

func doc() Document {
	return Document{
		Source: "https://www.reddit.com/r/golang/comments/p1/title/",
		RunID:  "run-1",
		Forest: []*thread.Node{
			{
				ID: "p1", Kind: "t3", Author: "op", Upvotes: 40,
				URL:       "https://go.dev",
				Text:      "https://go.dev\nGo 1.24 is out",
				Permalink: "/r/golang/comments/p1/title/",
				Created:   1700000000, Edited: thread.Unknown,
				Children: []*thread.Node{
					{ID: "c1", ParentID: "p1", Kind: "t1", Author: "gopher", Upvotes: 7,
						Text: "first line\nsecond &amp; <script>x</script>", Permalink: "/r/golang/comments/p1/title/c1/",
						Created: 1700000100, Edited: 1700000200},
				},
			},
			{ID: "c2", ParentID: "p1", Kind: "t1", Author: "[deleted]", Text: "[deleted]", Created: thread.Unknown, Edited: thread.Unknown},
		},
	}
}

func TestNew(t *testing.T) {
	for _, f := range []config.Format{config.FormatPlain, config.FormatHTML, config.FormatJSON, config.FormatSQLite} {
		if _, err := New(f); err != nil {
			t.Errorf("New(%s) error = %v", f, err)
		}
	}
	if _, err := New("xml"); err == nil {
		t.Error("New(xml) expected error")
	}
}

func TestPlain(t *testing.T) {
	var buf bytes.Buffer
	if err := (Plain{}).Format(&buf, doc()); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	want := "# {indent} {ups} {author}: {content}\n\n" +
		"Source: https://www.reddit.com/r/golang/comments/p1/title/\n" +
		"0 40 op: https://go.dev\n" +
		"         Go 1.24 is out\n" +
		" 1 7 gopher: first line\n" +
		"             second & x\n" +
		"0 0 [deleted]: [deleted]\n"
	if got := buf.String(); got != want {
		t.Errorf("Format() =\n%s\nwant\n%s", got, want)
	}
}

func TestJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := (JSON{}).Format(&buf, doc()); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	var got struct {
		Source string `json:"source"`
		Data   []struct {
			ID       string `json:"id"`
			Ups      uint64 `json:"ups"`
			Edited   *int64 `json:"edited"`
			Children []struct {
				ID     string `json:"id"`
				Edited *int64 `json:"edited"`
			} `json:"children"`
		} `json:"data"`
	}
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, buf.String())
	}
	if len(got.Data) != 2 || got.Data[0].ID != "p1" || got.Data[0].Ups != 40 {
		t.Fatalf("data = %+v", got.Data)
	}
	if got.Data[0].Edited != nil {
		t.Errorf("unknown edited time = %d, want null", *got.Data[0].Edited)
	}
	kids := got.Data[0].Children
	if len(kids) != 1 || kids[0].ID != "c1" || kids[0].Edited == nil || *kids[0].Edited != 1700000200 {
		t.Errorf("children = %+v", kids)
	}
	if !strings.Contains(buf.String(), "\n    \"data\"") {
		t.Error("output not indented with four spaces")
	}
}

func TestHTML(t *testing.T) {
	var buf bytes.Buffer
	if err := (HTML{}).Format(&buf, doc()); err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	out := buf.String()

	if !strings.HasPrefix(out, "<!DOCTYPE html>") {
		t.Errorf("missing doctype: %.40q", out)
	}
	if strings.Contains(out, "<script>") {
		t.Error("provider text not escaped")
	}

	parsed, err := html.Parse(strings.NewReader(out))
	if err != nil {
		t.Fatalf("html.Parse() error = %v", err)
	}
	var elements []string
	var links []string
	classes := make(map[string]string)
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			for _, a := range n.Attr {
				if n.Data == "div" && a.Key == "id" {
					elements = append(elements, a.Val)
					classes[a.Val] = attrOf(n, "class")
				}
				if n.Data == "a" && a.Key == "href" {
					links = append(links, a.Val)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(parsed)

	if strings.Join(elements, ",") != "p1,c1,c2" {
		t.Errorf("elements = %v, want [p1 c1 c2]", elements)
	}
	if classes["c2"] != "element tombstone" || classes["c1"] != "element" {
		t.Errorf("classes = %v, want c2 marked as a tombstone", classes)
	}
	wantLink := "https://www.reddit.com/r/golang/comments/p1/title/c1/"
	found := false
	for _, l := range links {
		found = found || l == wantLink
	}
	if !found {
		t.Errorf("links = %v, missing %s", links, wantLink)
	}
}

func TestSQLiteExport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.db")
	d := doc()
	if err := Export(path, d); err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	db, err := store.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	forest, err := db.Forest(d.Source)
	if err != nil {
		t.Fatal(err)
	}
	if thread.Count(forest) != 3 {
		t.Errorf("stored %d nodes, want 3", thread.Count(forest))
	}
}

func TestLoadReadsExport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.db")
	d := doc()
	d.DeclaredComments = 9
	if err := Export(path, d); err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	got, err := Load(path, d.Source)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.RunID != "run-1" || got.DeclaredComments != 9 || thread.Count(got.Forest) != 3 {
		t.Errorf("Load() = %+v", got)
	}

	var want, again bytes.Buffer
	if err := (Plain{}).Format(&want, d); err != nil {
		t.Fatal(err)
	}
	if err := (Plain{}).Format(&again, got); err != nil {
		t.Fatal(err)
	}
	if again.String() != want.String() {
		t.Errorf("reloaded plain output =\n%s\nwant\n%s", again.String(), want.String())
	}

	if _, err := Load(path, "https://elsewhere/"); !errors.Is(err, ErrNotExported) {
		t.Errorf("Load(unknown source) error = %v, want ErrNotExported", err)
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.db"), d.Source); err == nil {
		t.Error("Load(missing file) expected error")
	}
}

func TestSQLiteFormatStreamsDatabase(t *testing.T) {
	var buf bytes.Buffer
	if err := (SQLite{}).Format(&buf, doc()); err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("SQLite format 3\x00")) {
		t.Errorf("output is not a SQLite file: %.16q", buf.Bytes())
	}
}

func TestText(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		width int
		want  string
	}{
		{"entities", "fish &amp; chips &gt; salad", 0, "fish & chips > salad"},
		{"paragraphs", "<p>one</p><p>two</p>", 0, "one\n\ntwo"},
		{"link", `see <a href="https://go.dev">docs</a>`, 0, "see docs [https://go.dev]"},
		{"bare link", `<a href="https://go.dev">https://go.dev</a>`, 0, "https://go.dev"},
		{"pre", "<pre>x := 1\ny := 2</pre>", 0, "x := 1\n    y := 2"},
		{"wrap", "aaa bbb ccc", 7, "aaa bbb\nccc"},
		{"empty", "", 10, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Text(tt.raw, tt.width); got != tt.want {
				t.Errorf("Text(%q, %d) = %q, want %q", tt.raw, tt.width, got, tt.want)
			}
		})
	}
}

func attrOf(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
