package render

import (
	"fmt"
	"io"
	"net/url"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/fragmede/threadgrab/internal/thread"
)

const pageStyle = `
body { font-family: sans-serif; background: #1a1a1b; color: #d7dadc; margin: 2em; }
a { color: #ff4500; }
.element { border-left: 2px solid #343536; padding-left: 0.8em; margin: 0.6em 0; }
.element h4 { margin: 0 0 0.3em 0; }
.ups { color: #818384; font-weight: normal; }
.tombstone > span { color: #818384; font-style: italic; }
ul { list-style: none; padding-left: 1em; }
`

// HTML writes a standalone page with one nested element per node. The
// page is built as a node tree and serialised by x/net/html, so all
// provider text is escaped.
type HTML struct{}

func (HTML) Format(w io.Writer, doc Document) error {
	origin := originOf(doc.Source)

	container := elem(atom.Div, attr("class", "thread"))
	for _, n := range doc.Forest {
		container.AppendChild(elementNode(n, origin))
	}

	head := elem(atom.Head)
	head.AppendChild(elem(atom.Meta, attr("charset", "utf-8")))
	title := elem(atom.Title)
	title.AppendChild(text(doc.Source))
	head.AppendChild(title)
	style := elem(atom.Style)
	style.AppendChild(text(pageStyle))
	head.AppendChild(style)

	body := elem(atom.Body)
	h1 := elem(atom.H1)
	src := elem(atom.A, attr("href", doc.Source))
	src.AppendChild(text(doc.Source))
	h1.AppendChild(src)
	body.AppendChild(h1)
	body.AppendChild(container)

	root := elem(atom.Html)
	root.AppendChild(head)
	root.AppendChild(body)

	page := &html.Node{Type: html.DocumentNode}
	page.AppendChild(&html.Node{Type: html.DoctypeNode, Data: "html"})
	page.AppendChild(root)

	if err := html.Render(w, page); err != nil {
		return fmt.Errorf("rendering html: %w", err)
	}
	_, err := io.WriteString(w, "\n")
	return err
}

func elementNode(n *thread.Node, origin string) *html.Node {
	class := "element"
	if n.IsTombstone() {
		class += " tombstone"
	}
	div := elem(atom.Div, attr("class", class), attr("id", n.ID))

	h4 := elem(atom.H4)
	author := elem(atom.A, attr("href", origin+n.Permalink))
	author.AppendChild(text(n.Author))
	h4.AppendChild(author)
	ups := elem(atom.Span, attr("class", "ups"))
	ups.AppendChild(text(fmt.Sprintf(" ⬆️%d:", n.Upvotes)))
	h4.AppendChild(ups)
	div.AppendChild(h4)

	if n.URL != "" {
		link := elem(atom.A, attr("href", n.URL))
		link.AppendChild(text(n.URL))
		div.AppendChild(link)
	}

	span := elem(atom.Span)
	for i, line := range strings.Split(Text(contentOf(n), 0), "\n") {
		if i > 0 {
			span.AppendChild(elem(atom.Br))
		}
		span.AppendChild(text(line))
	}
	div.AppendChild(span)

	if len(n.Children) > 0 {
		ul := elem(atom.Ul)
		for _, c := range n.Children {
			li := elem(atom.Li)
			li.AppendChild(elementNode(c, origin))
			ul.AppendChild(li)
		}
		div.AppendChild(ul)
	}
	return div
}

// originOf returns scheme://host of source, falling back to the provider.
func originOf(source string) string {
	u, err := url.Parse(source)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "https://reddit.com"
	}
	return u.Scheme + "://" + u.Host
}

func elem(a atom.Atom, attrs ...html.Attribute) *html.Node {
	return &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String(), Attr: attrs}
}

func attr(key, val string) html.Attribute {
	return html.Attribute{Key: key, Val: val}
}

func text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}
