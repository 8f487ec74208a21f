package render

import (
	"strings"

	"golang.org/x/net/html"
)

// Text converts provider text to plain text. Bodies arrive as markdown
// with HTML entities escaped, and occasionally with inline HTML: entities
// are decoded, <p> and <br> become line breaks, <a> keeps its target,
// <pre> blocks are indented. A positive width word-wraps the result.
func Text(raw string, width int) string {
	if raw == "" {
		return ""
	}

	tokenizer := html.NewTokenizer(strings.NewReader(raw))
	var sb strings.Builder
	var inPre bool
	var anchorURL string

	for {
		tt := tokenizer.Next()
		switch tt {
		case html.ErrorToken:
			return wrapText(strings.TrimSpace(sb.String()), width)

		case html.StartTagToken, html.SelfClosingTagToken:
			t := tokenizer.Token()
			switch t.Data {
			case "p":
				if sb.Len() > 0 {
					sb.WriteString("\n\n")
				}
			case "br":
				sb.WriteString("\n")
			case "pre":
				inPre = true
				sb.WriteString("\n")
			case "a":
				for _, attr := range t.Attr {
					if attr.Key == "href" {
						anchorURL = attr.Val
					}
				}
			}

		case html.EndTagToken:
			t := tokenizer.Token()
			switch t.Data {
			case "pre":
				inPre = false
				sb.WriteString("\n")
			case "a":
				// Only append the target if the link text is not the URL.
				if anchorURL != "" && !strings.HasSuffix(strings.TrimSpace(sb.String()), anchorURL) {
					sb.WriteString(" [")
					sb.WriteString(anchorURL)
					sb.WriteString("]")
				}
				anchorURL = ""
			}

		case html.TextToken:
			text := tokenizer.Token().Data
			if !inPre {
				sb.WriteString(text)
				continue
			}
			for i, line := range strings.Split(text, "\n") {
				if i > 0 {
					sb.WriteString("\n")
				}
				if line != "" {
					sb.WriteString("    ")
					sb.WriteString(line)
				}
			}
		}
	}
}

// wrapText performs simple word wrapping to the given width.
func wrapText(text string, width int) string {
	if width <= 0 {
		return text
	}
	var result strings.Builder
	for _, paragraph := range strings.Split(text, "\n") {
		if strings.HasPrefix(paragraph, "    ") {
			// Don't wrap code blocks.
			result.WriteString(paragraph)
			result.WriteString("\n")
			continue
		}
		words := strings.Fields(paragraph)
		if len(words) == 0 {
			result.WriteString("\n")
			continue
		}
		lineLen := 0
		for i, word := range words {
			wlen := len(word)
			if i > 0 && lineLen+1+wlen > width {
				result.WriteString("\n")
				lineLen = 0
			} else if i > 0 {
				result.WriteString(" ")
				lineLen++
			}
			result.WriteString(word)
			lineLen += wlen
		}
		result.WriteString("\n")
	}
	return strings.TrimRight(result.String(), "\n")
}
