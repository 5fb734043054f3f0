package htmldiff

import (
	"errors"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// SplitTags reflows markup so each tag, comment and non-blank text line
// sits on its own line. Surrounding whitespace is trimmed. Attribute order
// and quoting are kept as written.
func SplitTags(markup string) (string, error) {
	z := html.NewTokenizer(strings.NewReader(markup))
	var lines []string

	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			if err := z.Err(); !errors.Is(err, io.EOF) {
				return "", err
			}
			break
		}

		raw := string(z.Raw())
		if tt == html.TextToken {
			for _, line := range strings.Split(raw, "\n") {
				if line = strings.TrimSpace(line); line != "" {
					lines = append(lines, line)
				}
			}
			continue
		}
		if raw = strings.TrimSpace(raw); raw != "" {
			lines = append(lines, raw)
		}
	}

	return strings.Join(lines, "\n"), nil
}
