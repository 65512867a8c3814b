package markup

import (
	"strings"

	parse "github.com/tdewolff/parse/v2"
	lexer "github.com/tdewolff/parse/v2/html"
)

// HTML void elements never have end tags.
var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"param": true, "source": true, "track": true, "wbr": true,
}

// tagBalance tokenizes raw source and counts start tags which require end tag
// against end tags present. Self closing start tags are not counted. When
// numbers differ HTML parser had to correct the markup.
func tagBalance(src string) (opened, closed int) {
	l := lexer.NewLexer(parse.NewInputString(src))

	// start tag is counted only when we see how it ends
	pending := false
	for {
		tt, _ := l.Next()
		switch tt {
		case lexer.ErrorToken:
			if pending {
				// source ended inside of a tag
				opened++
			}
			return opened, closed
		case lexer.StartTagToken:
			pending = !voidElements[strings.ToLower(string(l.Text()))]
		case lexer.StartTagCloseToken:
			if pending {
				opened++
			}
			pending = false
		case lexer.StartTagVoidToken:
			pending = false
		case lexer.EndTagToken:
			if !voidElements[strings.ToLower(string(l.Text()))] {
				closed++
			}
		}
	}
}
