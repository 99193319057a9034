package docload

import (
	"encoding/xml"
	"io"
	"strings"
)

// docxText pulls the visible text out of a WordprocessingML document stream.
// Text lives in <w:t> elements; paragraph ends become newlines.
func docxText(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)

	var sb strings.Builder
	inText := false
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", &DegradedError{Kind: KindDOCX, Partial: sb.String(), Err: err}
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "t" {
				inText = true
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				sb.WriteString("\n")
			}
		case xml.CharData:
			if inText {
				sb.Write(t)
			}
		}
	}
	return strings.TrimRight(sb.String(), "\n"), nil
}
