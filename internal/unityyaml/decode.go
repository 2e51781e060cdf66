package unityyaml

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	serrors "github.com/rohankatakam/sceneaudit/internal/errors"
)

const (
	documentMarker = "---"
	classTagPrefix = "!u!"
	anchorPrefix   = "&"
	strippedFlag   = "stripped"
)

// ErrEmptyBody is recorded on documents whose header is not followed by a
// payload mapping.
var ErrEmptyBody = errors.New("document has no body")

// ErrNotMapping is recorded on documents whose body is not a mapping keyed
// by the document type.
var ErrNotMapping = errors.New("expected a single-key mapping")

// Decode reads a whole stream and returns its documents in order.
//
// Only reader failures are returned as errors. A document whose body does
// not decode is still returned, with Err set and no Type, so that one bad
// record never hides the rest of the stream.
func Decode(r io.Reader) ([]Document, error) {
	br := bufio.NewReader(r)

	var (
		docs    []Document
		current *Document
		body    bytes.Buffer
		inDoc   bool
	)

	flush := func() {
		if current == nil {
			return
		}
		decodeBody(current, body.Bytes())
		docs = append(docs, *current)
		current = nil
		body.Reset()
	}

	for {
		line, err := br.ReadString('\n')
		if len(line) > 0 {
			switch {
			case isHeader(line):
				flush()
				doc := parseHeader(line)
				current = &doc
				inDoc = true
			case !inDoc && (strings.HasPrefix(line, "%") || strings.TrimSpace(line) == ""):
				// Directive preamble.
			default:
				if current == nil {
					// Body text with no header in front of it: an anonymous
					// document. Nothing can reference it, but keep it so
					// callers see the full stream.
					current = &Document{}
					inDoc = true
				}
				body.WriteString(line)
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read document stream: %w", err)
		}
	}
	flush()

	return docs, nil
}

func isHeader(line string) bool {
	if !strings.HasPrefix(line, documentMarker) {
		return false
	}
	rest := line[len(documentMarker):]
	return rest == "" || rest[0] == ' ' || rest[0] == '\t' || rest[0] == '\n' || rest[0] == '\r'
}

// parseHeader reads "--- !u!<classID> &<anchor>[ stripped]".
func parseHeader(line string) Document {
	var doc Document
	for _, tok := range strings.Fields(line[len(documentMarker):]) {
		switch {
		case strings.HasPrefix(tok, classTagPrefix):
			if id, err := strconv.Atoi(tok[len(classTagPrefix):]); err == nil {
				doc.ClassID = id
			}
		case strings.HasPrefix(tok, anchorPrefix):
			doc.Anchor = tok[len(anchorPrefix):]
		case tok == strippedFlag:
			doc.Stripped = true
		}
	}
	return doc
}

func decodeBody(doc *Document, data []byte) {
	if len(bytes.TrimSpace(data)) == 0 {
		doc.Err = serrors.DocumentError(ErrEmptyBody, doc.Anchor)
		return
	}

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		doc.Err = serrors.DocumentError(fmt.Errorf("failed to decode body: %w", err), doc.Anchor)
		return
	}

	top := resolve(&root)
	if top == nil || top.Kind != yaml.MappingNode || len(top.Content) < 2 {
		doc.Err = serrors.DocumentError(ErrNotMapping, doc.Anchor)
		return
	}

	doc.Type = top.Content[0].Value
	doc.Body = top.Content[1]
}
