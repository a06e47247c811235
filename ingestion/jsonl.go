package ingestion

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/poiesic/ragcore/core"
)

// maxLineSize bounds one JSON Lines record.
const maxLineSize = 16 << 20

// ReadJSONL decodes one piece per non-blank line.
//
//	{"id":"p1","content":"...","content_type":"TEXT","metadata":{"document":"a.pdf"}}
//	{"content":"...","content_type":"SUMMARY","related_ids":["p1"]}
func ReadJSONL(r io.Reader) ([]*core.Piece, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var pieces []*core.Piece
	for line := 1; scanner.Scan(); line++ {
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}
		var piece core.Piece
		if err := json.Unmarshal(raw, &piece); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		pieces = append(pieces, &piece)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return pieces, nil
}
