package badger

import (
	"fmt"

	"github.com/poiesic/ragcore/core"
)

// Key prefixes for different data types
const (
	piecePrefix         = "pierec"
	pieceTypePrefix     = "pietyp"
	pieceDocumentPrefix = "piedoc"
)

// makePieceKey generates a key for a piece by id.
func makePieceKey(id string) []byte {
	return []byte(fmt.Sprintf("%s:%s", piecePrefix, id))
}

// pieceKeyPrefix is the iteration prefix of all primary piece keys.
func pieceKeyPrefix() []byte {
	return []byte(piecePrefix + ":")
}

// pieceIDFromKey strips the primary key prefix.
func pieceIDFromKey(key []byte) string {
	return string(key[len(piecePrefix)+1:])
}

// makePieceTypeKey generates a composite key for the content type index.
// Format: prefix:type:id
func makePieceTypeKey(contentType core.ContentType, id string) []byte {
	return []byte(fmt.Sprintf("%s:%s:%s", pieceTypePrefix, contentType, id))
}

// makePartialPieceTypeKey generates the iteration prefix for one content type.
// Format: prefix:type:
func makePartialPieceTypeKey(contentType core.ContentType) []byte {
	return []byte(fmt.Sprintf("%s:%s:", pieceTypePrefix, contentType))
}

// makePieceDocumentKey generates a composite key for the document index.
// Document names may contain ':' so a NUL byte separates them from the id.
// Format: prefix:document\x00id
func makePieceDocumentKey(document, id string) []byte {
	return []byte(fmt.Sprintf("%s:%s\x00%s", pieceDocumentPrefix, document, id))
}

// makePartialPieceDocumentKey generates the iteration prefix for one document.
func makePartialPieceDocumentKey(document string) []byte {
	return []byte(fmt.Sprintf("%s:%s\x00", pieceDocumentPrefix, document))
}

// pieceDocument returns the document a piece belongs to, or "".
func pieceDocument(p *core.Piece) string {
	if doc, ok := p.Metadata[core.MetadataKeyDocument].(string); ok {
		return doc
	}
	return ""
}
