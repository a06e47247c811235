package core

import (
	"fmt"
	"strings"
	"time"
)

// ContentType classifies what a piece holds.
type ContentType string

const (
	ContentTypeText    ContentType = "TEXT"
	ContentTypeTable   ContentType = "TABLE"
	ContentTypeImage   ContentType = "IMAGE"
	ContentTypeSummary ContentType = "SUMMARY"
)

// ContentTypes lists every known content type in canonical order.
func ContentTypes() []ContentType {
	return []ContentType{ContentTypeText, ContentTypeTable, ContentTypeImage, ContentTypeSummary}
}

// Valid reports whether c is a known content type.
func (c ContentType) Valid() bool {
	switch c {
	case ContentTypeText, ContentTypeTable, ContentTypeImage, ContentTypeSummary:
		return true
	}
	return false
}

func (c ContentType) String() string {
	return string(c)
}

// ParseContentType parses a content type name case-insensitively.
func ParseContentType(s string) (ContentType, error) {
	c := ContentType(strings.ToUpper(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidContentType, s)
	}
	return c, nil
}

// Metadata keys with meaning to the store and the filters.
const (
	MetadataKeyType     = "type"
	MetadataKeyDocument = "document"
	MetadataKeyFileName = "file_name"
)

// Piece is the smallest retrievable unit of content.
// Score is nil until a similarity search or reranker assigns one.
type Piece struct {
	Id          string         `json:"id"`
	Content     string         `json:"content"`
	ContentType ContentType    `json:"content_type"`
	RelatedIds  []string       `json:"related_ids,omitempty"`
	Score       *float32       `json:"score,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	Vector      []float32      `json:"-"`
	InsertedAt  time.Time      `json:"-"`
	UpdatedAt   time.Time      `json:"-"`
}

// HasScore reports whether the piece carries a score.
func (p *Piece) HasScore() bool {
	return p.Score != nil
}

// ScoreValue returns the score or 0 when unscored.
func (p *Piece) ScoreValue() float32 {
	if p.Score == nil {
		return 0
	}
	return *p.Score
}

// WithScore returns a shallow copy of the piece carrying score.
func (p *Piece) WithScore(score float32) *Piece {
	c := *p
	c.Score = &score
	return &c
}

// Attribute resolves a filter dimension against the piece.
// "type" maps to the content type; everything else is read from Metadata.
func (p *Piece) Attribute(key string) (any, bool) {
	if key == MetadataKeyType {
		return string(p.ContentType), true
	}
	v, ok := p.Metadata[key]
	return v, ok
}

// Score is a convenience constructor for optional scores.
func Score(v float32) *float32 {
	return &v
}

// Message is one prior chat message supplied by the caller.
type Message struct {
	Role string `json:"role"`
	Text string `json:"message"`
}
