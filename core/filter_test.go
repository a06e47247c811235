package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterSet_CloneAndWith(t *testing.T) {
	original := FilterSet{"document": {"a.pdf"}}

	withType := original.With("type", "TEXT")

	assert.False(t, original.Has("type"), "With must not mutate the receiver")
	assert.True(t, withType.Has("type"))
	assert.Equal(t, []string{"a.pdf"}, withType["document"])

	withType["document"][0] = "changed"
	assert.Equal(t, "a.pdf", original["document"][0])

	var empty FilterSet
	assert.NotNil(t, empty.Clone())
	assert.Equal(t, []string{"document", "type"}, withType.Keys())
}

func TestFilterSet_MatchesPiece(t *testing.T) {
	piece := &Piece{
		Id:          "p1",
		Content:     "x",
		ContentType: ContentTypeText,
		Metadata: map[string]any{
			"document":  "bebauungsplan-12.pdf",
			"file_name": "bebauungsplan-12.pdf",
			"tags":      []any{"zoning", "berlin"},
		},
	}

	t.Run("empty filter matches everything", func(t *testing.T) {
		assert.True(t, FilterSet{}.MatchesPiece(piece))
	})

	t.Run("type dimension uses content type", func(t *testing.T) {
		assert.True(t, FilterSet{"type": {"TEXT"}}.MatchesPiece(piece))
		assert.False(t, FilterSet{"type": {"TABLE", "IMAGE"}}.MatchesPiece(piece))
	})

	t.Run("type dimension ignores case", func(t *testing.T) {
		assert.True(t, FilterSet{"type": {"text"}}.MatchesPiece(piece))
		assert.True(t, FilterSet{"type": {" Text "}}.MatchesPiece(piece))
		assert.True(t, FilterSet{"type": {"table", "text"}}.MatchesPiece(piece))
		assert.False(t, FilterSet{"type": {"table"}}.MatchesPiece(piece))
		assert.False(t, FilterSet{"type": {"bogus"}}.MatchesPiece(piece))
	})

	t.Run("list metadata matches any element", func(t *testing.T) {
		assert.True(t, FilterSet{"tags": {"berlin"}}.MatchesPiece(piece))
		assert.False(t, FilterSet{"tags": {"munich"}}.MatchesPiece(piece))
	})

	t.Run("missing dimension does not match", func(t *testing.T) {
		assert.False(t, FilterSet{"author": {"x"}}.MatchesPiece(piece))
	})

	t.Run("all dimensions must match", func(t *testing.T) {
		assert.False(t, FilterSet{"type": {"TEXT"}, "tags": {"munich"}}.MatchesPiece(piece))
	})

	t.Run("file_name matches by stem", func(t *testing.T) {
		assert.True(t, FilterSet{"file_name": {"bebauungsplan-12"}}.MatchesPiece(piece))
		assert.True(t, FilterSet{"file_name": {"bebauungsplan-12.docx"}}.MatchesPiece(piece))
		assert.True(t, FilterSet{"file_name": {"uploads/bebauungsplan-12.pdf"}}.MatchesPiece(piece))
		assert.False(t, FilterSet{"file_name": {"lbo"}}.MatchesPiece(piece))
	})

	t.Run("file_name falls back to document", func(t *testing.T) {
		p := &Piece{Id: "p2", ContentType: ContentTypeText, Metadata: map[string]any{"document": "lbo.md"}}
		assert.True(t, FilterSet{"file_name": {"lbo"}}.MatchesPiece(p))
	})
}

func TestFilterSet_ContentTypes(t *testing.T) {
	f := FilterSet{"type": {"text", "bogus", "TABLE"}}
	assert.Equal(t, []ContentType{ContentTypeText, ContentTypeTable}, f.ContentTypes())
}
