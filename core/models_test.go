package core

import (
	"errors"
	"testing"
)

func TestParseContentType(t *testing.T) {
	tests := []struct {
		in      string
		want    ContentType
		wantErr bool
	}{
		{in: "TEXT", want: ContentTypeText},
		{in: "table", want: ContentTypeTable},
		{in: " Image ", want: ContentTypeImage},
		{in: "summary", want: ContentTypeSummary},
		{in: "video", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseContentType(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidContentType) {
					t.Errorf("ParseContentType(%q) error = %v, want %v", tt.in, err, ErrInvalidContentType)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseContentType(%q) unexpected error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseContentType(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestPiece_WithScore(t *testing.T) {
	original := &Piece{Id: "a", Content: "x", ContentType: ContentTypeText}

	scored := original.WithScore(0.75)

	if original.HasScore() {
		t.Errorf("WithScore() mutated the original piece")
	}
	if !scored.HasScore() || scored.ScoreValue() != 0.75 {
		t.Errorf("WithScore() score = %v, want 0.75", scored.ScoreValue())
	}
	if scored.Id != original.Id {
		t.Errorf("WithScore() id = %q, want %q", scored.Id, original.Id)
	}
}

func TestPiece_Attribute(t *testing.T) {
	p := &Piece{
		Id:          "a",
		ContentType: ContentTypeTable,
		Metadata:    map[string]any{"document": "plan.pdf"},
	}

	v, ok := p.Attribute("type")
	if !ok || v != "TABLE" {
		t.Errorf("Attribute(type) = %v, %v", v, ok)
	}

	v, ok = p.Attribute("document")
	if !ok || v != "plan.pdf" {
		t.Errorf("Attribute(document) = %v, %v", v, ok)
	}

	if _, ok := p.Attribute("missing"); ok {
		t.Errorf("Attribute(missing) reported present")
	}
}
