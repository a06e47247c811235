package core

import (
	"fmt"
	"maps"
	"path"
	"slices"
	"strings"
)

// FileExtensions are the document extensions produced by ingestion.
// A file_name filter value matches stored names with or without one of them.
var FileExtensions = []string{".pdf", ".md", ".xml", ".docx", ".pptx", ".epub"}

// FilterSet maps a dimension to the values it may take.
// A piece matches when every dimension matches at least one value.
type FilterSet map[string][]string

// Clone returns a deep copy. Cloning nil yields an empty set.
func (f FilterSet) Clone() FilterSet {
	out := make(FilterSet, len(f))
	for k, v := range f {
		out[k] = slices.Clone(v)
	}
	return out
}

// Has reports whether the dimension is constrained.
func (f FilterSet) Has(key string) bool {
	_, ok := f[key]
	return ok
}

// With returns a copy with key set to values.
func (f FilterSet) With(key string, values ...string) FilterSet {
	out := f.Clone()
	out[key] = slices.Clone(values)
	return out
}

// Keys returns the constrained dimensions in sorted order.
func (f FilterSet) Keys() []string {
	return slices.Sorted(maps.Keys(f))
}

// ContentTypes returns the distinct content types named by the "type" dimension.
func (f FilterSet) ContentTypes() []ContentType {
	values := f[MetadataKeyType]
	out := make([]ContentType, 0, len(values))
	for _, v := range values {
		if c, err := ParseContentType(v); err == nil && !slices.Contains(out, c) {
			out = append(out, c)
		}
	}
	return out
}

// MatchesPiece reports whether the piece satisfies every dimension.
func (f FilterSet) MatchesPiece(p *Piece) bool {
	for key, allowed := range f {
		if len(allowed) == 0 {
			continue
		}
		if key == MetadataKeyFileName {
			if !matchFileName(p, allowed) {
				return false
			}
			continue
		}
		if key == MetadataKeyType {
			if !matchContentType(p.ContentType, allowed) {
				return false
			}
			continue
		}
		v, ok := p.Attribute(key)
		if !ok || !matchAny(attributeValues(v), allowed) {
			return false
		}
	}
	return true
}

func matchAny(values, allowed []string) bool {
	for _, v := range values {
		if slices.Contains(allowed, v) {
			return true
		}
	}
	return false
}

// matchContentType compares content type names case-insensitively.
func matchContentType(c ContentType, allowed []string) bool {
	for _, a := range allowed {
		if parsed, err := ParseContentType(a); err == nil && parsed == c {
			return true
		}
	}
	return false
}

// matchFileName matches against both file_name and document metadata.
func matchFileName(p *Piece, allowed []string) bool {
	candidates := make(map[string]struct{})
	for _, a := range allowed {
		base := path.Base(strings.ReplaceAll(a, "\\", "/"))
		stem := strings.TrimSuffix(base, path.Ext(base))
		candidates[base] = struct{}{}
		candidates[stem] = struct{}{}
		for _, ext := range FileExtensions {
			candidates[stem+ext] = struct{}{}
		}
	}
	for _, key := range []string{MetadataKeyFileName, MetadataKeyDocument} {
		v, ok := p.Metadata[key]
		if !ok {
			continue
		}
		for _, s := range attributeValues(v) {
			if _, hit := candidates[s]; hit {
				return true
			}
		}
	}
	return false
}

func attributeValues(v any) []string {
	switch t := v.(type) {
	case nil:
		return nil
	case string:
		return []string{t}
	case []string:
		return t
	case []any:
		out := make([]string, 0, len(t))
		for _, e := range t {
			out = append(out, fmt.Sprint(e))
		}
		return out
	default:
		return []string{fmt.Sprint(t)}
	}
}
