package document

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"reflect"
)

var errNotObject = errors.New("record is not a JSON object")

// UnmarshalJSON decodes the four collections. A collection that is not an
// array decodes as empty and a record that is not an object is skipped;
// neither fails the document.
func (d *Document) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	d.Rects = decodeCollection[Rect](raw, "rects")
	d.Texts = decodeCollection[TextLabel](raw, "texts")
	d.Categories = decodeCollection[Category](raw, "categories")
	d.Polygons = decodeCollection[Polygon](raw, "polygons")
	return nil
}

func decodeCollection[T any](raw map[string]json.RawMessage, key string) []*T {
	data, ok := raw[key]
	if !ok || isNull(data) {
		return []*T{}
	}
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		slog.Debug("document collection ignored", "collection", key, "error", err)
		return []*T{}
	}
	out := make([]*T, 0, len(items))
	for i, item := range items {
		if isNull(item) {
			continue
		}
		v := new(T)
		if err := json.Unmarshal(item, v); err != nil {
			slog.Debug("document record skipped", "collection", key, "index", i, "error", err)
			continue
		}
		out = append(out, v)
	}
	return out
}

// decodeFields sets each known field present in data. fields maps JSON
// keys to pointers into a record already holding its defaults. A field
// that is null or fails to decode keeps its default. Integer fields accept
// fractional numbers, truncated.
func decodeFields(record string, data []byte, fields map[string]any) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil || raw == nil {
		return errNotObject
	}
	for key, value := range raw {
		dst, ok := fields[key]
		if !ok || isNull(value) {
			continue
		}
		if err := decodeField(dst, value); err != nil {
			slog.Debug("document field ignored", "record", record, "field", key, "error", err)
		}
	}
	return nil
}

// decodeField decodes into a scratch value first so a failed decode leaves
// dst untouched.
func decodeField(dst any, value json.RawMessage) error {
	if n, ok := dst.(*int); ok {
		var f float64
		if err := json.Unmarshal(value, &f); err != nil {
			return err
		}
		if math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) > math.MaxInt32 {
			return errors.New("integer out of range")
		}
		*n = int(f)
		return nil
	}
	target := reflect.ValueOf(dst).Elem()
	scratch := reflect.New(target.Type())
	if err := json.Unmarshal(value, scratch.Interface()); err != nil {
		return err
	}
	target.Set(scratch.Elem())
	return nil
}

func isNull(data []byte) bool {
	return bytes.Equal(bytes.TrimSpace(data), []byte("null"))
}

// ErrTooFewVertices rejects an edit that would leave a polyline or zone
// below its vertex floor.
var ErrTooFewVertices = errors.New("too few vertices")

// ApplyPatch sets the fields named in patch on s, as an edit dialog does.
// Unlike decoding, an unknown or malformed field rejects the whole patch,
// and s is left unchanged.
func ApplyPatch(s Shape, patch []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(patch, &raw); err != nil {
		return fmt.Errorf("patch: %w", err)
	}
	if raw == nil {
		return fmt.Errorf("patch: %w", errNotObject)
	}

	var (
		next   Shape
		fields map[string]any
	)
	switch v := s.(type) {
	case *Rect:
		c := *v
		next, fields = &c, c.fields()
	case *TextLabel:
		c := *v
		next, fields = &c, c.fields()
	case *Polygon:
		c := *v
		next, fields = &c, c.fields()
	case *Category:
		c := *v
		next, fields = &c, c.fields()
	default:
		return fmt.Errorf("patch: unsupported shape %T", s)
	}

	for key, value := range raw {
		dst, ok := fields[key]
		if !ok {
			return fmt.Errorf("patch: unknown field %q", key)
		}
		if isNull(value) {
			continue
		}
		if err := decodeField(dst, value); err != nil {
			return fmt.Errorf("patch %s: %w", key, err)
		}
	}
	if _, touched := raw["points"]; touched {
		if vs, ok := next.(VertexShape); ok && len(vs.Vertices()) < vs.MinVertices() {
			return ErrTooFewVertices
		}
	}

	switch v := s.(type) {
	case *Rect:
		*v = *next.(*Rect)
		v.Normalize()
	case *TextLabel:
		*v = *next.(*TextLabel)
		v.Normalize()
	case *Polygon:
		*v = *next.(*Polygon)
	case *Category:
		*v = *next.(*Category)
	}
	return nil
}
