package core

import (
	"fmt"
	"time"
)

// Fields holds the stored values of a document keyed by field name.
//
// Canonical value types are string, time.Time, GeoPoint and bool. Adapters may
// hand back serialized forms (RFC 3339 strings, latitude/longitude maps, any
// numeric type); the accessors below accept both.
type Fields map[string]any

// Document is a single stored record together with its handle.
type Document struct {
	Ref    Ref
	Fields Fields
}

// Clone returns a shallow copy of the fields.
func (f Fields) Clone() Fields {
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// String returns the string value of key, or "" when absent.
func (f Fields) String(key string) (string, error) {
	v, ok := f[key]
	if !ok || v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: field %q is %T, want string", ErrInvalidDocument, key, v)
	}
	return s, nil
}

// Bool returns the boolean value of key, or false when absent.
func (f Fields) Bool(key string) (bool, error) {
	v, ok := f[key]
	if !ok || v == nil {
		return false, nil
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("%w: field %q is %T, want bool", ErrInvalidDocument, key, v)
	}
	return b, nil
}

// Time returns the timestamp value of key, or the zero time when absent.
func (f Fields) Time(key string) (time.Time, error) {
	v, ok := f[key]
	if !ok || v == nil {
		return time.Time{}, nil
	}
	switch t := v.(type) {
	case time.Time:
		return t, nil
	case *time.Time:
		if t == nil {
			return time.Time{}, nil
		}
		return *t, nil
	case string:
		parsed, err := time.Parse(time.RFC3339Nano, t)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: field %q: %v", ErrInvalidDocument, key, err)
		}
		return parsed, nil
	default:
		return time.Time{}, fmt.Errorf("%w: field %q is %T, want timestamp", ErrInvalidDocument, key, v)
	}
}

// GeoPoint returns the location value of key, or nil when absent.
func (f Fields) GeoPoint(key string) (*GeoPoint, error) {
	v, ok := f[key]
	if !ok || v == nil {
		return nil, nil
	}
	switch p := v.(type) {
	case GeoPoint:
		return &p, nil
	case *GeoPoint:
		if p == nil {
			return nil, nil
		}
		cp := *p
		return &cp, nil
	case map[string]any:
		lat, err := toFloat(p["latitude"])
		if err != nil {
			return nil, fmt.Errorf("%w: field %q latitude: %v", ErrInvalidDocument, key, err)
		}
		lon, err := toFloat(p["longitude"])
		if err != nil {
			return nil, fmt.Errorf("%w: field %q longitude: %v", ErrInvalidDocument, key, err)
		}
		return &GeoPoint{Latitude: lat, Longitude: lon}, nil
	default:
		return nil, fmt.Errorf("%w: field %q is %T, want geo point", ErrInvalidDocument, key, v)
	}
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	case nil:
		return 0, fmt.Errorf("missing")
	default:
		return 0, fmt.Errorf("unexpected type %T", v)
	}
}
