package store

import (
	"fmt"

	"github.com/aretw0/treespotter/pkg/core"
)

// EncodeTree converts a tree into stored fields. The handle is never stored.
func EncodeTree(t *core.Tree) core.Fields {
	f := core.Fields{
		core.FieldDateSpotted: t.DateSpotted,
		core.FieldFavorite:    t.Favorite,
	}
	if t.Name != "" {
		f[core.FieldName] = t.Name
	}
	if t.Location != nil {
		f[core.FieldLocation] = *t.Location
	}
	return f
}

// DecodeTree converts a stored document into a tree carrying its handle.
func DecodeTree(doc core.Document) (*core.Tree, error) {
	name, err := doc.Fields.String(core.FieldName)
	if err != nil {
		return nil, err
	}
	spotted, err := doc.Fields.Time(core.FieldDateSpotted)
	if err != nil {
		return nil, err
	}
	loc, err := doc.Fields.GeoPoint(core.FieldLocation)
	if err != nil {
		return nil, err
	}
	fav, err := doc.Fields.Bool(core.FieldFavorite)
	if err != nil {
		return nil, err
	}
	return &core.Tree{
		Name:        name,
		DateSpotted: spotted,
		Location:    loc,
		Favorite:    fav,
		Ref:         doc.Ref,
	}, nil
}

// checkField validates a single-field update against the schema.
func checkField(field string, value any) (any, error) {
	switch field {
	case core.FieldName:
		if _, ok := value.(string); ok {
			return value, nil
		}
	case core.FieldFavorite:
		if _, ok := value.(bool); ok {
			return value, nil
		}
	case core.FieldDateSpotted:
		if _, err := (core.Fields{field: value}).Time(field); err == nil {
			return value, nil
		}
	case core.FieldLocation:
		p, err := (core.Fields{field: value}).GeoPoint(field)
		if err == nil {
			if p == nil {
				return nil, nil
			}
			return *p, p.Validate()
		}
	default:
		return nil, fmt.Errorf("%w: %q", core.ErrUnknownField, field)
	}
	return nil, fmt.Errorf("%w: field %q cannot hold %T", core.ErrInvalidDocument, field, value)
}
