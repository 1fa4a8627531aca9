package firestore

import (
	"google.golang.org/genproto/googleapis/type/latlng"

	"github.com/aretw0/treespotter/pkg/core"
)

// encodeFields converts domain values into types the Firestore client stores
// natively. Geo points become latlng.LatLng so the console shows them as such.
func encodeFields(fields core.Fields) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		out[k] = encodeValue(v)
	}
	return out
}

func encodeValue(v any) any {
	switch p := v.(type) {
	case core.GeoPoint:
		return &latlng.LatLng{Latitude: p.Latitude, Longitude: p.Longitude}
	case *core.GeoPoint:
		if p == nil {
			return nil
		}
		return &latlng.LatLng{Latitude: p.Latitude, Longitude: p.Longitude}
	default:
		return v
	}
}

func decodeFields(data map[string]any) core.Fields {
	out := make(core.Fields, len(data))
	for k, v := range data {
		if ll, ok := v.(*latlng.LatLng); ok {
			if ll == nil {
				out[k] = nil
				continue
			}
			out[k] = core.GeoPoint{Latitude: ll.GetLatitude(), Longitude: ll.GetLongitude()}
			continue
		}
		out[k] = v
	}
	return out
}
