package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/carthorse/carthorse/internal/geomodel"
	"github.com/carthorse/carthorse/internal/prepare"
)

// featureCollection is the minimal GeoJSON shape this loader understands:
// a FeatureCollection of LineString features, coordinates in
// [lng, lat] or [lng, lat, elevation] order. No third-party GeoJSON
// library appears anywhere in the retrieved corpus, so this is a
// deliberately narrow encoding/json reader rather than a general-purpose
// GeoJSON parser (see DESIGN.md).
type featureCollection struct {
	Features []struct {
		Properties struct {
			Name       string  `json:"name"`
			SourceID   string  `json:"source_id"`
			ExternalID *string `json:"external_id"`
			RegionKey  string  `json:"region_key"`
		} `json:"properties"`
		Geometry struct {
			Type        string      `json:"type"`
			Coordinates [][]float64 `json:"coordinates"`
		} `json:"geometry"`
	} `json:"features"`
}

// loadRawTrails reads a GeoJSON FeatureCollection of LineString trails
// from path into the Preparer's input shape.
func loadRawTrails(path, defaultRegionKey string) ([]prepare.RawTrail, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var fc featureCollection
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	out := make([]prepare.RawTrail, 0, len(fc.Features))
	for i, f := range fc.Features {
		if f.Geometry.Type != "LineString" {
			continue
		}
		pts := make([]geomodel.Point3D, 0, len(f.Geometry.Coordinates))
		for _, c := range f.Geometry.Coordinates {
			if len(c) < 2 {
				continue
			}
			p := geomodel.Point3D{X: c[0], Y: c[1]}
			if len(c) >= 3 {
				p.Z = c[2]
			}
			pts = append(pts, p)
		}

		region := f.Properties.RegionKey
		if region == "" {
			region = defaultRegionKey
		}
		sourceID := f.Properties.SourceID
		if sourceID == "" {
			sourceID = fmt.Sprintf("feature-%d", i)
		}

		out = append(out, prepare.RawTrail{
			SourceID:   sourceID,
			ExternalID: f.Properties.ExternalID,
			RegionKey:  region,
			Name:       f.Properties.Name,
			Geometry:   geomodel.LineString{Points: pts},
		})
	}
	return out, nil
}
