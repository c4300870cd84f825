// CamGrid - Traffic Camera Telemetry and Geographic Visualization
// Copyright 2026 OpsLens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/opslens/camgrid

package geomap

import (
	"fmt"

	"github.com/opslens/camgrid/internal/config"
	"github.com/opslens/camgrid/internal/models"
)

// Builder turns a validated camera batch into the marker sets and the
// geographic hierarchy the clustering engine selects from.
type Builder struct {
	bands    []config.RegionBand
	fallback string
}

// Hierarchy is the three-level aggregate view of a camera batch. Every
// marker in it is anchored at an exact member position.
type Hierarchy struct {
	Country  []models.MarkerData
	City     []models.MarkerData
	District []models.MarkerData
}

// NewBuilder creates a Builder with the given latitude bands. Bands must
// be ordered by descending MinLat; fallback names everything below the
// last band.
func NewBuilder(bands []config.RegionBand, fallback string) *Builder {
	if len(bands) == 0 {
		bands = []config.RegionBand{
			{Name: "North", MinLat: 16.5},
			{Name: "Central", MinLat: 14},
			{Name: "South", MinLat: 11},
		}
	}
	if fallback == "" {
		fallback = "South-Island"
	}
	return &Builder{bands: bands, fallback: fallback}
}

// RegionFor names the latitude band a camera falls into.
func (b *Builder) RegionFor(lat float64) string {
	for _, band := range b.bands {
		if lat > band.MinLat {
			return band.Name
		}
	}
	return b.fallback
}

// CameraMarkers builds one marker per camera-level entry. When the source
// grouped cameras into a location bucket, the bucket itself is the entry;
// its nested cameras are not expanded here.
func (b *Builder) CameraMarkers(cams []models.CameraLocation) []models.MarkerData {
	out := make([]models.MarkerData, 0, len(cams))
	for _, cam := range cams {
		if m := Validate(cam); m != nil {
			m.Area = b.RegionFor(cam.Lat)
			out = append(out, *m)
		}
	}
	return out
}

// IndividualMarkers fully expands nested individualCameras for high zoom.
// Entries without a nested group stand for themselves.
func (b *Builder) IndividualMarkers(cams []models.CameraLocation) []models.MarkerData {
	var out []models.MarkerData
	for _, cam := range cams {
		members := cam.IndividualCameras
		if len(members) == 0 {
			members = []models.CameraLocation{cam}
		}
		for _, member := range members {
			if m := Validate(member); m != nil {
				m.Area = b.RegionFor(member.Lat)
				out = append(out, *m)
			}
		}
	}
	return out
}

// BuildHierarchy produces the country/city/district aggregate levels from
// a validated batch. Input order decides each aggregate's anchor member.
func (b *Builder) BuildHierarchy(cams []models.CameraLocation) Hierarchy {
	cams = FilterValid(cams)
	if len(cams) == 0 {
		return Hierarchy{}
	}

	var h Hierarchy

	// Country: a single marker on the first camera, summing everything.
	var total int64
	for i := range cams {
		total += cams[i].CountForType()
	}
	h.Country = []models.MarkerData{{
		Position: models.LatLng{Lat: cams[0].Lat, Lng: cams[0].Lng},
		Label:    "All cameras",
		Count:    total,
		Level:    models.LevelCountry,
		ID:       "country",
	}}

	// City: one marker per latitude band, anchored at the band's first
	// member. Band order follows configuration so output is stable.
	grouped := make(map[string][]models.CameraLocation)
	for _, cam := range cams {
		region := b.RegionFor(cam.Lat)
		grouped[region] = append(grouped[region], cam)
	}
	for _, name := range b.regionOrder() {
		members := grouped[name]
		if len(members) == 0 {
			continue
		}
		var sum int64
		for i := range members {
			sum += members[i].CountForType()
		}
		h.City = append(h.City, models.MarkerData{
			Position: models.LatLng{Lat: members[0].Lat, Lng: members[0].Lng},
			Label:    name,
			Count:    sum,
			Level:    models.LevelCity,
			ID:       "city:" + name,
			Area:     name,
		})

		// District: the band's cameras in contiguous thirds, each chunk
		// anchored at its own first member.
		h.District = append(h.District, b.districtMarkers(name, members)...)
	}

	return h
}

func (b *Builder) districtMarkers(region string, members []models.CameraLocation) []models.MarkerData {
	chunkSize := (len(members) + 2) / 3 // ceil(n/3)
	if chunkSize == 0 {
		return nil
	}
	var out []models.MarkerData
	for start, n := 0, 0; start < len(members); start, n = start+chunkSize, n+1 {
		end := start + chunkSize
		if end > len(members) {
			end = len(members)
		}
		chunk := members[start:end]
		var sum int64
		for i := range chunk {
			sum += chunk[i].CountForType()
		}
		out = append(out, models.MarkerData{
			Position: models.LatLng{Lat: chunk[0].Lat, Lng: chunk[0].Lng},
			Label:    fmt.Sprintf("%s %d", region, n+1),
			Count:    sum,
			Level:    models.LevelDistrict,
			ID:       fmt.Sprintf("district:%s:%d", region, n),
			Area:     region,
		})
	}
	return out
}

// regionOrder lists configured band names plus the fallback, in evaluation
// order.
func (b *Builder) regionOrder() []string {
	names := make([]string, 0, len(b.bands)+1)
	for _, band := range b.bands {
		names = append(names, band.Name)
	}
	return append(names, b.fallback)
}
