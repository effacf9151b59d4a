// Package gpxroute reads driving routes from GPX files and writes fuel stop
// reports back as GPX, so routes can be evaluated without the mapping
// provider.
package gpxroute

import (
	"errors"
	"fmt"
	"io"

	"github.com/rubiojr/fuelroute/internal/fuelroute"
	"github.com/tkrajina/gpxgo/gpx"
)

const (
	gpxVersion = "1.1"
	creator    = "fuelroute"
)

var ErrTooFewPoints = errors.New("route needs at least two points")

// Load parses the GPX file at path into a Route.
func Load(path string) (*fuelroute.Route, error) {
	g, err := gpx.ParseFile(path)
	if err != nil {
		return nil, fmt.Errorf("error parsing GPX file: %w", err)
	}
	return FromGPX(g)
}

// FromGPX builds a Route from the points of all track segments, in order.
// Files without tracks fall back to their routes. Every pair of consecutive
// points becomes a step.
func FromGPX(g *gpx.GPX) (*fuelroute.Route, error) {
	if g == nil {
		return nil, ErrTooFewPoints
	}

	points := trackPoints(g)
	if len(points) == 0 {
		for _, rte := range g.Routes {
			points = append(points, rte.Points...)
		}
	}
	if len(points) < 2 {
		return nil, ErrTooFewPoints
	}

	route := &fuelroute.Route{
		Start: coordinate(points[0]),
		Steps: make([]fuelroute.Step, 0, len(points)-1),
	}
	for i := 1; i < len(points); i++ {
		prev, cur := points[i-1], points[i]
		meters := gpx.Distance2D(prev.Latitude, prev.Longitude, cur.Latitude, cur.Longitude, true)
		route.DistanceMeters += meters
		route.Steps = append(route.Steps, fuelroute.Step{
			DistanceMeters: meters,
			EndLocation:    coordinate(cur),
		})
	}
	return route, nil
}

func trackPoints(g *gpx.GPX) []gpx.GPXPoint {
	var points []gpx.GPXPoint
	for _, track := range g.Tracks {
		for _, segment := range track.Segments {
			points = append(points, segment.Points...)
		}
	}
	return points
}

func coordinate(p gpx.GPXPoint) fuelroute.Coordinate {
	return fuelroute.Coordinate{Lat: p.Latitude, Lng: p.Longitude}
}

// WriteReport writes route as a GPX track with one waypoint per selected fuel
// station, named after the station and its price.
func WriteReport(w io.Writer, route *fuelroute.Route, report *fuelroute.Report) error {
	if route == nil || report == nil {
		return errors.New("route and report are required")
	}

	segment := gpx.GPXTrackSegment{}
	segment.Points = append(segment.Points, point(route.Start))
	for _, step := range route.Steps {
		segment.Points = append(segment.Points, point(step.EndLocation))
	}

	g := &gpx.GPX{
		Creator: creator,
		Tracks: []gpx.GPXTrack{{
			Name:     "route",
			Segments: []gpx.GPXTrackSegment{segment},
		}},
	}

	for _, st := range report.FuelStops {
		wpt := point(st.Coordinate)
		wpt.Name = fmt.Sprintf("%s ($%.3f)", st.Name, st.Price)
		wpt.Description = fmt.Sprintf("%s, %s, %s", st.Address, st.City, st.State)
		g.Waypoints = append(g.Waypoints, wpt)
	}

	data, err := g.ToXml(gpx.ToXmlParams{Version: gpxVersion, Indent: true})
	if err != nil {
		return fmt.Errorf("error encoding GPX: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("error writing GPX: %w", err)
	}
	return nil
}

func point(c fuelroute.Coordinate) gpx.GPXPoint {
	p := gpx.GPXPoint{}
	p.Latitude = c.Lat
	p.Longitude = c.Lng
	return p
}
