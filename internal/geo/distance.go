// internal/geo/distance.go
package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/javajoker/commerce-jobs/internal/config"
)

// Distance is a driving distance between two cities. Unreachable marks a
// failed lookup explicitly so callers sort instead of doing arithmetic on an
// infinity sentinel.
type Distance struct {
	Km          float64 `json:"km"`
	Unreachable bool    `json:"unreachable"`
}

func Unreachable() Distance {
	return Distance{Unreachable: true}
}

// Less orders distances ascending with unreachable last.
func (d Distance) Less(other Distance) bool {
	if d.Unreachable {
		return false
	}
	if other.Unreachable {
		return true
	}
	return d.Km < other.Km
}

// Estimator is the distance capability the warehouse selector depends on.
type Estimator interface {
	// EstimateKm never fails: an unresolvable or unroutable pair comes back
	// as an unreachable distance so ranking still completes.
	EstimateKm(ctx context.Context, cityA, cityB string) Distance
}

// RoutingEstimator resolves both cities through the geocoder and asks an
// OSRM-style routing service for the driving distance.
type RoutingEstimator struct {
	geocoder *Geocoder
	baseURL  string
	client   *http.Client
}

func NewRoutingEstimator(cfg config.GeoConfig, geocoder *Geocoder) *RoutingEstimator {
	return &RoutingEstimator{
		geocoder: geocoder,
		baseURL:  strings.TrimRight(cfg.RouteBaseURL, "/"),
		client: &http.Client{
			Timeout: time.Duration(cfg.RequestTimeout) * time.Second,
		},
	}
}

type routeResponse struct {
	Code   string `json:"code"`
	Routes []struct {
		Distance float64 `json:"distance"` // in meters
	} `json:"routes"`
}

func (e *RoutingEstimator) EstimateKm(ctx context.Context, cityA, cityB string) Distance {
	from, err := e.geocoder.Resolve(ctx, cityA)
	if err != nil {
		logrus.WithError(err).WithField("city", cityA).Debug("Geocoding failed, treating as unreachable")
		return Unreachable()
	}

	to, err := e.geocoder.Resolve(ctx, cityB)
	if err != nil {
		logrus.WithError(err).WithField("city", cityB).Debug("Geocoding failed, treating as unreachable")
		return Unreachable()
	}

	endpoint := fmt.Sprintf("%s/route/v1/driving/%f,%f;%f,%f?overview=false",
		e.baseURL, from.Longitude, from.Latitude, to.Longitude, to.Latitude)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Unreachable()
	}

	resp, err := e.client.Do(req)
	if err != nil {
		logrus.WithError(err).Debug("Routing request failed, treating as unreachable")
		return Unreachable()
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Unreachable()
	}

	var route routeResponse
	if err := json.NewDecoder(resp.Body).Decode(&route); err != nil {
		return Unreachable()
	}

	if route.Code != "Ok" || len(route.Routes) == 0 {
		return Unreachable()
	}

	return Distance{Km: route.Routes[0].Distance / 1000}
}
