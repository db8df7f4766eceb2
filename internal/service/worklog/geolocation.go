package worklog

import (
	"fmt"
	"math"

	"github.com/cmlabs-hris/worklog-ledger/internal/domain/worklog"
	"github.com/cmlabs-hris/worklog-ledger/internal/pkg/validator"
)

// LocationPolicy decides how strictly punch locations are checked.
type LocationPolicy struct {
	Required          bool
	MaxAccuracyMeters float64
}

// ValidateLocation checks a reported fix and normalizes it. A nil input, or
// one without coordinates, is ErrLocationUnavailable. Anything malformed is
// ErrInvalidLocation.
func ValidateLocation(in *worklog.LocationInput, maxAccuracyMeters float64) (worklog.Location, error) {
	if in == nil || (in.Latitude == nil && in.Longitude == nil) {
		return worklog.Location{}, worklog.ErrLocationUnavailable
	}
	if in.Latitude == nil || in.Longitude == nil {
		return worklog.Location{}, fmt.Errorf("%w: latitude and longitude must be sent together", worklog.ErrInvalidLocation)
	}

	lat, lng := *in.Latitude, *in.Longitude
	if !validator.IsInRange(lat, -90, 90) {
		return worklog.Location{}, fmt.Errorf("%w: latitude must be between -90 and 90", worklog.ErrInvalidLocation)
	}
	if !validator.IsInRange(lng, -180, 180) {
		return worklog.Location{}, fmt.Errorf("%w: longitude must be between -180 and 180", worklog.ErrInvalidLocation)
	}

	loc := worklog.Location{
		Latitude:  roundTo(lat, 6),
		Longitude: roundTo(lng, 6),
	}

	if in.Accuracy != nil {
		acc := *in.Accuracy
		if !validator.IsFinite(acc) || acc < 0 {
			return worklog.Location{}, fmt.Errorf("%w: accuracy must be a non-negative number", worklog.ErrInvalidLocation)
		}
		if acc > maxAccuracyMeters {
			return worklog.Location{}, fmt.Errorf("%w: accuracy %.1fm exceeds the %.0fm limit", worklog.ErrInvalidLocation, acc, maxAccuracyMeters)
		}
		loc.AccuracyMeters = roundTo(acc, 1)
	}

	return loc, nil
}

// resolveLocation applies the policy to a punch. When location is optional a
// failed fix is dropped; an invalid one is also flagged.
func (p LocationPolicy) resolveLocation(in *worklog.LocationInput, sourceIP string) (worklog.Location, []worklog.Anomaly, error) {
	loc, err := ValidateLocation(in, p.MaxAccuracyMeters)
	if err == nil {
		loc.SourceIP = sourceIP
		return loc, nil, nil
	}
	if p.Required {
		return worklog.Location{}, nil, err
	}

	var anomalies []worklog.Anomaly
	if !in.IsEmpty() {
		anomalies = append(anomalies, worklog.AnomalyLocationRejected)
	}
	return worklog.Location{SourceIP: sourceIP}, anomalies, nil
}

func roundTo(f float64, places int) *float64 {
	pow := math.Pow(10, float64(places))
	r := math.Round(f*pow) / pow
	return &r
}
