package doctors

import (
	"context"
	"errors"
	"fmt"

	"github.com/wolfman30/patient-booking/internal/hospitalapi"
	"github.com/wolfman30/patient-booking/pkg/logging"
)

// ErrNotFound is returned when the backend has no usable profile.
var ErrNotFound = errors.New("doctors: doctor not found")

// Source looks up doctor profiles.
type Source interface {
	Lookup(ctx context.Context, id ID) (Doctor, error)
}

// ProfileFetcher is the subset of the hospital API the directory needs.
type ProfileFetcher interface {
	GetDoctor(ctx context.Context, doctorID string) (*hospitalapi.Response, error)
}

// Directory reads profiles from the hospital API.
type Directory struct {
	api          ProfileFetcher
	assetBaseURL string
	logger       *logging.Logger
}

// NewDirectory creates a directory over api. Photo filenames resolve under
// assetBaseURL.
func NewDirectory(api ProfileFetcher, assetBaseURL string, logger *logging.Logger) *Directory {
	if logger == nil {
		logger = logging.Default()
	}
	return &Directory{api: api, assetBaseURL: assetBaseURL, logger: logger}
}

// Lookup fetches and normalizes one profile.
func (d *Directory) Lookup(ctx context.Context, id ID) (Doctor, error) {
	if id.Empty() {
		return Doctor{}, fmt.Errorf("%w: empty id", ErrNotFound)
	}
	resp, err := d.api.GetDoctor(ctx, id.String())
	if err != nil {
		return Doctor{}, fmt.Errorf("doctors: lookup %s: %w", id, err)
	}
	if !resp.OK() {
		return Doctor{}, fmt.Errorf("%w: %s", ErrNotFound, resp.Envelope.Message)
	}

	doc, err := Normalize(resp.Envelope.Data, d.assetBaseURL)
	if err != nil {
		d.logger.Debug("doctors: profile not decodable", "doctor_id", id.String(), "error", err)
		return Doctor{}, fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	doc.ID = id
	return doc, nil
}
