// Package doctors resolves the doctor a booking is made with: identity,
// profile normalization across backend shapes, and the cached directory.
package doctors

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Doctor is the normalized profile shown above the booking form.
type Doctor struct {
	ID              ID     `json:"id"`
	FullName        string `json:"full_name"`
	Specialization  string `json:"specialization"`
	ExperienceYears int    `json:"experience_years"`
	Bio             string `json:"bio"`
	PhotoURL        string `json:"photo_url,omitempty"`
	Placeholder     bool   `json:"placeholder,omitempty"`
}

const (
	photoDir       = "uploads/doctors"
	placeholderBio = "Eion Morgan is a dedicated pediatrician with over 15 years of experience in caring for children's health. " +
		"She is passionate about ensuring the well-being of your little ones and believes in a holistic approach."
)

var (
	nameKeys           = []string{"full_name", "name"}
	specializationKeys = []string{"specialization", "specialization_name"}
	bioKeys            = []string{"bio", "profile_description", "description"}
	photoKeys          = []string{"photo", "image", "image_url", "profile_image"}
)

var errEmptyProfile = errors.New("doctors: empty profile")

// Normalize decodes a profile from the backend. raw may be the profile object,
// an envelope carrying it under "data", or a one-element array.
func Normalize(raw json.RawMessage, assetBaseURL string) (Doctor, error) {
	fields, err := profileFields(raw, 0)
	if err != nil {
		return Doctor{}, err
	}
	return Doctor{
		ID:              IDFromFields(fields),
		FullName:        firstString(fields, nameKeys...),
		Specialization:  firstString(fields, specializationKeys...),
		ExperienceYears: intField(fields["experience_years"]),
		Bio:             firstString(fields, bioKeys...),
		PhotoURL:        PhotoURL(assetBaseURL, firstString(fields, photoKeys...)),
	}, nil
}

func profileFields(raw json.RawMessage, depth int) (map[string]any, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) || depth > 2 {
		return nil, errEmptyProfile
	}

	if raw[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, fmt.Errorf("doctors: decode profile list: %w", err)
		}
		if len(items) == 0 {
			return nil, errEmptyProfile
		}
		return profileFields(items[0], depth+1)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return nil, fmt.Errorf("doctors: decode profile: %w", err)
	}
	if inner, ok := fields["data"]; ok && firstString(fields, nameKeys...) == "" {
		nested, err := json.Marshal(inner)
		if err == nil {
			return profileFields(nested, depth+1)
		}
	}
	return fields, nil
}

// PhotoURL resolves a profile photo filename under the asset host.
func PhotoURL(assetBaseURL, filename string) string {
	filename = strings.TrimSpace(filename)
	if filename == "" {
		return ""
	}
	lower := strings.ToLower(filename)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return filename
	}
	base := strings.TrimRight(strings.TrimSpace(assetBaseURL), "/")
	return base + "/" + photoDir + "/" + strings.TrimLeft(filename, "/")
}

// Placeholder is shown when the profile cannot be loaded. It keeps the
// requested id so booking still targets the right doctor.
func Placeholder(id ID) Doctor {
	return Doctor{
		ID:              id,
		FullName:        "Dr. Eion Morgan",
		Specialization:  "MBBS, MD (Neurology)",
		ExperienceYears: 15,
		Bio:             placeholderBio,
		Placeholder:     true,
	}
}

func firstString(fields map[string]any, keys ...string) string {
	for _, key := range keys {
		switch v := fields[key].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case json.Number:
			return v.String()
		}
	}
	return ""
}

func intField(v any) int {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return int(i)
		}
		if f, err := t.Float64(); err == nil {
			return int(f)
		}
	case float64:
		return int(t)
	case string:
		if i, err := strconv.Atoi(strings.TrimSpace(t)); err == nil {
			return i
		}
	}
	return 0
}
