package customer

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/meiro/showads-connector/internal/config"
)

// Banner ids accepted by ShowAds.
const (
	MinBannerID = 0
	MaxBannerID = 99
)

var nameRegex = regexp.MustCompile(`^[A-Za-z\s]+$`)

// Validator applies the ShowAds acceptance rules to raw records.
// The age bounds come from configuration; everything else is fixed.
type Validator struct {
	minAge int
	maxAge int
}

// NewValidator creates a Validator with the configured age bounds.
func NewValidator(cfg config.ValidationConfig) *Validator {
	return &Validator{minAge: cfg.MinAge, maxAge: cfg.MaxAge}
}

// Validate checks a single raw record and returns either the validated
// Customer or the rejection that disqualified it, never both. Fields are
// checked in order (name, age, cookie, banner id) and checking stops at
// the first failure.
func (v *Validator) Validate(rec RawRecord) (Customer, *Rejection) {
	name := strings.TrimSpace(rec.Name)
	if name == "" {
		return Customer{}, v.reject(rec, "name must not be empty")
	}
	if !nameRegex.MatchString(name) {
		return Customer{}, v.reject(rec, "name must contain only letters and spaces")
	}

	age, err := strconv.Atoi(strings.TrimSpace(rec.Age))
	if err != nil {
		return Customer{}, v.reject(rec, fmt.Sprintf("age %q is not a whole number", rec.Age))
	}
	if age < v.minAge || age > v.maxAge {
		return Customer{}, v.reject(rec, fmt.Sprintf("age %d outside allowed range [%d, %d]", age, v.minAge, v.maxAge))
	}

	cookie := strings.TrimSpace(rec.Cookie)
	if _, err := uuid.Parse(cookie); err != nil {
		return Customer{}, v.reject(rec, "cookie is not a valid UUID")
	}

	banner, err := strconv.Atoi(strings.TrimSpace(rec.BannerID))
	if err != nil {
		return Customer{}, v.reject(rec, fmt.Sprintf("banner_id %q is not a whole number", rec.BannerID))
	}
	if banner < MinBannerID || banner > MaxBannerID {
		return Customer{}, v.reject(rec, fmt.Sprintf("banner_id %d outside allowed range [%d, %d]", banner, MinBannerID, MaxBannerID))
	}

	return Customer{
		Name:     name,
		Age:      age,
		Cookie:   cookie,
		BannerID: banner,
	}, nil
}

func (v *Validator) reject(rec RawRecord, reason string) *Rejection {
	return &Rejection{Line: rec.Line, Reason: reason}
}
