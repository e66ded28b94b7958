package transform

import (
	"math"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

func str(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

func strOr(s *string, fallback string) string {
	if v := str(s); v != "" {
		return v
	}
	return fallback
}

// money floors a nullable amount at zero and rounds it to cents.
func money(v *float64) float64 {
	if v == nil || *v < 0 || math.IsNaN(*v) {
		return 0
	}
	return round2(*v)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
