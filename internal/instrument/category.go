package instrument

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Summary parameter name fragments required for category derivation.
const (
	ParamDensity  = "Density"
	ParamStrength = "Compressive Strength"
	ParamCement   = "CementClass"
)

// Labels for values that cannot be banded or parsed.
const (
	LabelUnknownDensity   = "UnknownDensity"
	LabelUnknownAlgorithm = "UnknownAlgorithm"
	LabelUnknownCement    = "UnknownCement"

	labelAlgorithmMoreThan14 = "Algorithm_more_than_14"
	labelAlgorithmLessThan14 = "Algorithm_less_than_14"
)

var digitRun = regexp.MustCompile(`\d+`)

// Filesystem-hostile characters are substituted, not dropped, so distinct
// values stay distinct after sanitization.
var labelSanitizer = strings.NewReplacer(
	"/", "_",
	":", "",
	"<", "less_",
	">", "more_",
	"*", "star",
	"?", "",
)

// Category is the derived output path for a structured export.
type Category struct {
	DensityBand string
	Algorithm   string
	Cement      string
}

// Segments returns the category path segments in order.
func (c Category) Segments() []string {
	return []string{c.DensityBand, c.Algorithm, c.Cement}
}

// Key returns the category's distribution key.
func (c Category) Key() string {
	return strings.Join(c.Segments(), "/")
}

// Derive resolves the three required parameters and builds the category.
// The second return value lists the missing parameter names; a non-empty
// list means the export is incomplete and has no category. An empty value
// counts as missing.
func Derive(summary *Summary) (Category, []string) {
	density := summary.Value(ParamDensity)
	strength := summary.Value(ParamStrength)
	cement := summary.Value(ParamCement)

	var missing []string
	if density == "" {
		missing = append(missing, ParamDensity)
	}
	if strength == "" {
		missing = append(missing, ParamStrength)
	}
	if cement == "" {
		missing = append(missing, ParamCement)
	}
	if len(missing) > 0 {
		return Category{}, missing
	}

	return Category{
		DensityBand: DensityBand(density),
		Algorithm:   StrengthLabel(strength),
		Cement:      CementLabel(cement),
	}, nil
}

// DensityBand maps a free-text density value to its band. The first run of
// digits is taken as the density in kg/m3.
func DensityBand(value string) string {
	match := digitRun.FindString(value)
	if match == "" {
		return LabelUnknownDensity
	}
	density, err := strconv.Atoi(match)
	if err != nil {
		return LabelUnknownDensity
	}
	switch {
	case density >= 1100 && density <= 1499:
		return "1100-1499"
	case density >= 1500 && density <= 1899:
		return "1500-1899"
	case density >= 1900 && density <= 2500:
		return "1900-2500"
	default:
		return fmt.Sprintf("Other_%d", density)
	}
}

// StrengthLabel maps the compressive strength description to the algorithm
// folder name. The two curing-window phrasings get fixed labels; anything
// else is sanitized verbatim.
func StrengthLabel(value string) string {
	lowered := strings.ToLower(value)
	switch {
	case strings.Contains(lowered, "more than 14"):
		return labelAlgorithmMoreThan14
	case strings.Contains(lowered, "less than 14"):
		return labelAlgorithmLessThan14
	case strings.TrimSpace(lowered) != "":
		return "Algorithm_" + labelSanitizer.Replace(strings.TrimSpace(lowered))
	default:
		return LabelUnknownAlgorithm
	}
}

// CementLabel maps the cement classification to its folder name.
func CementLabel(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return LabelUnknownCement
	}
	return "Cement_" + labelSanitizer.Replace(trimmed)
}
