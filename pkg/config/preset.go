package config

import "fmt"

// QualityPreset names a quality level that maps to a CRF value.
type QualityPreset string

const (
	QualityLow    QualityPreset = "low"
	QualityMedium QualityPreset = "medium"
	QualityHigh   QualityPreset = "high"
)

// ParseQualityPreset parses a preset name. An empty name is valid and
// leaves the quality to the codec.
func ParseQualityPreset(s string) (QualityPreset, error) {
	switch p := QualityPreset(s); p {
	case "", QualityLow, QualityMedium, QualityHigh:
		return p, nil
	}
	return "", fmt.Errorf("unknown quality preset %q", s)
}

// CRF returns the CRF value (0-63, lower is better) of the preset,
// or 0 for the codec default.
func (p QualityPreset) CRF() int {
	switch p {
	case QualityLow:
		return 35
	case QualityMedium:
		return 25
	case QualityHigh:
		return 15
	default:
		return 0
	}
}
