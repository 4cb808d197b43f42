package recommend

import (
	"encoding/json"
	"math"
	"strconv"
)

// Score is a composite candidate score. Ineligible candidates carry -Inf,
// which JSON cannot represent, so non-finite values encode as null.
type Score float64

// Ineligible is the score assigned to candidates excluded by a hard constraint
var Ineligible = Score(math.Inf(-1))

// Eligible reports whether the score is finite
func (s Score) Eligible() bool {
	return !math.IsInf(float64(s), 0) && !math.IsNaN(float64(s))
}

// MarshalJSON writes non-finite scores as null
func (s Score) MarshalJSON() ([]byte, error) {
	if !s.Eligible() {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatFloat(float64(s), 'f', -1, 64)), nil
}

// UnmarshalJSON reads null back as Ineligible
func (s *Score) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*s = Ineligible
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*s = Score(f)
	return nil
}
