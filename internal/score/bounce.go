package score

import (
	"math"

	"github.com/ppiankov/cfpqc/internal/model"
)

// Logistic bounce-risk coefficients over subject length (characters) and
// caps percentage (0..100)
const (
	BounceIntercept   = -16.1435
	BounceLengthCoeff = 0.0787
	BounceCapsCoeff   = 0.8660
)

// BounceRisk estimates the chance a subject line bounces, as a percentage
// in [0, 100]
func BounceRisk(subject model.SubjectScore) float64 {
	z := BounceIntercept +
		BounceLengthCoeff*float64(subject.Length) +
		BounceCapsCoeff*subject.CapsPercentage
	return 100 / (1 + math.Exp(-z))
}
