// Package bodyfat estimates body-fat percentage from tape and scale inputs.
//
// Two estimators are supported: the US Navy circumference method and the
// Deurenberg BMI equation. Metric inputs are in centimetres and kilograms,
// imperial inputs in inches and pounds. Masses in the result use the same
// unit as the weight input and are zero when no weight was given.
package bodyfat

import (
	"fmt"
	"math"

	"github.com/dmitrijs2005/bodykeeper/internal/client/models"
	"github.com/dmitrijs2005/bodykeeper/internal/common"
)

// Input keys.
const (
	Weight = "weight"
	Height = "height"
	Age    = "age"
	Waist  = "waist"
	Neck   = "neck"
	Hip    = "hip"
)

// RequiredInputs lists the inputs a formula needs for the given gender.
func RequiredInputs(f models.Formula, g models.Gender) []string {
	switch f {
	case models.FormulaNavy:
		if g == models.GenderFemale {
			return []string{Height, Waist, Neck, Hip}
		}
		return []string{Height, Waist, Neck}
	case models.FormulaBMI:
		return []string{Weight, Height, Age}
	}
	return nil
}

// Compute returns the estimate and its ACE category label.
func Compute(f models.Formula, g models.Gender, sys models.System, in map[string]float64) (models.Results, string, error) {
	if g != models.GenderMale && g != models.GenderFemale {
		return models.Results{}, "", fmt.Errorf("%w: unknown gender %q", common.ErrorValidation, g)
	}
	if sys != models.SystemMetric && sys != models.SystemImperial {
		return models.Results{}, "", fmt.Errorf("%w: unknown measurement system %q", common.ErrorValidation, sys)
	}

	required := RequiredInputs(f, g)
	if required == nil {
		return models.Results{}, "", fmt.Errorf("%w: unknown formula %q", common.ErrorValidation, f)
	}
	for _, k := range required {
		if v, ok := in[k]; !ok || v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return models.Results{}, "", fmt.Errorf("%w: %s must be a positive number", common.ErrorValidation, k)
		}
	}

	var pct float64
	switch f {
	case models.FormulaNavy:
		var err error
		if pct, err = navy(g, sys, in); err != nil {
			return models.Results{}, "", err
		}
	case models.FormulaBMI:
		pct = deurenberg(g, sys, in)
	}

	pct = math.Max(0, pct)
	r := models.Results{BodyFatPercentage: round1(pct)}
	if w := in[Weight]; w > 0 {
		fat := w * pct / 100
		r.FatMass = round1(fat)
		r.LeanMass = round1(w - fat)
	}
	return r, Classify(g, pct), nil
}

func navy(g models.Gender, sys models.System, in map[string]float64) (float64, error) {
	girth := in[Waist] - in[Neck]
	if g == models.GenderFemale {
		girth += in[Hip]
	}
	if girth <= 0 {
		return 0, fmt.Errorf("%w: waist must exceed neck", common.ErrorValidation)
	}
	h := in[Height]

	if sys == models.SystemImperial {
		if g == models.GenderFemale {
			return 163.205*math.Log10(girth) - 97.684*math.Log10(h) - 78.387, nil
		}
		return 86.010*math.Log10(girth) - 70.041*math.Log10(h) + 36.76, nil
	}

	if g == models.GenderFemale {
		return 495/(1.29579-0.35004*math.Log10(girth)+0.22100*math.Log10(h)) - 450, nil
	}
	return 495/(1.0324-0.19077*math.Log10(girth)+0.15456*math.Log10(h)) - 450, nil
}

func deurenberg(g models.Gender, sys models.System, in map[string]float64) float64 {
	var bmi float64
	if sys == models.SystemImperial {
		bmi = 703 * in[Weight] / (in[Height] * in[Height])
	} else {
		m := in[Height] / 100
		bmi = in[Weight] / (m * m)
	}

	sex := 0.0
	if g == models.GenderMale {
		sex = 1
	}
	return 1.20*bmi + 0.23*in[Age] - 10.8*sex - 5.4
}

// Classify maps a body-fat percentage to the ACE category.
func Classify(g models.Gender, pct float64) string {
	bounds := [4]float64{6, 14, 18, 25}
	if g == models.GenderFemale {
		bounds = [4]float64{14, 21, 25, 32}
	}
	switch {
	case pct < bounds[0]:
		return "essential"
	case pct < bounds[1]:
		return "athletes"
	case pct < bounds[2]:
		return "fitness"
	case pct < bounds[3]:
		return "average"
	default:
		return "obese"
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
