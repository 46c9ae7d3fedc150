package portfolio

import (
	"math"
	"time"
)

// xirr solves for the annualized internal rate of return of a dated cash flow
// series: the rate r at which the flows discounted by (1+r)^(days/365) net to
// zero. Newton's method converges in a handful of iterations for well
// behaved series; when it diverges or walks out of the domain, a bisection
// over a bracketing interval takes over. The second return is false when no
// root exists, which happens when the flows never change sign.
func xirr(dates []time.Time, amounts []float64) (float64, bool) {
	if len(dates) < 2 || len(dates) != len(amounts) {
		return 0, false
	}
	if !signChange(amounts) {
		return 0, false
	}

	t0 := dates[0]
	years := make([]float64, len(dates))
	for i, d := range dates {
		years[i] = d.Sub(t0).Hours() / 24 / 365
	}

	npv := func(rate float64) float64 {
		total := 0.0
		for i, amt := range amounts {
			total += amt / math.Pow(1+rate, years[i])
		}
		return total
	}
	derivative := func(rate float64) float64 {
		total := 0.0
		for i, amt := range amounts {
			if years[i] == 0 {
				continue
			}
			total -= years[i] * amt / math.Pow(1+rate, years[i]+1)
		}
		return total
	}

	const tol = 1e-9
	rate := 0.1
	for i := 0; i < 50; i++ {
		value := npv(rate)
		if math.Abs(value) < tol {
			return rate, true
		}
		deriv := derivative(rate)
		if deriv == 0 || math.IsNaN(deriv) {
			break
		}
		next := rate - value/deriv
		if math.IsNaN(next) || next <= -1 {
			break
		}
		if math.Abs(next-rate) < tol {
			return next, true
		}
		rate = next
	}

	return bisectRate(npv, tol)
}

// bisectRate finds a sign change of the NPV function on (-1, +inf) by scanning
// progressively wider brackets, then bisects to tolerance.
func bisectRate(npv func(float64) float64, tol float64) (float64, bool) {
	lo, hi := -0.999999, 10.0
	fLo := npv(lo)
	fHi := npv(hi)
	for fLo*fHi > 0 && hi < 1e10 {
		hi *= 10
		fHi = npv(hi)
	}
	if fLo*fHi > 0 || math.IsNaN(fLo) || math.IsNaN(fHi) {
		return 0, false
	}
	for i := 0; i < 200; i++ {
		mid := (lo + hi) / 2
		fMid := npv(mid)
		if math.Abs(fMid) < tol || (hi-lo)/2 < tol {
			return mid, true
		}
		if fLo*fMid < 0 {
			hi = mid
		} else {
			lo, fLo = mid, fMid
		}
	}
	return (lo + hi) / 2, true
}

// signChange reports whether the series has both positive and negative
// amounts. Without both there is no internal rate of return.
func signChange(amounts []float64) bool {
	var pos, neg bool
	for _, a := range amounts {
		if a > 0 {
			pos = true
		}
		if a < 0 {
			neg = true
		}
	}
	return pos && neg
}
