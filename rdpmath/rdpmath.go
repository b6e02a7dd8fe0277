//
// Copyright 2020 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//

// Package rdpmath implements the closed-form Rényi differential privacy
// bounds consumed by the PATE accountant: the data-dependent GNMax bound,
// the thresholding bound of the confident and interactive aggregators, the
// RDP to (ε,δ)-DP conversion, and the local/smooth sensitivity analysis used
// to privately publish the accumulated privacy loss.
//
// All functions are pure. Malformed inputs (nonpositive sigma, orders at or
// below 1, log-probabilities above 0) indicate programmer error and are
// fatal.
package rdpmath

import (
	"math"

	log "github.com/golang/glog"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"
)

// Lib implements the accountant's calculator interface by delegating to the
// package-level functions.
type Lib struct{}

func (Lib) LogProbabilities(votes []float64, sigma float64) []float64 {
	return LogProbabilities(votes, sigma)
}

func (Lib) ReleaseCost(sigma float64, orders, logProbs []float64) []float64 {
	return ReleaseCost(sigma, orders, logProbs)
}

func (Lib) ThresholdCost(sigma float64, orders []float64, threshold float64, votes []float64) []float64 {
	return ThresholdCost(sigma, orders, threshold, votes)
}

func (Lib) RDPToDP(orders, rdp []float64, delta float64) (float64, float64) {
	return RDPToDP(orders, rdp, delta)
}

func (Lib) LocalSensitivity(votes []float64, teacherCount int, sigma, order float64) []float64 {
	return LocalSensitivity(votes, teacherCount, sigma, order)
}

func (Lib) LocalSensitivityThreshold(votes []float64, teacherCount int, sigma, order, threshold float64) []float64 {
	return LocalSensitivityThreshold(votes, teacherCount, sigma, order, threshold)
}

func (Lib) SmoothSensitivity(beta float64, lsByDist []float64) float64 {
	return SmoothSensitivity(beta, lsByDist)
}

func (Lib) ReleaseMechanismCost(beta, sigma, order float64) float64 {
	return ReleaseMechanismCost(beta, sigma, order)
}

// LogProbabilities returns, per class, the log-probability that the class
// beats the plurality winner under independent Gaussian noise of scale sigma
// added to each vote count. The winner's own entry is -∞.
//
// The pairwise probability for class i is the Gaussian tail of the vote gap
// at scale √2·sigma, since the difference of two independent draws has
// variance 2σ².
func LogProbabilities(votes []float64, sigma float64) []float64 {
	if len(votes) == 0 {
		log.Fatalf("LogProbabilities: votes must not be empty")
	}
	if sigma <= 0 {
		log.Fatalf("LogProbabilities(sigma %f): sigma must be strictly positive", sigma)
	}
	winner := floats.MaxIdx(votes)
	logProbs := make([]float64, len(votes))
	for i, v := range votes {
		if i == winner {
			logProbs[i] = math.Inf(-1)
			continue
		}
		logProbs[i] = logSurvival(votes[winner]-v, math.Sqrt2*sigma)
	}
	return logProbs
}

// ReleaseCost returns the per-order RDP cost of releasing the noisy argmax of
// a vote vector, given the per-class log-probabilities of a non-plurality
// outcome. The total outcome-flip probability q is bounded by the union bound
// over classes, capped at 1 - 1/classes.
func ReleaseCost(sigma float64, orders, logProbs []float64) []float64 {
	if len(logProbs) < 2 {
		log.Fatalf("ReleaseCost: need at least 2 classes, got %d", len(logProbs))
	}
	logq := logSumExp(logProbs)
	qCap := math.Log(1 - 1/float64(len(logProbs)))
	if logq > qCap {
		logq = qCap
	}
	return rdpGaussian(logq, sigma, orders)
}

// ThresholdCost returns the per-order RDP cost of the noisy threshold check
// max(votes) + N(0, sigma) ≥ threshold. The check is a binary-outcome GNMax
// over the gate statistic, hence the bound is evaluated at scale √2·sigma
// with q the probability of the less likely outcome.
func ThresholdCost(sigma float64, orders []float64, threshold float64, votes []float64) []float64 {
	if len(votes) == 0 {
		log.Fatalf("ThresholdCost: votes must not be empty")
	}
	if sigma <= 0 {
		log.Fatalf("ThresholdCost(sigma %f): sigma must be strictly positive", sigma)
	}
	return rdpGaussian(logqThreshold(floats.Max(votes), sigma, threshold), math.Sqrt2*sigma, orders)
}

// logqThreshold returns the log-probability of the less likely of the two
// threshold-check outcomes for a gate statistic with the given maximum.
func logqThreshold(maxVote, sigma, threshold float64) float64 {
	// Pr[max + N(0,σ) ≥ T] is the Gaussian tail of T - max at scale σ.
	logPr := logSurvival(threshold-maxVote, sigma)
	logNotPr := log1mExp(logPr)
	if logNotPr < logPr {
		return logNotPr
	}
	return logPr
}

// RDPToDP converts cumulative per-order RDP losses into an (ε,δ)-DP
// guarantee, returning the smallest ε over the grid along with the order that
// attains it.
func RDPToDP(orders, rdp []float64, delta float64) (eps, order float64) {
	if len(orders) == 0 || len(orders) != len(rdp) {
		log.Fatalf("RDPToDP: orders (len %d) and rdp (len %d) must be non-empty and of equal length", len(orders), len(rdp))
	}
	if delta <= 0 || delta >= 1 {
		log.Fatalf("RDPToDP(delta %e): delta must be in (0, 1)", delta)
	}
	logInvDelta := math.Log(1 / delta)
	eps = math.Inf(1)
	for i, a := range orders {
		e := rdp[i] + logInvDelta/(a-1)
		if e < eps {
			eps = e
			order = a
		}
	}
	return eps, order
}

// rdpGaussian bounds the RDP of GNMax from above given an upper bound q on
// the probability of a non-plurality outcome, for every order in the grid.
// The baseline is the data-independent bound α/σ²; where the data-dependent
// bound applies it tightens the result.
func rdpGaussian(logq, sigma float64, orders []float64) []float64 {
	if sigma <= 0 {
		log.Fatalf("rdpGaussian(sigma %f): sigma must be strictly positive", sigma)
	}
	ret := make([]float64, len(orders))
	if math.IsInf(logq, -1) {
		// The outcome is deterministic, nothing is revealed.
		return ret
	}
	if logq >= 0 {
		log.Fatalf("rdpGaussian(logq %f): logq must be negative", logq)
	}
	variance := sigma * sigma
	for i, a := range orders {
		if a <= 1 {
			log.Fatalf("rdpGaussian: order %f must be greater than 1", a)
		}
		ret[i] = a / variance
	}

	// Two auxiliary orders control where the data-dependent bound holds.
	muHi2 := math.Sqrt(variance * -logq)
	muHi1 := muHi2 + 1
	rdpHi1 := muHi1 / variance
	rdpHi2 := muHi2 / variance
	logA2 := (muHi2 - 1) * rdpHi2

	// q must lie in the regime where the bound is increasing and valid.
	if muHi2 <= 1 || -logq <= rdpHi2 ||
		logq > logA2-muHi2*(math.Log1p(1/(muHi1-1))+math.Log1p(1/(muHi2-1))) {
		return ret
	}

	log1q := log1mExp(logq)
	for i, a := range orders {
		if muHi1 <= a {
			continue
		}
		logA := (a - 1) * (log1q - log1mExp((logq+rdpHi2)*(1-1/muHi2)))
		logB := (a - 1) * (rdpHi1 - logq/(muHi1-1))
		logS := logAddExp(log1q+logA, logq+logB)
		if dd := logS / (a - 1); dd < ret[i] {
			ret[i] = math.Max(dd, 0)
		}
	}
	return ret
}

// logSurvival returns the log of the Gaussian tail probability Pr[N(0,σ) > x].
// The tail is evaluated as CDF(-x), whose erfc form is free of the
// cancellation that zeroes the survival function already around 8 sigma; once
// even erfc underflows, the standard asymptotic expansion takes over.
func logSurvival(x, sigma float64) float64 {
	dist := distuv.Normal{Mu: 0, Sigma: sigma}
	if sf := dist.CDF(-x); sf > 0 {
		return math.Log(sf)
	}
	z := x / sigma
	return -0.5*z*z - math.Log(z) - 0.5*math.Log(2*math.Pi)
}

// log1mExp returns log(1 - exp(x)) for x ≤ 0 without catastrophic cancellation.
func log1mExp(x float64) float64 {
	if x > 0 {
		log.Fatalf("log1mExp(%f): argument must be nonpositive", x)
	}
	if x == 0 {
		return math.Inf(-1)
	}
	if x > -math.Ln2 {
		return math.Log(-math.Expm1(x))
	}
	return math.Log1p(-math.Exp(x))
}

// logAddExp returns log(exp(a) + exp(b)) without overflow.
func logAddExp(a, b float64) float64 {
	if a < b {
		a, b = b, a
	}
	if math.IsInf(a, -1) {
		return a
	}
	return a + math.Log1p(math.Exp(b-a))
}

// logSumExp returns the log of the sum of exponentials of the slice,
// ignoring -∞ entries.
func logSumExp(xs []float64) float64 {
	max := math.Inf(-1)
	for _, x := range xs {
		if x > max {
			max = x
		}
	}
	if math.IsInf(max, -1) {
		return max
	}
	var sum float64
	for _, x := range xs {
		sum += math.Exp(x - max)
	}
	return max + math.Log(sum)
}
