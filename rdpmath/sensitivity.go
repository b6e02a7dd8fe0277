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

package rdpmath

import (
	"math"

	log "github.com/golang/glog"
	"gonum.org/v1/gonum/floats"
)

// LocalSensitivity bounds, for each distance d in 1..teacherCount, how much
// the release cost of the query at the given order can change when d teachers
// change their vote. Changing d teachers moves at most d votes between the
// plurality winner and the runner-up; both the gap-shrinking and the
// gap-growing direction are evaluated and the larger change is kept.
func LocalSensitivity(votes []float64, teacherCount int, sigma, order float64) []float64 {
	if teacherCount <= 0 {
		log.Fatalf("LocalSensitivity(teacherCount %d): teacherCount must be strictly positive", teacherCount)
	}
	if len(votes) < 2 {
		log.Fatalf("LocalSensitivity: need at least 2 classes, got %d", len(votes))
	}
	base := releaseCostAt(votes, sigma, order)
	ls := make([]float64, teacherCount)
	for d := 1; d <= teacherCount; d++ {
		shrunk := moveVotes(votes, float64(d), true)
		grown := moveVotes(votes, float64(d), false)
		ls[d-1] = math.Max(
			math.Abs(releaseCostAt(shrunk, sigma, order)-base),
			math.Abs(releaseCostAt(grown, sigma, order)-base))
	}
	return ls
}

// LocalSensitivityThreshold is the thresholding-step analogue of
// LocalSensitivity. Only the maximum of the thresholded vote vector enters
// the gate statistic, and d vote changes shift that maximum by at most d.
func LocalSensitivityThreshold(votes []float64, teacherCount int, sigma, order, threshold float64) []float64 {
	if teacherCount <= 0 {
		log.Fatalf("LocalSensitivityThreshold(teacherCount %d): teacherCount must be strictly positive", teacherCount)
	}
	if len(votes) == 0 {
		log.Fatalf("LocalSensitivityThreshold: votes must not be empty")
	}
	maxVote := floats.Max(votes)
	base := thresholdCostAt(maxVote, sigma, order, threshold)
	ls := make([]float64, teacherCount)
	for d := 1; d <= teacherCount; d++ {
		ls[d-1] = math.Max(
			math.Abs(thresholdCostAt(maxVote+float64(d), sigma, order, threshold)-base),
			math.Abs(thresholdCostAt(maxVote-float64(d), sigma, order, threshold)-base))
	}
	return ls
}

// SmoothSensitivity converts a by-distance local sensitivity vector into the
// scalar β-smooth sensitivity bound max_d e^(-βd)·ls(d).
func SmoothSensitivity(beta float64, lsByDist []float64) float64 {
	if beta < 0 {
		log.Fatalf("SmoothSensitivity(beta %f): beta must be nonnegative", beta)
	}
	smooth := 0.0
	for i, ls := range lsByDist {
		d := float64(i + 1)
		if s := math.Exp(-beta*d) * ls; s > smooth {
			smooth = s
		}
	}
	return smooth
}

// ReleaseMechanismCost returns the RDP cost at the given order of publishing
// a value through the smooth-sensitivity-calibrated Gaussian mechanism with
// smoothing parameter beta and noise scale sigma. The order must lie in
// (1, 1/(2β)).
func ReleaseMechanismCost(beta, sigma, order float64) float64 {
	if sigma <= 0 {
		log.Fatalf("ReleaseMechanismCost(sigma %f): sigma must be strictly positive", sigma)
	}
	if beta < 0 || (beta > 0 && (order <= 1 || order >= 1/(2*beta))) {
		log.Fatalf("ReleaseMechanismCost(beta %f, order %f): order must be within (1, 1/(2β))", beta, order)
	}
	return order*math.Exp(2*beta)/(sigma*sigma) +
		(-0.5*math.Log(1-2*order*beta)+beta*order)/(order-1)
}

// releaseCostAt evaluates the GNMax release cost at a single order.
func releaseCostAt(votes []float64, sigma, order float64) float64 {
	return ReleaseCost(sigma, []float64{order}, LogProbabilities(votes, sigma))[0]
}

// thresholdCostAt evaluates the threshold-check cost at a single order for a
// gate statistic with the given maximum.
func thresholdCostAt(maxVote, sigma, order, threshold float64) float64 {
	return rdpGaussian(logqThreshold(maxVote, sigma, threshold), math.Sqrt2*sigma, []float64{order})[0]
}

// moveVotes moves count votes between the plurality winner and the strongest
// runner-up, shrinking or growing the winning gap. Counts are clamped at 0 so
// no class ends up with a negative tally.
func moveVotes(votes []float64, count float64, shrinkGap bool) []float64 {
	out := make([]float64, len(votes))
	copy(out, votes)
	winner := floats.MaxIdx(out)
	runnerUp := runnerUpIdx(out, winner)
	from, to := winner, runnerUp
	if !shrinkGap {
		from, to = runnerUp, winner
	}
	moved := math.Min(count, out[from])
	out[from] -= moved
	out[to] += moved
	return out
}

func runnerUpIdx(votes []float64, winner int) int {
	runnerUp := -1
	for i := range votes {
		if i == winner {
			continue
		}
		if runnerUp < 0 || votes[i] > votes[runnerUp] {
			runnerUp = i
		}
	}
	return runnerUp
}
