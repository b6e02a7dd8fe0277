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

package pate

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// ReleaseResult is one private publication of the accumulated privacy loss:
// a single Gaussian draw together with the distribution parameters that
// produced it. Mean and Sdev are deterministic given the query log and the
// frozen order; Sample is redrawn per call.
type ReleaseResult struct {
	Sample float64
	Mean   float64
	Sdev   float64
}

// DataDependentEpsilon converts the cumulative per-order RDP loss into the
// best (ε, order) pair for the accountant's target delta.
//
// The pair is computed once and frozen for the accountant's lifetime: the
// smooth-sensitivity walk needs every local-sensitivity term analyzed at one
// fixed Rényi order, so later calls return the cached pair even if more
// queries have been accounted since.
func (a *Accountant) DataDependentEpsilon() (eps, order float64, err error) {
	if !a.converted {
		if len(a.queryLog) == 0 {
			return 0, 0, fmt.Errorf("DataDependentEpsilon: no logged queries")
		}
		a.dataDependentEps, a.selectedOrder = a.mathLib.RDPToDP(a.orders, a.rdpByOrder, a.targetDelta)
		a.converted = true
	}
	return a.dataDependentEps, a.selectedOrder, nil
}

// ReleaseEpsilon privately publishes the accumulated privacy loss. The raw
// data-dependent epsilon is a function of the actual votes and must not be
// published exactly; instead the accountant walks the query log, bounds the
// smooth sensitivity of the epsilon functional, and draws the published value
// from a Gaussian calibrated to that bound.
//
// The local sensitivity accumulates over the entire log before the single
// draw is taken, so the published sample reflects the total loss of all
// logged queries. ReleaseEpsilon may be called repeatedly; every call redraws
// the sample over the same frozen order and cached data-dependent epsilon.
func (a *Accountant) ReleaseEpsilon() (ReleaseResult, error) {
	if len(a.queryLog) == 0 {
		return ReleaseResult{}, fmt.Errorf("ReleaseEpsilon: no logged queries")
	}
	eps, order, err := a.DataDependentEpsilon()
	if err != nil {
		return ReleaseResult{}, err
	}

	lsByDist := make([]float64, a.teacherCount)
	for _, rec := range a.queryLog {
		if a.mode.kind != BasicModeKind {
			floats.Add(lsByDist, a.mathLib.LocalSensitivityThreshold(
				rec.threshVotes, a.teacherCount, a.mode.sigmaThresh, order, a.mode.threshold))
		}
		if rec.released {
			floats.Add(lsByDist, a.mathLib.LocalSensitivity(
				rec.votes, a.teacherCount, a.sigmaVotes, order))
		}
	}

	// The paper-recommended smoothing constant for the selected order; it
	// keeps the release mechanism's order constraint α < 1/(2β) satisfied.
	beta := 0.4 / order
	smooth := a.mathLib.SmoothSensitivity(beta, lsByDist)
	epsReleaseRDP := a.mathLib.ReleaseMechanismCost(beta, a.sigmaEpsRelease, order)

	mean := eps + epsReleaseRDP
	sdev := smooth * a.sigmaEpsRelease
	return ReleaseResult{
		Sample: a.noise.Sample(mean, sdev),
		Mean:   mean,
		Sdev:   sdev,
	}, nil
}
