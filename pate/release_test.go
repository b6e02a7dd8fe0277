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
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestReleaseEpsilonEmptyLog(t *testing.T) {
	a := newTestAccountant(Basic(), &fakeCalc{})
	if _, err := a.ReleaseEpsilon(); err == nil {
		t.Errorf("ReleaseEpsilon: empty log was accepted, want error")
	}
	if _, _, err := a.DataDependentEpsilon(); err == nil {
		t.Errorf("DataDependentEpsilon: empty log was accepted, want error")
	}
}

func TestDataDependentEpsilonIsComputedOnce(t *testing.T) {
	calc := &fakeCalc{eps: 1.5, order: 8}
	a := newTestAccountant(Basic(), calc)
	if _, err := a.GNMax([]float64{3, 1, 1}, []float64{0.5, 0.3, 0.2}); err != nil {
		t.Fatalf("GNMax: got error %v", err)
	}

	eps1, order1, err := a.DataDependentEpsilon()
	if err != nil {
		t.Fatalf("DataDependentEpsilon: got error %v", err)
	}
	// Further accounting must not change the frozen pair.
	if _, err := a.GNMax([]float64{3, 1, 1}, []float64{0.5, 0.3, 0.2}); err != nil {
		t.Fatalf("GNMax: got error %v", err)
	}
	calc.eps, calc.order = 99, 2 // would change the answer if recomputed
	eps2, order2, err := a.DataDependentEpsilon()
	if err != nil {
		t.Fatalf("DataDependentEpsilon: got error %v", err)
	}

	if eps1 != eps2 || order1 != order2 {
		t.Errorf("DataDependentEpsilon: got (%f, %f) then (%f, %f), want identical cached values", eps1, order1, eps2, order2)
	}
	if calc.rdpToDPCalls != 1 {
		t.Errorf("RDPToDP was invoked %d times, want exactly 1", calc.rdpToDPCalls)
	}
}

func TestReleaseEpsilonUsesCachedConversion(t *testing.T) {
	calc := &fakeCalc{eps: 1.5, order: 8, lsRelease: 0.1, releaseMechCost: 0.2}
	a := newTestAccountant(Basic(), calc)
	if _, err := a.GNMax([]float64{3, 1, 1}, []float64{0.5, 0.3, 0.2}); err != nil {
		t.Fatalf("GNMax: got error %v", err)
	}
	r1, err := a.ReleaseEpsilon()
	if err != nil {
		t.Fatalf("ReleaseEpsilon: got error %v", err)
	}
	r2, err := a.ReleaseEpsilon()
	if err != nil {
		t.Fatalf("ReleaseEpsilon: got error %v", err)
	}
	if r1.Mean != r2.Mean || r1.Sdev != r2.Sdev {
		t.Errorf("ReleaseEpsilon: got parameters (%f, %f) then (%f, %f), want identical", r1.Mean, r1.Sdev, r2.Mean, r2.Sdev)
	}
	if calc.rdpToDPCalls != 1 {
		t.Errorf("RDPToDP was invoked %d times, want exactly 1", calc.rdpToDPCalls)
	}
}

func TestReleaseEpsilonAccumulatesWholeLog(t *testing.T) {
	calc := &fakeCalc{eps: 1.0, order: 8, lsRelease: 0.5, lsThreshold: 0.25, releaseMechCost: 0.1}
	a := newTestAccountant(Confident(2, 2), calc)
	// Three queries, all released under zero noise (max ≥ 2).
	for i := 0; i < 3; i++ {
		if _, err := a.GNMax([]float64{4, 1, 0}, []float64{0.4, 0.3, 0.3}); err != nil {
			t.Fatalf("GNMax: got error %v", err)
		}
	}
	r, err := a.ReleaseEpsilon()
	if err != nil {
		t.Fatalf("ReleaseEpsilon: got error %v", err)
	}
	// Each of the 3 records contributes one thresholding and one release term.
	want := constVec(5, 3*(0.5+0.25))
	if diff := cmp.Diff(want, calc.lastLsByDist); diff != "" {
		t.Errorf("local sensitivity accumulator mismatch (-want +got):\n%s", diff)
	}
	if wantMean := 1.0 + 0.1; r.Mean != wantMean {
		t.Errorf("ReleaseEpsilon: got mean %f, want %f", r.Mean, wantMean)
	}
	// smooth sensitivity of the stub is the accumulator maximum.
	if wantSdev := 3 * (0.5 + 0.25) * 10.0; r.Sdev != wantSdev {
		t.Errorf("ReleaseEpsilon: got sdev %f, want %f", r.Sdev, wantSdev)
	}
	// Zero-noise source returns the mean as the sample.
	if r.Sample != r.Mean {
		t.Errorf("ReleaseEpsilon: got sample %f under zero noise, want mean %f", r.Sample, r.Mean)
	}
}

func TestReleaseEpsilonBasicModeSkipsThresholdSensitivity(t *testing.T) {
	calc := &fakeCalc{eps: 1.0, order: 8, lsRelease: 0.5, lsThreshold: 123, releaseMechCost: 0.1}
	a := newTestAccountant(Basic(), calc)
	if _, err := a.GNMax([]float64{4, 1, 0}, []float64{0.4, 0.3, 0.3}); err != nil {
		t.Fatalf("GNMax: got error %v", err)
	}
	if _, err := a.ReleaseEpsilon(); err != nil {
		t.Fatalf("ReleaseEpsilon: got error %v", err)
	}
	if diff := cmp.Diff(constVec(5, 0.5), calc.lastLsByDist); diff != "" {
		t.Errorf("basic mode accumulated threshold sensitivity (-want +got):\n%s", diff)
	}
}

// End to end with the real privacy math: account a few confident-mode
// queries, then publish epsilon and sanity-check the published distribution.
func TestReleaseEpsilonEndToEnd(t *testing.T) {
	a := NewAccountant(&AccountantOptions{
		TeacherCount:    10,
		TargetDelta:     1e-6,
		SigmaVotes:      2.0,
		SigmaEpsRelease: 10.0,
		Mode:            Confident(6, 2),
		Noise:           noNoise{},
	})
	for i := 0; i < 4; i++ {
		if _, err := a.GNMax([]float64{9, 1, 0}, []float64{0.4, 0.3, 0.3}); err != nil {
			t.Fatalf("GNMax: got error %v", err)
		}
	}
	eps, order, err := a.DataDependentEpsilon()
	if err != nil {
		t.Fatalf("DataDependentEpsilon: got error %v", err)
	}
	if eps <= 0 || math.IsInf(eps, 0) || math.IsNaN(eps) {
		t.Errorf("DataDependentEpsilon: got eps %f, want positive and finite", eps)
	}
	if order <= 1 {
		t.Errorf("DataDependentEpsilon: got order %f, want greater than 1", order)
	}

	r, err := a.ReleaseEpsilon()
	if err != nil {
		t.Fatalf("ReleaseEpsilon: got error %v", err)
	}
	if r.Mean <= eps {
		t.Errorf("ReleaseEpsilon: got mean %f, want greater than the raw eps %f by the release mechanism cost", r.Mean, eps)
	}
	if r.Sdev < 0 || math.IsInf(r.Sdev, 0) || math.IsNaN(r.Sdev) {
		t.Errorf("ReleaseEpsilon: got sdev %f, want nonnegative and finite", r.Sdev)
	}
	// Zero-noise source: the sample equals the mean.
	if r.Sample != r.Mean {
		t.Errorf("ReleaseEpsilon: got sample %f under zero noise, want mean %f", r.Sample, r.Mean)
	}
}
