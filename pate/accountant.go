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

// Package pate implements a sequential privacy accountant for the PATE
// teacher-ensemble label-release protocol. An Accountant decides per query
// whether to release a noisy teacher consensus label, tracks the cumulative
// Rényi differential privacy loss of all releases, and can privately publish
// the accumulated loss itself through a smooth-sensitivity-calibrated
// Gaussian mechanism.
package pate

import (
	"fmt"

	log "github.com/golang/glog"
	"gonum.org/v1/gonum/floats"

	"github.com/Sophie-Normand/pate-go/checks"
	"github.com/Sophie-Normand/pate-go/noise"
	"github.com/Sophie-Normand/pate-go/rdpmath"
)

// Calculator is the boundary to the privacy mathematics library. The
// production implementation is rdpmath.Lib; tests inject deterministic
// stand-ins.
type Calculator interface {
	// LogProbabilities returns per-class log-probabilities of a
	// non-plurality outcome under Gaussian vote perturbation of scale sigma.
	LogProbabilities(votes []float64, sigma float64) []float64
	// ReleaseCost returns the per-order RDP cost of releasing the noisy argmax.
	ReleaseCost(sigma float64, orders, logProbs []float64) []float64
	// ThresholdCost returns the per-order RDP cost of the noisy threshold check.
	ThresholdCost(sigma float64, orders []float64, threshold float64, votes []float64) []float64
	// RDPToDP converts cumulative per-order RDP losses into the best (ε, order) pair.
	RDPToDP(orders, rdp []float64, delta float64) (eps, order float64)
	// LocalSensitivity bounds the by-distance change of the release cost.
	LocalSensitivity(votes []float64, teacherCount int, sigma, order float64) []float64
	// LocalSensitivityThreshold bounds the by-distance change of the threshold cost.
	LocalSensitivityThreshold(votes []float64, teacherCount int, sigma, order, threshold float64) []float64
	// SmoothSensitivity converts a by-distance sensitivity vector into a
	// scalar β-smooth bound.
	SmoothSensitivity(beta float64, lsByDist []float64) float64
	// ReleaseMechanismCost returns the RDP cost of the smooth-sensitivity
	// Gaussian release itself.
	ReleaseMechanismCost(beta, sigma, order float64) float64
}

// ModeKind identifies one of the three thresholding modes.
type ModeKind int

const (
	// BasicModeKind releases every query without a thresholding step.
	BasicModeKind ModeKind = iota
	// ConfidentModeKind releases only when a noisy vote maximum clears a threshold.
	ConfidentModeKind
	// InteractiveModeKind releases on strong teacher-student disagreement and
	// otherwise may answer with the student's own confident prediction for free.
	InteractiveModeKind
)

// Mode is a thresholding mode together with the parameters it requires.
// The zero value is the basic mode.
type Mode struct {
	kind        ModeKind
	threshold   float64
	gamma       float64
	sigmaThresh float64
}

// Basic returns the mode that releases every query.
func Basic() Mode {
	return Mode{kind: BasicModeKind}
}

// Confident returns the mode that releases a query only if
// max(votes) + N(0, sigmaThresh) clears the threshold.
func Confident(threshold, sigmaThresh float64) Mode {
	return Mode{kind: ConfidentModeKind, threshold: threshold, sigmaThresh: sigmaThresh}
}

// Interactive returns the mode that thresholds the teacher-student
// disagreement and falls back to the student's own label when the student is
// more confident than gamma.
func Interactive(threshold, gamma, sigmaThresh float64) Mode {
	return Mode{kind: InteractiveModeKind, threshold: threshold, gamma: gamma, sigmaThresh: sigmaThresh}
}

// Kind returns the mode's kind.
func (m Mode) Kind() ModeKind {
	return m.kind
}

type queryRecord struct {
	votes       []float64
	threshVotes []float64
	released    bool
}

// Accountant tracks the cumulative privacy loss of a sequence of
// teacher-vote releases and decides per query whether to answer.
//
// Queries must be submitted strictly sequentially; the accountant mutates its
// RDP state and query log in place and the epsilon-release step depends on
// the completed, ordered log. Not thread-safe.
type Accountant struct {
	// Parameters
	teacherCount    int
	targetDelta     float64
	sigmaVotes      float64
	sigmaEpsRelease float64
	mode            Mode
	orders          []float64
	noise           noise.Noise
	mathLib         Calculator

	// State variables
	numClasses int // pinned by the first query
	rdpByOrder []float64
	queryLog   []queryRecord

	converted        bool // whether (dataDependentEps, selectedOrder) are frozen
	dataDependentEps float64
	selectedOrder    float64
}

// AccountantOptions contains the options necessary to initialize an Accountant.
type AccountantOptions struct {
	TeacherCount    int         // Number of teachers in the ensemble. Required.
	TargetDelta     float64     // Target δ of the RDP to (ε,δ)-DP conversion. Required.
	SigmaVotes      float64     // Standard deviation of the vote-release perturbation. Required.
	SigmaEpsRelease float64     // Noise scale of the private epsilon release. Required.
	Mode            Mode        // Thresholding mode. Defaults to Basic().
	FullOrderList   bool        // Use the fine order grid instead of the short one.
	NoiseKind       noise.Kind  // Kind of noise used if Noise is not set.
	Noise           noise.Noise // Noise source. Takes precedence over NoiseKind.
	// Privacy mathematics library. Defaults to rdpmath. Only tests replace it,
	// which is why the option is not exported.
	mathLib Calculator
}

// NewAccountant returns a new Accountant with zero accumulated privacy loss.
//
// Misconfiguration (missing threshold parameters for the chosen mode, invalid
// delta or sigmas) is fatal: an accountant must not be usable in an
// inconsistent configuration.
func NewAccountant(opt *AccountantOptions) *Accountant {
	if opt == nil {
		opt = &AccountantOptions{}
	}
	n := opt.Noise
	if n == nil {
		n = noise.ToNoise(opt.NoiseKind)
	}
	if n == nil {
		log.Fatalf("NewAccountant: unrecognised noise kind (%v)", opt.NoiseKind)
	}
	mathLib := opt.mathLib
	if mathLib == nil {
		mathLib = rdpmath.Lib{}
	}
	orders := Orders(!opt.FullOrderList)

	if err := checkAccountantOptions(opt); err != nil {
		log.Fatalf("NewAccountant: %v", err)
	}
	return &Accountant{
		teacherCount:    opt.TeacherCount,
		targetDelta:     opt.TargetDelta,
		sigmaVotes:      opt.SigmaVotes,
		sigmaEpsRelease: opt.SigmaEpsRelease,
		mode:            opt.Mode,
		orders:          orders,
		noise:           n,
		mathLib:         mathLib,
		rdpByOrder:      make([]float64, len(orders)),
	}
}

func checkAccountantOptions(opt *AccountantOptions) error {
	if err := checks.CheckTeacherCount(opt.TeacherCount); err != nil {
		return err
	}
	if err := checks.CheckDeltaStrict(opt.TargetDelta, "TargetDelta"); err != nil {
		return err
	}
	if err := checks.CheckSigma(opt.SigmaVotes, "SigmaVotes"); err != nil {
		return err
	}
	if err := checks.CheckSigma(opt.SigmaEpsRelease, "SigmaEpsRelease"); err != nil {
		return err
	}
	switch opt.Mode.kind {
	case BasicModeKind:
	case ConfidentModeKind:
		if err := checks.CheckThreshold(opt.Mode.threshold); err != nil {
			return err
		}
		if err := checks.CheckSigma(opt.Mode.sigmaThresh, "SigmaThresh"); err != nil {
			return err
		}
	case InteractiveModeKind:
		if err := checks.CheckThreshold(opt.Mode.threshold); err != nil {
			return err
		}
		if err := checks.CheckSigma(opt.Mode.sigmaThresh, "SigmaThresh"); err != nil {
			return err
		}
		if err := checks.CheckGamma(opt.Mode.gamma); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown mode kind %d", opt.Mode.kind)
	}
	return nil
}

// GNMax submits one query to the accountant: votes holds the per-class
// teacher vote counts, preds the student's per-class probabilities for the
// same sample. It returns the index of the released label, or nil if the
// query is not answered. In the interactive mode an answer may instead be
// the student's own argmax, which costs no privacy.
//
// Every accepted query appends exactly one record to the query log and
// charges the RDP accumulator for each privacy-relevant random choice. A
// rejected query (shape mismatch) leaves the accountant unchanged.
func (a *Accountant) GNMax(votes, preds []float64) (*int64, error) {
	if err := a.checkQueryShape(votes, preds); err != nil {
		return nil, err
	}
	a.numClasses = len(votes)

	released := false
	var studentLabel *int64
	threshVotes := votes

	switch a.mode.kind {
	case BasicModeKind:
		released = true
	case ConfidentModeKind:
		a.addRDPLoss(a.mathLib.ThresholdCost(a.mode.sigmaThresh, a.orders, a.mode.threshold, votes))
		if floats.Max(votes)+a.noise.Sample(0, a.mode.sigmaThresh) >= a.mode.threshold {
			released = true
		}
	case InteractiveModeKind:
		threshVotes = make([]float64, len(votes))
		for i := range votes {
			threshVotes[i] = votes[i] - float64(a.teacherCount)*preds[i]
		}
		a.addRDPLoss(a.mathLib.ThresholdCost(a.mode.sigmaThresh, a.orders, a.mode.threshold, threshVotes))
		if floats.Max(threshVotes)+a.noise.Sample(0, a.mode.sigmaThresh) >= a.mode.threshold {
			released = true
		} else if floats.Max(preds) > a.mode.gamma {
			idx := int64(floats.MaxIdx(preds))
			studentLabel = &idx
		}
	}

	a.queryLog = append(a.queryLog, queryRecord{
		votes:       copyVector(votes),
		threshVotes: copyVector(threshVotes),
		released:    released,
	})

	if !released {
		return studentLabel, nil
	}
	a.addRDPLoss(a.mathLib.ReleaseCost(a.sigmaVotes, a.orders, a.mathLib.LogProbabilities(votes, a.sigmaVotes)))
	idx := int64(floats.MaxIdx(a.noise.AddToVector(votes, a.sigmaVotes)))
	return &idx, nil
}

// GNMaxBatch submits a batch of queries sample by sample. It returns the
// labels of the answered queries together with their indices within the
// batch; unanswered queries are filtered out. A shape error aborts the batch,
// leaving the queries before the offending sample accounted.
func (a *Accountant) GNMaxBatch(votes, preds [][]float64) ([]int64, []int, error) {
	if len(votes) != len(preds) {
		return nil, nil, fmt.Errorf("GNMaxBatch: got %d vote vectors and %d prediction vectors, must be equal", len(votes), len(preds))
	}
	var labels []int64
	var indices []int
	for i := range votes {
		label, err := a.GNMax(votes[i], preds[i])
		if err != nil {
			return nil, nil, fmt.Errorf("GNMaxBatch: sample %d: %v", i, err)
		}
		if label != nil {
			labels = append(labels, *label)
			indices = append(indices, i)
		}
	}
	return labels, indices, nil
}

func (a *Accountant) checkQueryShape(votes, preds []float64) error {
	if len(votes) < 2 {
		return fmt.Errorf("GNMax: got %d classes, need at least 2", len(votes))
	}
	if len(votes) != len(preds) {
		return fmt.Errorf("GNMax: votes have %d classes but predictions have %d", len(votes), len(preds))
	}
	if a.numClasses != 0 && len(votes) != a.numClasses {
		return fmt.Errorf("GNMax: got %d classes, accountant has logged %d-class queries", len(votes), a.numClasses)
	}
	return nil
}

// addRDPLoss is the only path by which the per-order RDP state changes.
func (a *Accountant) addRDPLoss(cost []float64) {
	if len(cost) != len(a.rdpByOrder) {
		log.Fatalf("addRDPLoss: cost vector has length %d, order grid has length %d", len(cost), len(a.rdpByOrder))
	}
	floats.Add(a.rdpByOrder, cost)
}

// Orders returns a copy of the accountant's order grid.
func (a *Accountant) Orders() []float64 {
	return copyVector(a.orders)
}

// RDPByOrder returns a copy of the cumulative per-order RDP loss.
func (a *Accountant) RDPByOrder() []float64 {
	return copyVector(a.rdpByOrder)
}

// NoiseKind returns the kind of the accountant's noise distribution.
// Injected test stubs report as Unrecognised.
func (a *Accountant) NoiseKind() noise.Kind {
	return noise.ToKind(a.noise)
}

// QueryCount returns the number of logged queries.
func (a *Accountant) QueryCount() int {
	return len(a.queryLog)
}

// ReleasedCount returns the number of logged queries whose consensus label
// was released.
func (a *Accountant) ReleasedCount() int {
	count := 0
	for _, rec := range a.queryLog {
		if rec.released {
			count++
		}
	}
	return count
}

func copyVector(v []float64) []float64 {
	out := make([]float64, len(v))
	copy(out, v)
	return out
}
