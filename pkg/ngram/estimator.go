package ngram

import (
	"fmt"
	"math"
	"math/rand/v2"
)

// Estimator turns the raw counts observed after one context into a smoothed
// distribution. bins is a hint supplied by the model: the number of distinct
// contexts at the current order. Estimators are free to ignore it. Any extra
// parameters an estimator needs are fields of the implementing value.
type Estimator interface {
	Estimate(fd *FreqDist, bins int) (ProbDist, error)
	// Name identifies the estimator in logs and stats.
	Name() string
}

// SimpleGoodTuring is the simple Good-Turing estimator of Gale and Sampson.
// Counts r are re-estimated as r* = (r+1) E[N(r+1)] / E[N(r)], using the raw
// frequency of frequencies for small r and a log-log linear fit once the raw
// values become unreliable. Mass N1/N is reserved for unseen words and spread
// across Bins-B bins.
//
// Bins of zero means B+1: every unseen word receives the whole reserved mass.
// The model's bin hint is ignored.
type SimpleGoodTuring struct {
	Bins int
}

func (e SimpleGoodTuring) Name() string {
	return "SimpleGoodTuring"
}

func (e SimpleGoodTuring) Estimate(fd *FreqDist, _ int) (ProbDist, error) {
	bins := e.Bins
	if bins == 0 {
		bins = fd.B() + 1
	}
	if bins <= fd.B() {
		return nil, fmt.Errorf("%w: good-turing needs more than %d bins, got %d", ErrInvalidEstimator, fd.B(), bins)
	}

	rs, nrs, rNr := fd.freqOfFreqs()
	d := &goodTuringDist{fd: fd, bins: bins, rNr: rNr, renormal: 1}
	d.fit(rs, nrs)
	d.findSwitch(rs, nrs)
	d.renormalize(rs, nrs)
	return d, nil
}

type goodTuringDist struct {
	fd        *FreqDist
	bins      int
	rNr       map[int]int
	slope     float64
	intercept float64
	switchAt  int
	renormal  float64
}

// fit performs the least-squares fit of log(Zr) against log(r), where Zr
// averages Nr over the gap to the neighbouring non-zero frequencies.
func (d *goodTuringDist) fit(rs, nrs []int) {
	if len(rs) == 0 {
		return
	}
	logR := make([]float64, len(rs))
	logZr := make([]float64, len(rs))
	for j := range rs {
		i := 0
		if j > 0 {
			i = rs[j-1]
		}
		var k int
		if j == len(rs)-1 {
			k = 2*rs[j] - i
		} else {
			k = rs[j+1]
		}
		zr := 2.0 * float64(nrs[j]) / float64(k-i)
		logR[j] = math.Log(float64(rs[j]))
		logZr[j] = math.Log(zr)
	}

	var xMean, yMean float64
	for j := range logR {
		xMean += logR[j]
		yMean += logZr[j]
	}
	xMean /= float64(len(logR))
	yMean /= float64(len(logZr))

	var xyCov, xVar float64
	for j := range logR {
		xyCov += (logR[j] - xMean) * (logZr[j] - yMean)
		xVar += (logR[j] - xMean) * (logR[j] - xMean)
	}
	if xVar != 0 {
		d.slope = xyCov / xVar
	}
	d.intercept = yMean - d.slope*xMean
}

// findSwitch picks the first r at which the smoothed estimate replaces the
// raw Turing estimate: at a gap in r, at the end of r, or once the two
// estimates are within 1.96 standard deviations.
func (d *goodTuringDist) findSwitch(rs, nrs []int) {
	for i, r := range rs {
		if i+1 == len(rs) || rs[i+1] != r+1 {
			d.switchAt = r
			return
		}
		smooth := float64(r+1) * d.smoothedNr(r+1) / d.smoothedNr(r)
		raw := float64(r+1) * float64(nrs[i+1]) / float64(nrs[i])
		std := math.Sqrt(turingVariance(r, nrs[i], nrs[i+1]))
		if math.Abs(raw-smooth) <= 1.96*std {
			d.switchAt = r
			return
		}
	}
}

func turingVariance(r, nr, nr1 int) float64 {
	fr, fnr, fnr1 := float64(r), float64(nr), float64(nr1)
	return (fr + 1) * (fr + 1) * (fnr1 / (fnr * fnr)) * (1 + fnr1/fnr)
}

func (d *goodTuringDist) renormalize(rs, nrs []int) {
	var probCov float64
	for i, r := range rs {
		probCov += float64(nrs[i]) * d.probMeasure(r)
	}
	if probCov != 0 {
		d.renormal = (1 - d.probMeasure(0)) / probCov
	}
}

func (d *goodTuringDist) smoothedNr(r int) float64 {
	return math.Exp(d.intercept + d.slope*math.Log(float64(r)))
}

// probMeasure is r*/N before renormalisation.
func (d *goodTuringDist) probMeasure(count int) float64 {
	n := d.fd.N()
	if count == 0 {
		if n == 0 {
			return 1
		}
		return float64(d.rNr[1]) / float64(n)
	}
	var er1, er float64
	if d.switchAt > count {
		er1 = float64(d.rNr[count+1])
		er = float64(d.rNr[count])
	} else {
		er1 = d.smoothedNr(count + 1)
		er = d.smoothedNr(count)
	}
	rStar := float64(count+1) * er1 / er
	return rStar / float64(n)
}

func (d *goodTuringDist) Prob(word string) float64 {
	count := d.fd.Count(word)
	p := d.probMeasure(count)
	if count == 0 {
		return p / float64(d.bins-d.fd.B())
	}
	return p * d.renormal
}

func (d *goodTuringDist) Generate(rng *rand.Rand) string {
	return sampleDist(rng, d)
}

func (d *goodTuringDist) Discount() float64 {
	if d.fd.N() == 0 {
		return 0
	}
	return float64(d.rNr[1]) / float64(d.fd.N())
}

func (d *goodTuringDist) FreqDist() *FreqDist {
	return d.fd
}

// Lidstone adds Gamma to every count: P(w) = (c(w)+Gamma) / (N+Bins*Gamma).
// Bins of zero means the model's bin hint, raised to B+1 when smaller so that
// unseen words keep some mass.
type Lidstone struct {
	Gamma float64
	Bins  int
}

// Laplace is add-one smoothing.
func Laplace(bins int) Lidstone {
	return Lidstone{Gamma: 1, Bins: bins}
}

// ELE is the expected likelihood estimate, add-one-half smoothing.
func ELE(bins int) Lidstone {
	return Lidstone{Gamma: 0.5, Bins: bins}
}

func (e Lidstone) Name() string {
	switch e.Gamma {
	case 1:
		return "Laplace"
	case 0.5:
		return "ELE"
	default:
		return "Lidstone"
	}
}

func (e Lidstone) Estimate(fd *FreqDist, hint int) (ProbDist, error) {
	if e.Gamma < 0 || math.IsNaN(e.Gamma) {
		return nil, fmt.Errorf("%w: lidstone gamma must be non-negative, got %g", ErrInvalidEstimator, e.Gamma)
	}
	bins := e.Bins
	if bins == 0 {
		bins = max(hint, fd.B()+1)
	}
	if bins < fd.B() {
		return nil, fmt.Errorf("%w: lidstone needs at least %d bins, got %d", ErrInvalidEstimator, fd.B(), bins)
	}
	divisor := float64(fd.N()) + float64(bins)*e.Gamma
	if divisor == 0 {
		return nil, fmt.Errorf("%w: lidstone with gamma 0 on an empty distribution", ErrInvalidEstimator)
	}
	return &lidstoneDist{fd: fd, gamma: e.Gamma, bins: bins, divisor: divisor}, nil
}

type lidstoneDist struct {
	fd      *FreqDist
	gamma   float64
	bins    int
	divisor float64
}

func (d *lidstoneDist) Prob(word string) float64 {
	return (float64(d.fd.Count(word)) + d.gamma) / d.divisor
}

func (d *lidstoneDist) Generate(rng *rand.Rand) string {
	return sampleDist(rng, d)
}

func (d *lidstoneDist) Discount() float64 {
	gb := d.gamma * float64(d.bins)
	return gb / (float64(d.fd.N()) + gb)
}

func (d *lidstoneDist) FreqDist() *FreqDist {
	return d.fd
}

// MLE is the unsmoothed maximum likelihood estimate c(w)/N. It reserves no
// mass for unseen words.
type MLE struct{}

func (MLE) Name() string {
	return "MLE"
}

func (MLE) Estimate(fd *FreqDist, _ int) (ProbDist, error) {
	if fd.N() == 0 {
		return nil, fmt.Errorf("%w: mle on an empty distribution", ErrInvalidEstimator)
	}
	return &mleDist{fd: fd}, nil
}

type mleDist struct {
	fd *FreqDist
}

func (d *mleDist) Prob(word string) float64 {
	return float64(d.fd.Count(word)) / float64(d.fd.N())
}

func (d *mleDist) Generate(rng *rand.Rand) string {
	return sampleDist(rng, d)
}

func (d *mleDist) Discount() float64 {
	return 0
}

func (d *mleDist) FreqDist() *FreqDist {
	return d.fd
}
