package sched

import "math"

// quantileEstimator implements the P² algorithm for streaming quantile
// estimation in O(1) time per observation, without retaining the sample
// history: Jain, R. and Chlamtac, I. (1985), "The P² Algorithm for Dynamic
// Calculation of Quantiles and Histograms Without Storing Observations".
// Adapted from the teacher's event-loop latency metrics (psquare.go),
// which uses the identical estimator to track task-latency percentiles;
// here it tracks context-switch latency and wake latency (metrics.go)
// instead of task/microtask timings.
//
// Not safe for concurrent use; callers serialize through LatencyMetrics'
// mutex.
type quantileEstimator struct {
	target float64

	heights   [5]float64
	positions [5]int
	desired   [5]float64
	increment [5]float64

	count int
	seed  [5]float64
}

func newQuantileEstimator(target float64) *quantileEstimator {
	if target < 0 {
		target = 0
	}
	if target > 1 {
		target = 1
	}
	return &quantileEstimator{
		target:    target,
		increment: [5]float64{0, target / 2, target, (1 + target) / 2, 1},
	}
}

func (e *quantileEstimator) Update(x float64) {
	e.count++
	if e.count <= 5 {
		e.seed[e.count-1] = x
		if e.count == 5 {
			e.seedMarkers()
		}
		return
	}

	var k int
	switch {
	case x < e.heights[0]:
		e.heights[0] = x
		k = 0
	case x >= e.heights[4]:
		e.heights[4] = x
		k = 3
	default:
		for k = 0; k < 4; k++ {
			if e.heights[k] <= x && x < e.heights[k+1] {
				break
			}
		}
	}

	for i := k + 1; i < 5; i++ {
		e.positions[i]++
	}
	for i := range e.desired {
		e.desired[i] += e.increment[i]
	}

	for i := 1; i < 4; i++ {
		d := e.desired[i] - float64(e.positions[i])
		if (d >= 1 && e.positions[i+1]-e.positions[i] > 1) ||
			(d <= -1 && e.positions[i-1]-e.positions[i] < -1) {
			sign := 1
			if d < 0 {
				sign = -1
			}
			if q := e.parabolic(i, sign); e.heights[i-1] < q && q < e.heights[i+1] {
				e.heights[i] = q
			} else {
				e.heights[i] = e.linear(i, sign)
			}
			e.positions[i] += sign
		}
	}
}

func (e *quantileEstimator) seedMarkers() {
	for i := 1; i < 5; i++ {
		key := e.seed[i]
		j := i - 1
		for j >= 0 && e.seed[j] > key {
			e.seed[j+1] = e.seed[j]
			j--
		}
		e.seed[j+1] = key
	}
	for i := 0; i < 5; i++ {
		e.heights[i] = e.seed[i]
		e.positions[i] = i
	}
	e.desired = [5]float64{0, 2 * e.target, 4 * e.target, 2 + 2*e.target, 4}
}

func (e *quantileEstimator) parabolic(i, d int) float64 {
	df := float64(d)
	ni, niPrev, niNext := float64(e.positions[i]), float64(e.positions[i-1]), float64(e.positions[i+1])
	t1 := df / (niNext - niPrev)
	t2 := (ni - niPrev + df) * (e.heights[i+1] - e.heights[i]) / (niNext - ni)
	t3 := (niNext - ni - df) * (e.heights[i] - e.heights[i-1]) / (ni - niPrev)
	return e.heights[i] + t1*(t2+t3)
}

func (e *quantileEstimator) linear(i, d int) float64 {
	if d == 1 {
		return e.heights[i] + (e.heights[i+1]-e.heights[i])/float64(e.positions[i+1]-e.positions[i])
	}
	return e.heights[i] - (e.heights[i]-e.heights[i-1])/float64(e.positions[i]-e.positions[i-1])
}

// Value returns the current quantile estimate.
func (e *quantileEstimator) Value() float64 {
	if e.count == 0 {
		return 0
	}
	if e.count < 5 {
		sorted := append([]float64(nil), e.seed[:e.count]...)
		for i := 1; i < len(sorted); i++ {
			key := sorted[i]
			j := i - 1
			for j >= 0 && sorted[j] > key {
				sorted[j+1] = sorted[j]
				j--
			}
			sorted[j+1] = key
		}
		idx := int(float64(len(sorted)-1) * e.target)
		return sorted[idx]
	}
	return e.heights[2]
}

// quantileSet tracks several target quantiles of the same observation
// stream in one pass, plus running count/sum/max for the mean.
type quantileSet struct {
	estimators []*quantileEstimator
	count      int
	sum        float64
	max        float64
}

func newQuantileSet(targets ...float64) *quantileSet {
	s := &quantileSet{
		estimators: make([]*quantileEstimator, len(targets)),
		max:        -math.MaxFloat64,
	}
	for i, t := range targets {
		s.estimators[i] = newQuantileEstimator(t)
	}
	return s
}

func (s *quantileSet) Update(x float64) {
	s.count++
	s.sum += x
	if x > s.max {
		s.max = x
	}
	for _, e := range s.estimators {
		e.Update(x)
	}
}

func (s *quantileSet) Quantile(i int) float64 {
	if i < 0 || i >= len(s.estimators) {
		return 0
	}
	return s.estimators[i].Value()
}

func (s *quantileSet) Count() int { return s.count }

func (s *quantileSet) Mean() float64 {
	if s.count == 0 {
		return 0
	}
	return s.sum / float64(s.count)
}

func (s *quantileSet) Max() float64 {
	if s.count == 0 {
		return 0
	}
	return s.max
}
