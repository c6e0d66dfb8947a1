package render

import "math"

// maxBins caps the number of histogram bins.
const maxBins = 50

// Bin is one histogram bucket covering [Lo, Hi). The last bin also includes
// its upper edge.
type Bin struct {
	Lo    float64
	Hi    float64
	Total float64
}

// Bins splits xs into ceil(sqrt(n)) equal-width bins, at most maxBins. Each
// bin totals the matching weights, or counts its values when weights is nil.
// Non-finite values and weights are skipped.
func Bins(xs, weights []float64) []Bin {
	xs, weights = finite(xs, weights)
	if len(xs) == 0 {
		return nil
	}
	lo, hi := bounds(xs)
	n := int(math.Ceil(math.Sqrt(float64(len(xs)))))
	n = min(max(n, 1), maxBins)
	if lo == hi {
		n = 1
	}

	width := (hi - lo) / float64(n)
	bins := make([]Bin, n)
	for i := range bins {
		bins[i].Lo = lo + float64(i)*width
		bins[i].Hi = lo + float64(i+1)*width
	}
	bins[n-1].Hi = hi

	for i, x := range xs {
		k := n - 1
		if width > 0 {
			k = min(int((x-lo)/width), n-1)
		}
		if weights != nil {
			bins[k].Total += weights[i]
		} else {
			bins[k].Total++
		}
	}
	return bins
}

func finite(xs, weights []float64) ([]float64, []float64) {
	var fx, fw []float64
	for i, x := range xs {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			continue
		}
		if weights != nil {
			if math.IsNaN(weights[i]) || math.IsInf(weights[i], 0) {
				continue
			}
			fw = append(fw, weights[i])
		}
		fx = append(fx, x)
	}
	if weights == nil {
		return fx, nil
	}
	return fx, fw
}
