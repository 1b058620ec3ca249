package assess

import (
	"math"
)

// AUC computes the rank-based area under the ROC curve (Mann-Whitney U
// normalized) for how well values separate the two outcome classes. The
// second return is false when either class is empty, in which case the
// separability is undefined.
func AUC(values []float64, outcomes []int) (float64, bool) {
	if len(values) != len(outcomes) || len(values) == 0 {
		return math.NaN(), false
	}

	ranks := Ranks(values)

	var rankSumPos float64
	var nPos, nNeg int
	for i, o := range outcomes {
		if o == 1 {
			nPos++
			rankSumPos += ranks[i]
		} else {
			nNeg++
		}
	}
	if nPos == 0 || nNeg == 0 {
		return math.NaN(), false
	}

	// U = R_pos − n_pos(n_pos+1)/2, AUC = U / (n_pos · n_neg)
	u := rankSumPos - float64(nPos)*float64(nPos+1)/2
	return u / (float64(nPos) * float64(nNeg)), true
}

// AbsAUC folds the AUC around 0.5 so that direction of separation does not
// matter, only its magnitude.
func AbsAUC(values []float64, outcomes []int) (float64, bool) {
	auc, ok := AUC(values, outcomes)
	if !ok {
		return auc, false
	}
	return 0.5 + math.Abs(auc-0.5), true
}
