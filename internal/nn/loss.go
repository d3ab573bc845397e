package nn

import (
	"gonum.org/v1/gonum/mat"
)

// MSELoss computes Mean Squared Error loss.
//
// Loss = mean((predictions - targets)²)
//
// MSE is commonly used for regression tasks where the goal is to predict
// continuous values.
//
// Example:
//
//	var mse nn.MSELoss
//	out, _ := model.Apply(x)
//	loss, _ := mse.Forward(out, target)
//	errOut, _ := mse.Gradient(out, target)
//	_, _ = model.Backward(x, out, errOut)
type MSELoss struct{}

// Forward computes the MSE loss.
func (MSELoss) Forward(predictions, targets *mat.VecDense) (float64, error) {
	diff, err := mseDiff(predictions, targets)
	if err != nil {
		return 0, err
	}
	return mat.Dot(diff, diff) / float64(diff.Len()), nil
}

// Gradient returns dLoss/dPredictions = 2 * (predictions - targets) / n.
func (MSELoss) Gradient(predictions, targets *mat.VecDense) (*mat.VecDense, error) {
	diff, err := mseDiff(predictions, targets)
	if err != nil {
		return nil, err
	}
	diff.ScaleVec(2/float64(diff.Len()), diff)
	return diff, nil
}

func mseDiff(predictions, targets *mat.VecDense) (*mat.VecDense, error) {
	if predictions.Len() != targets.Len() || predictions.Len() == 0 {
		return nil, &ShapeError{
			Op:       "MSELoss",
			Name:     "predictions",
			Expected: [2]int{targets.Len(), 1},
			Got:      [2]int{predictions.Len(), 1},
		}
	}
	diff := mat.NewVecDense(predictions.Len(), nil)
	diff.SubVec(predictions, targets)
	return diff, nil
}
