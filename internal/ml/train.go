package ml

import (
	"context"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/marina21-cs/weteweta.github.io/internal/config"
	"github.com/marina21-cs/weteweta.github.io/internal/support/exception"
	"github.com/marina21-cs/weteweta.github.io/internal/support/logger"
)

// adam implements the Adam optimizer over a fixed set of parameter tensors.
type adam struct {
	lr      float64
	beta1   float64
	beta2   float64
	epsilon float64

	step int
	m    []*mat.Dense
	v    []*mat.Dense
}

func newAdam(lr float64, params []*mat.Dense) *adam {
	opt := &adam{
		lr:      lr,
		beta1:   0.9,
		beta2:   0.999,
		epsilon: 1e-8,
	}
	for _, p := range params {
		r, c := p.Dims()
		opt.m = append(opt.m, mat.NewDense(r, c, nil))
		opt.v = append(opt.v, mat.NewDense(r, c, nil))
	}
	return opt
}

// update applies one Adam step. params and grads must be in the order the
// optimizer was created with.
func (opt *adam) update(params, grads []*mat.Dense) {
	opt.step++
	correction1 := 1 - math.Pow(opt.beta1, float64(opt.step))
	correction2 := 1 - math.Pow(opt.beta2, float64(opt.step))

	for i, p := range params {
		pData := p.RawMatrix().Data
		gData := grads[i].RawMatrix().Data
		mData := opt.m[i].RawMatrix().Data
		vData := opt.v[i].RawMatrix().Data

		for j := range pData {
			g := gData[j]
			mData[j] = opt.beta1*mData[j] + (1-opt.beta1)*g
			vData[j] = opt.beta2*vData[j] + (1-opt.beta2)*g*g
			mHat := mData[j] / correction1
			vHat := vData[j] / correction2
			pData[j] -= opt.lr * mHat / (math.Sqrt(vHat) + opt.epsilon)
		}
	}
}

// TrainResult reports the loss history of a training run.
type TrainResult struct {
	// TrainLoss is the mean training loss per epoch.
	TrainLoss []float64
	// ValidationLoss is the mean validation loss per epoch.
	ValidationLoss []float64
	// BestEpoch is the 1-based epoch with the lowest validation loss.
	BestEpoch int
	// Epochs is the number of epochs actually run.
	Epochs int
}

// Trainer trains a Network on a Dataset with Adam, early stopping and a
// chronological train/validation split.
type Trainer struct {
	cfg config.ModelConfig
}

// NewTrainer creates a Trainer from the model configuration.
func NewTrainer(cfg config.ModelConfig) *Trainer {
	return &Trainer{cfg: cfg}
}

// Train fits a new Network to the dataset. Training stops early when the
// validation loss has not improved for cfg.Patience epochs; the weights of
// the best epoch are restored before returning.
func (t *Trainer) Train(ctx context.Context, ds *Dataset) (*Network, *TrainResult, error) {
	if ds == nil || len(ds.Windows) == 0 {
		return nil, nil, exception.New(moduleName, "training dataset is empty", nil, false)
	}

	trainSet, valSet := ds.Split(t.cfg.TrainSplit)
	logger.Infof("Training on %d windows, validating on %d windows.", len(trainSet), len(valSet))

	network := NewNetwork(NumFeatures, t.cfg.HiddenSize, 2, NumTargets, t.cfg.DropoutRate, t.cfg.Seed)
	optimizer := newAdam(t.cfg.LearningRate, network.parameters())
	rng := rand.New(rand.NewSource(t.cfg.Seed))

	batchSize := t.cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 32
	}

	result := &TrainResult{}
	bestLoss := math.Inf(1)
	var bestWeights []*mat.Dense
	epochsSinceBest := 0

	indexes := make([]int, len(trainSet))
	for i := range indexes {
		indexes[i] = i
	}

	for epoch := 1; epoch <= t.cfg.Epochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return nil, nil, exception.New(moduleName, "training canceled", err, false)
		}

		rng.Shuffle(len(indexes), func(i, j int) {
			indexes[i], indexes[j] = indexes[j], indexes[i]
		})

		epochLoss := 0.0
		for start := 0; start < len(indexes); start += batchSize {
			end := start + batchSize
			if end > len(indexes) {
				end = len(indexes)
			}

			grads := network.newGrads()
			batchLoss := 0.0
			for _, idx := range indexes[start:end] {
				sample := trainSet[idx]
				state := network.forwardTrain(sample.Inputs)
				batchLoss += network.backwardTrain(state, sample.Target, grads)
			}

			// Average the accumulated gradients over the batch.
			scale := 1 / float64(end-start)
			for _, g := range grads.tensors() {
				g.Scale(scale, g)
			}
			optimizer.update(network.parameters(), grads.tensors())

			epochLoss += batchLoss
		}
		epochLoss /= float64(len(trainSet))
		result.TrainLoss = append(result.TrainLoss, epochLoss)

		// Validation loss; with no validation set the training loss drives
		// early stopping.
		monitored := epochLoss
		if len(valSet) > 0 {
			valLoss, err := network.evaluate(valSet)
			if err != nil {
				return nil, nil, err
			}
			result.ValidationLoss = append(result.ValidationLoss, valLoss)
			monitored = valLoss
		}
		result.Epochs = epoch

		logger.Debugf("Epoch %d/%d: train_loss=%.6f monitored=%.6f", epoch, t.cfg.Epochs, epochLoss, monitored)

		if monitored < bestLoss {
			bestLoss = monitored
			bestWeights = network.snapshot()
			result.BestEpoch = epoch
			epochsSinceBest = 0
		} else {
			epochsSinceBest++
			if t.cfg.Patience > 0 && epochsSinceBest >= t.cfg.Patience {
				logger.Infof("Early stopping at epoch %d (best epoch %d, loss %.6f).", epoch, result.BestEpoch, bestLoss)
				break
			}
		}
	}

	if bestWeights != nil {
		network.restore(bestWeights)
	}

	return network, result, nil
}

// evaluate computes the mean MSE loss over a window set without dropout or
// weight updates.
func (n *Network) evaluate(windows []Window) (float64, error) {
	total := 0.0
	for _, w := range windows {
		pred, err := n.Predict(w.Inputs)
		if err != nil {
			return 0, err
		}
		loss := 0.0
		for k := range pred {
			diff := pred[k] - w.Target[k]
			loss += diff * diff
		}
		total += loss / float64(len(pred))
	}
	return total / float64(len(windows)), nil
}
