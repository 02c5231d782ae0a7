package ml

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/marina21-cs/weteweta.github.io/internal/support/exception"
)

// Predictor predicts scaled next-day targets from a scaled input window.
type Predictor interface {
	// Predict takes a window of scaled feature vectors and returns the
	// scaled (temperature, rainfall) prediction for the following day.
	Predict(window [][]float64) ([]float64, error)
}

// Gate layout inside the stacked 4H-dimensional pre-activation vector:
// input, forget, candidate, output.

// lstmLayer is a single LSTM layer.
type lstmLayer struct {
	inputSize  int
	hiddenSize int

	Wx *mat.Dense // 4H x D
	Wh *mat.Dense // 4H x H
	B  *mat.Dense // 4H x 1
}

func newLSTMLayer(inputSize, hiddenSize int, rng *rand.Rand) *lstmLayer {
	l := &lstmLayer{
		inputSize:  inputSize,
		hiddenSize: hiddenSize,
		Wx:         glorot(4*hiddenSize, inputSize, rng),
		Wh:         glorot(4*hiddenSize, hiddenSize, rng),
		B:          mat.NewDense(4*hiddenSize, 1, nil),
	}
	// Forget gate bias starts at 1 so early training does not wipe the cell
	// state.
	for k := hiddenSize; k < 2*hiddenSize; k++ {
		l.B.Set(k, 0, 1)
	}
	return l
}

func (l *lstmLayer) biasVec() *mat.VecDense {
	return mat.NewVecDense(4*l.hiddenSize, l.B.RawMatrix().Data)
}

// layerCache holds the per-timestep activations needed for backpropagation
// through time. hs and cs have T+1 entries; index t holds the state entering
// timestep t.
type layerCache struct {
	xs     [][]float64
	hs     [][]float64
	cs     [][]float64
	is     [][]float64
	fs     [][]float64
	gs     [][]float64
	os     [][]float64
	tanhCs [][]float64
}

// forward runs the layer over the sequence and returns the hidden state at
// every timestep.
func (l *lstmLayer) forward(xs [][]float64) ([][]float64, *layerCache) {
	T := len(xs)
	H := l.hiddenSize

	cache := &layerCache{
		xs:     xs,
		hs:     make([][]float64, 0, T+1),
		cs:     make([][]float64, 0, T+1),
		is:     make([][]float64, 0, T),
		fs:     make([][]float64, 0, T),
		gs:     make([][]float64, 0, T),
		os:     make([][]float64, 0, T),
		tanhCs: make([][]float64, 0, T),
	}

	hPrev := make([]float64, H)
	cPrev := make([]float64, H)
	cache.hs = append(cache.hs, hPrev)
	cache.cs = append(cache.cs, cPrev)

	outputs := make([][]float64, T)
	for t, x := range xs {
		var z mat.VecDense
		z.MulVec(l.Wx, mat.NewVecDense(len(x), x))
		var zh mat.VecDense
		zh.MulVec(l.Wh, mat.NewVecDense(H, hPrev))
		z.AddVec(&z, &zh)
		z.AddVec(&z, l.biasVec())
		raw := z.RawVector().Data

		iGate := make([]float64, H)
		fGate := make([]float64, H)
		gGate := make([]float64, H)
		oGate := make([]float64, H)
		c := make([]float64, H)
		tanhC := make([]float64, H)
		h := make([]float64, H)
		for k := 0; k < H; k++ {
			iGate[k] = sigmoid(raw[k])
			fGate[k] = sigmoid(raw[H+k])
			gGate[k] = math.Tanh(raw[2*H+k])
			oGate[k] = sigmoid(raw[3*H+k])
			c[k] = fGate[k]*cPrev[k] + iGate[k]*gGate[k]
			tanhC[k] = math.Tanh(c[k])
			h[k] = oGate[k] * tanhC[k]
		}

		cache.is = append(cache.is, iGate)
		cache.fs = append(cache.fs, fGate)
		cache.gs = append(cache.gs, gGate)
		cache.os = append(cache.os, oGate)
		cache.tanhCs = append(cache.tanhCs, tanhC)
		cache.hs = append(cache.hs, h)
		cache.cs = append(cache.cs, c)

		outputs[t] = h
		hPrev = h
		cPrev = c
	}

	return outputs, cache
}

// layerGrads accumulates parameter gradients for one layer.
type layerGrads struct {
	dWx *mat.Dense
	dWh *mat.Dense
	dB  *mat.Dense
}

// backward runs backpropagation through time given the gradient of the loss
// with respect to each timestep's hidden state. It accumulates parameter
// gradients and returns the gradient with respect to the layer inputs.
func (l *lstmLayer) backward(cache *layerCache, dhs [][]float64, grads *layerGrads) [][]float64 {
	T := len(cache.xs)
	H := l.hiddenSize
	D := l.inputSize

	dxs := make([][]float64, T)
	dhNext := make([]float64, H)
	dcNext := make([]float64, H)
	dz := make([]float64, 4*H)

	for t := T - 1; t >= 0; t-- {
		hPrev := cache.hs[t]
		cPrev := cache.cs[t]
		iGate, fGate, gGate, oGate := cache.is[t], cache.fs[t], cache.gs[t], cache.os[t]
		tanhC := cache.tanhCs[t]

		for k := 0; k < H; k++ {
			dh := dhs[t][k] + dhNext[k]
			do := dh * tanhC[k]
			dc := dh*oGate[k]*(1-tanhC[k]*tanhC[k]) + dcNext[k]
			di := dc * gGate[k]
			df := dc * cPrev[k]
			dg := dc * iGate[k]
			dcNext[k] = dc * fGate[k]

			dz[k] = di * iGate[k] * (1 - iGate[k])
			dz[H+k] = df * fGate[k] * (1 - fGate[k])
			dz[2*H+k] = dg * (1 - gGate[k]*gGate[k])
			dz[3*H+k] = do * oGate[k] * (1 - oGate[k])
		}

		dzVec := mat.NewVecDense(4*H, dz)

		var outerX mat.Dense
		outerX.Outer(1, dzVec, mat.NewVecDense(D, cache.xs[t]))
		grads.dWx.Add(grads.dWx, &outerX)

		var outerH mat.Dense
		outerH.Outer(1, dzVec, mat.NewVecDense(H, hPrev))
		grads.dWh.Add(grads.dWh, &outerH)

		bData := grads.dB.RawMatrix().Data
		for k := range dz {
			bData[k] += dz[k]
		}

		var dx mat.VecDense
		dx.MulVec(l.Wx.T(), dzVec)
		dxs[t] = append([]float64(nil), dx.RawVector().Data...)

		var dhp mat.VecDense
		dhp.MulVec(l.Wh.T(), dzVec)
		copy(dhNext, dhp.RawVector().Data)
	}

	return dxs
}

// Network is a stacked LSTM regressor with a dense output head. Dropout is
// applied to each layer's outputs during training only.
type Network struct {
	layers []*lstmLayer

	Wy *mat.Dense // outputSize x H
	By *mat.Dense // outputSize x 1

	inputSize   int
	hiddenSize  int
	outputSize  int
	dropoutRate float64
	rng         *rand.Rand
}

// NewNetwork creates a stacked LSTM with numLayers layers of hiddenSize
// units each, followed by a dense layer of outputSize units.
func NewNetwork(inputSize, hiddenSize, numLayers, outputSize int, dropoutRate float64, seed int64) *Network {
	rng := rand.New(rand.NewSource(seed))

	n := &Network{
		inputSize:   inputSize,
		hiddenSize:  hiddenSize,
		outputSize:  outputSize,
		dropoutRate: dropoutRate,
		rng:         rng,
	}
	for i := 0; i < numLayers; i++ {
		in := hiddenSize
		if i == 0 {
			in = inputSize
		}
		n.layers = append(n.layers, newLSTMLayer(in, hiddenSize, rng))
	}
	n.Wy = glorot(outputSize, hiddenSize, rng)
	n.By = mat.NewDense(outputSize, 1, nil)
	return n
}

// Predict runs inference on a scaled window. Dropout is disabled.
func (n *Network) Predict(window [][]float64) ([]float64, error) {
	if len(window) == 0 {
		return nil, exception.New(moduleName, "prediction window is empty", nil, true)
	}
	for _, row := range window {
		if len(row) != n.inputSize {
			return nil, exception.Newf(moduleName,
				"prediction window has %d features per day, model expects %d", len(row), n.inputSize)
		}
	}

	hs := window
	for _, layer := range n.layers {
		hs, _ = layer.forward(hs)
	}
	last := hs[len(hs)-1]

	var out mat.VecDense
	out.MulVec(n.Wy, mat.NewVecDense(len(last), last))
	out.AddVec(&out, mat.NewVecDense(n.outputSize, n.By.RawMatrix().Data))

	return append([]float64(nil), out.RawVector().Data...), nil
}

var _ Predictor = (*Network)(nil)

// forwardState holds everything the backward pass needs for one sample.
type forwardState struct {
	caches     []*layerCache
	masks      [][][]float64
	lastHidden []float64
	pred       []float64
}

// forwardTrain runs a training-mode forward pass with inverted dropout.
func (n *Network) forwardTrain(window [][]float64) *forwardState {
	state := &forwardState{
		caches: make([]*layerCache, len(n.layers)),
		masks:  make([][][]float64, len(n.layers)),
	}

	hs := window
	for li, layer := range n.layers {
		var cache *layerCache
		hs, cache = layer.forward(hs)
		state.caches[li] = cache

		mask := n.dropoutMask(len(hs), layer.hiddenSize)
		state.masks[li] = mask
		dropped := make([][]float64, len(hs))
		for t := range hs {
			dropped[t] = make([]float64, len(hs[t]))
			for k := range hs[t] {
				dropped[t][k] = hs[t][k] * mask[t][k]
			}
		}
		hs = dropped
	}

	state.lastHidden = hs[len(hs)-1]

	var out mat.VecDense
	out.MulVec(n.Wy, mat.NewVecDense(len(state.lastHidden), state.lastHidden))
	out.AddVec(&out, mat.NewVecDense(n.outputSize, n.By.RawMatrix().Data))
	state.pred = append([]float64(nil), out.RawVector().Data...)

	return state
}

// backwardTrain accumulates gradients for one sample given its forward
// state and scaled target, and returns the sample's MSE loss.
func (n *Network) backwardTrain(state *forwardState, target []float64, grads *netGrads) float64 {
	// Mean squared error over the output units.
	loss := 0.0
	dpred := make([]float64, n.outputSize)
	for k := 0; k < n.outputSize; k++ {
		diff := state.pred[k] - target[k]
		loss += diff * diff
		dpred[k] = 2 * diff / float64(n.outputSize)
	}
	loss /= float64(n.outputSize)

	dpredVec := mat.NewVecDense(n.outputSize, dpred)

	var outer mat.Dense
	outer.Outer(1, dpredVec, mat.NewVecDense(len(state.lastHidden), state.lastHidden))
	grads.dWy.Add(grads.dWy, &outer)

	byData := grads.dBy.RawMatrix().Data
	for k := range dpred {
		byData[k] += dpred[k]
	}

	var dhLast mat.VecDense
	dhLast.MulVec(n.Wy.T(), dpredVec)

	// Gradient with respect to the (dropped) outputs of the top layer:
	// zero everywhere except the final timestep.
	T := len(state.caches[len(n.layers)-1].xs)
	dhs := zeroSeq(T, n.hiddenSize)
	copy(dhs[T-1], dhLast.RawVector().Data)

	for li := len(n.layers) - 1; li >= 0; li-- {
		mask := state.masks[li]
		for t := range dhs {
			for k := range dhs[t] {
				dhs[t][k] *= mask[t][k]
			}
		}
		dxs := n.layers[li].backward(state.caches[li], dhs, &grads.layers[li])
		dhs = dxs
	}

	return loss
}

// dropoutMask builds an inverted dropout mask; kept units are scaled by
// 1/(1-rate) so inference needs no rescaling.
func (n *Network) dropoutMask(T, size int) [][]float64 {
	mask := make([][]float64, T)
	keep := 1 - n.dropoutRate
	for t := range mask {
		mask[t] = make([]float64, size)
		for k := range mask[t] {
			if n.dropoutRate <= 0 || n.rng.Float64() < keep {
				mask[t][k] = 1 / keep
			}
		}
	}
	return mask
}

// netGrads accumulates gradients for every parameter tensor of the network.
type netGrads struct {
	layers []layerGrads
	dWy    *mat.Dense
	dBy    *mat.Dense
}

func (n *Network) newGrads() *netGrads {
	g := &netGrads{
		dWy: mat.NewDense(n.outputSize, n.hiddenSize, nil),
		dBy: mat.NewDense(n.outputSize, 1, nil),
	}
	for _, layer := range n.layers {
		g.layers = append(g.layers, layerGrads{
			dWx: mat.NewDense(4*layer.hiddenSize, layer.inputSize, nil),
			dWh: mat.NewDense(4*layer.hiddenSize, layer.hiddenSize, nil),
			dB:  mat.NewDense(4*layer.hiddenSize, 1, nil),
		})
	}
	return g
}

// parameters returns the network's parameter tensors. The order matches
// netGrads.tensors.
func (n *Network) parameters() []*mat.Dense {
	params := make([]*mat.Dense, 0, 3*len(n.layers)+2)
	for _, layer := range n.layers {
		params = append(params, layer.Wx, layer.Wh, layer.B)
	}
	return append(params, n.Wy, n.By)
}

// tensors returns the gradient tensors in the same order as parameters.
func (g *netGrads) tensors() []*mat.Dense {
	tensors := make([]*mat.Dense, 0, 3*len(g.layers)+2)
	for _, lg := range g.layers {
		tensors = append(tensors, lg.dWx, lg.dWh, lg.dB)
	}
	return append(tensors, g.dWy, g.dBy)
}

// snapshot deep-copies the parameter tensors for later restoration.
func (n *Network) snapshot() []*mat.Dense {
	params := n.parameters()
	copies := make([]*mat.Dense, len(params))
	for i, p := range params {
		copies[i] = mat.DenseCopyOf(p)
	}
	return copies
}

// restore writes a snapshot back into the parameter tensors.
func (n *Network) restore(snapshot []*mat.Dense) {
	for i, p := range n.parameters() {
		p.Copy(snapshot[i])
	}
}

func zeroSeq(T, size int) [][]float64 {
	seq := make([][]float64, T)
	for t := range seq {
		seq[t] = make([]float64, size)
	}
	return seq
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

func glorot(rows, cols int, rng *rand.Rand) *mat.Dense {
	limit := math.Sqrt(6 / float64(rows+cols))
	data := make([]float64, rows*cols)
	for i := range data {
		data[i] = (rng.Float64()*2 - 1) * limit
	}
	return mat.NewDense(rows, cols, data)
}
