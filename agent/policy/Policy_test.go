package policy

import (
	"math"
	"testing"

	"github.com/samuelfneumann/rlzoo/environment"
	"github.com/samuelfneumann/rlzoo/network"
	"github.com/samuelfneumann/rlzoo/timestep"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	G "gorgonia.org/gorgonia"
)

const tol = 1e-6

// specEnv is an environment which only provides specifications
type specEnv struct {
	features int
	action   environment.Spec
}

func newSpecEnv(features int, action environment.Spec) *specEnv {
	return &specEnv{features: features, action: action}
}

func discreteSpec(n int) environment.Spec {
	return environment.NewSpec(mat.NewVecDense(1, nil), environment.Action,
		mat.NewVecDense(1, []float64{0}),
		mat.NewVecDense(1, []float64{float64(n - 1)}), environment.Discrete)
}

func continuousSpec(dims int) environment.Spec {
	low := make([]float64, dims)
	high := make([]float64, dims)
	for i := range low {
		low[i], high[i] = -1, 1
	}
	return environment.NewSpec(mat.NewVecDense(dims, nil),
		environment.Action, mat.NewVecDense(dims, low),
		mat.NewVecDense(dims, high), environment.Continuous)
}

func (s *specEnv) Reset() (timestep.TimeStep, error) { return s.step(), nil }
func (s *specEnv) Step(*mat.VecDense) (timestep.TimeStep, bool, error) {
	return s.step(), false, nil
}
func (s *specEnv) CurrentTimeStep() timestep.TimeStep   { return s.step() }
func (s *specEnv) DiscountSpec() environment.Spec       { return environment.Spec{} }
func (s *specEnv) ActionSpec() environment.Spec         { return s.action }
func (s *specEnv) Close() error                         { return nil }
func (s *specEnv) step() timestep.TimeStep {
	return timestep.New(timestep.First, 0, 1, mat.NewVecDense(s.features,
		nil), 0)
}
func (s *specEnv) ObservationSpec() environment.Spec {
	bound := mat.NewVecDense(s.features, nil)
	return environment.NewSpec(mat.NewVecDense(s.features, nil),
		environment.Observation, bound, bound, environment.Continuous)
}

// setBias sets the bias of the final layer of a network without hidden
// layers
func setBias(t *testing.T, net network.NeuralNet, bias []float64) {
	learnables := net.Learnables()
	b := network.Values(learnables[len(learnables)-1].Value())
	if len(b) != len(bias) {
		t.Fatalf("setBias: expected %v biases but got %v", len(b), len(bias))
	}
	copy(b, bias)
}

func TestSoftmax(t *testing.T) {
	probs := Softmax([]float64{1000, 1000, 1000, 1000})
	for _, p := range probs {
		if math.Abs(p-0.25) > tol {
			t.Errorf("softmax: expected 0.25 but got %v", p)
		}
	}

	probs = Softmax([]float64{0, math.Log(3)})
	if math.Abs(probs[0]-0.25) > tol || math.Abs(probs[1]-0.75) > tol {
		t.Errorf("softmax: expected [0.25 0.75] but got %v", probs)
	}
}

func TestArgMaxTies(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	counts := make([]int, 4)
	for i := 0; i < 1000; i++ {
		counts[ArgMax([]float64{0, 2, 2, 1}, rng)]++
	}

	if counts[0] != 0 || counts[3] != 0 {
		t.Errorf("argmax: selected non-maximal action: %v", counts)
	}
	if counts[1] < 400 || counts[2] < 400 {
		t.Errorf("argmax: ties not broken uniformly: %v", counts)
	}
}

func TestCategoricalLogPdf(t *testing.T) {
	const numActions = 3
	env := newSpecEnv(2, discreteSpec(numActions))
	g := G.NewGraph()
	c, err := NewCategorical(env, 2, g, []int{}, []bool{},
		[]*network.Activation{}, G.Zeroes(), "policy", 1)
	if err != nil {
		t.Fatal(err)
	}
	setBias(t, c.Network(), []float64{0, math.Log(2), 0})

	logPdf, err := c.LogPdfOf([]float64{1, 2, 3, 4}, []float64{1, 2})
	if err != nil {
		t.Fatal(err)
	}
	var logPdfVal G.Value
	G.Read(logPdf, &logPdfVal)
	vm := G.NewTapeMachine(g)
	defer vm.Close()
	if err := vm.RunAll(); err != nil {
		t.Fatal(err)
	}

	got := network.Values(logPdfVal)
	want := []float64{math.Log(0.5), math.Log(0.25)}
	for i := range want {
		if math.Abs(got[i]-want[i]) > tol {
			t.Errorf("logPdf: expected %v but got %v", want, got)
			break
		}
	}

	if _, err := c.LogPdfOf([]float64{1, 2, 3, 4}, []float64{1, 3}); err == nil {
		t.Errorf("logPdfOf: expected error for illegal action")
	}
}

func TestCategoricalSelectAction(t *testing.T) {
	env := newSpecEnv(2, discreteSpec(3))
	c, err := NewCategorical(env, 1, G.NewGraph(), []int{}, []bool{},
		[]*network.Activation{}, G.Zeroes(), "policy", 1)
	if err != nil {
		t.Fatal(err)
	}
	setBias(t, c.Network(), []float64{0, 10, 0})
	step, _ := env.Reset()

	c.Eval()
	for i := 0; i < 10; i++ {
		if a := c.SelectAction(step).AtVec(0); a != 1 {
			t.Errorf("selectAction: eval mode expected action 1 but got %v", a)
		}
	}

	setBias(t, c.Network(), []float64{0, 0, 0})
	c.Train()
	counts := make([]int, 3)
	for i := 0; i < 900; i++ {
		counts[int(c.SelectAction(step).AtVec(0))]++
	}
	for i, count := range counts {
		if count < 200 {
			t.Errorf("selectAction: action %v sampled %v/900 times", i, count)
		}
	}
}

func TestCategoricalContinuousActions(t *testing.T) {
	env := newSpecEnv(2, continuousSpec(1))
	_, err := NewCategorical(env, 1, G.NewGraph(), []int{}, []bool{},
		[]*network.Activation{}, G.Zeroes(), "policy", 1)
	if err == nil {
		t.Errorf("newCategorical: expected error for continuous actions")
	}
}

func TestGaussian(t *testing.T) {
	env := newSpecEnv(3, continuousSpec(2))
	g := G.NewGraph()
	p, err := NewGaussian(env, 2, g, []int{}, []bool{},
		[]*network.Activation{}, G.Zeroes(), "policy", 1)
	if err != nil {
		t.Fatal(err)
	}

	// With zero weights the mean is 0 and the log std is the midpoint
	// of its bounds
	logStd := (LogStdMin + LogStdMax) / 2
	logPdf, err := p.LogPdfOf(make([]float64, 6), []float64{0, 0, 0, 0})
	if err != nil {
		t.Fatal(err)
	}
	var logPdfVal G.Value
	G.Read(logPdf, &logPdfVal)
	vm := G.NewTapeMachine(g)
	defer vm.Close()
	if err := vm.RunAll(); err != nil {
		t.Fatal(err)
	}

	want := 2 * (-logStd - 0.5*math.Log(2*math.Pi))
	for _, got := range network.Values(logPdfVal) {
		if math.Abs(got-want) > 1e-4 {
			t.Errorf("logPdf: expected %v but got %v", want, got)
		}
	}
}

func TestGaussianSelectAction(t *testing.T) {
	env := newSpecEnv(3, continuousSpec(1))
	p, err := NewGaussian(env, 1, G.NewGraph(), []int{}, []bool{},
		[]*network.Activation{}, G.Zeroes(), "policy", 1)
	if err != nil {
		t.Fatal(err)
	}
	setBias(t, p.Network(), []float64{0.5, 20})
	step, _ := env.Reset()

	p.Eval()
	if a := p.SelectAction(step).AtVec(0); math.Abs(a-math.Tanh(0.5)) > tol {
		t.Errorf("selectAction: eval mode expected mean %v but got %v",
			math.Tanh(0.5), a)
	}

	// Standard deviation is e^2, so sampled actions are usually clipped
	p.Train()
	for i := 0; i < 100; i++ {
		if a := p.SelectAction(step).AtVec(0); a < -1 || a > 1 {
			t.Errorf("selectAction: action %v outside of bounds", a)
		}
	}
}

func TestEGreedy(t *testing.T) {
	net, err := network.NewMLP(2, 1, 3, G.NewGraph(), []int{}, []bool{},
		G.Zeroes(), []*network.Activation{}, "q")
	if err != nil {
		t.Fatal(err)
	}
	setBias(t, net, []float64{1, 0, 3})

	p, err := NewEGreedy(0.0, net, nil, 1)
	if err != nil {
		t.Fatal(err)
	}
	step := timestep.New(timestep.First, 0, 1, mat.NewVecDense(2, nil), 0)

	if a := p.SelectAction(step).AtVec(0); a != 2 {
		t.Errorf("selectAction: greedy expected action 2 but got %v", a)
	}

	p.SetEpsilon(1.0)
	if p.Epsilon() != 1.0 {
		t.Errorf("setEpsilon: expected 1.0 but got %v", p.Epsilon())
	}
	counts := make([]int, 3)
	for i := 0; i < 300; i++ {
		counts[int(p.SelectAction(step).AtVec(0))]++
	}
	if counts[0] == 0 || counts[1] == 0 {
		t.Errorf("selectAction: epsilon 1 never explored: %v", counts)
	}

	p.Eval()
	for i := 0; i < 10; i++ {
		if a := p.SelectAction(step).AtVec(0); a != 2 {
			t.Errorf("selectAction: eval mode expected action 2 but got %v", a)
		}
	}
}

func TestDeterministic(t *testing.T) {
	const actionRange = 2.0
	env := newSpecEnv(2, continuousSpec(2))
	p, err := NewDeterministic(env, 1, G.NewGraph(), []int{}, []bool{},
		[]*network.Activation{}, G.Zeroes(), actionRange, 10.0, "policy", 1)
	if err != nil {
		t.Fatal(err)
	}
	setBias(t, p.Network(), []float64{0.5, -0.5})
	step, _ := env.Reset()

	p.Eval()
	action := p.SelectAction(step)
	want := []float64{actionRange * math.Tanh(0.5), -actionRange * math.Tanh(0.5)}
	for i := range want {
		if math.Abs(action.AtVec(i)-want[i]) > tol {
			t.Errorf("selectAction: expected %v but got %v", want,
				action.RawVector().Data)
		}
	}

	p.Train()
	for i := 0; i < 100; i++ {
		a := p.SelectAction(step)
		r := p.RandomAction()
		for j := 0; j < 2; j++ {
			if math.Abs(a.AtVec(j)) > actionRange {
				t.Errorf("selectAction: action %v outside of range", a.AtVec(j))
			}
			if math.Abs(r.AtVec(j)) > actionRange {
				t.Errorf("randomAction: action %v outside of range", r.AtVec(j))
			}
		}
	}

	if n := p.Noise(1.0, 0.1); math.Abs(n) > 0.1 {
		t.Errorf("noise: expected noise clipped to 0.1 but got %v", n)
	}
}
