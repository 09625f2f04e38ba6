package network

import (
	"encoding/json"
	"math"
	"path/filepath"
	"testing"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// run runs the forward pass of net on input and returns the output
func run(t *testing.T, net NeuralNet, input []float64) []float64 {
	t.Helper()

	vm := G.NewTapeMachine(net.Graph())
	defer vm.Close()

	if err := net.SetInput(input); err != nil {
		t.Fatal(err)
	}
	if err := vm.RunAll(); err != nil {
		t.Fatal(err)
	}
	return append([]float64{}, Values(net.Output())...)
}

func newTestMLP(t *testing.T, batch int, init G.InitWFn) NeuralNet {
	t.Helper()

	net, err := NewMLP(2, batch, 3, G.NewGraph(), []int{4}, []bool{true},
		init, []*Activation{ReLU()}, "test")
	if err != nil {
		t.Fatal(err)
	}
	return net
}

func TestMLPForward(t *testing.T) {
	// With all weights 1 and zero biases, each hidden unit is x1 + x2
	// and each output is 4 * (x1 + x2) after ReLU
	net := newTestMLP(t, 2, G.Ones())

	out := run(t, net, []float64{1, 2, -1, -2})
	want := []float64{12, 12, 12, 0, 0, 0}
	if len(out) != len(want) {
		t.Fatalf("output has length %v, want %v", len(out), len(want))
	}
	for i := range want {
		if out[i] != want[i] {
			t.Errorf("output = %v, want %v", out, want)
			break
		}
	}

	if net.BatchSize() != 2 || net.Features() != 2 || net.Outputs() != 3 {
		t.Errorf("batch, features, outputs = %v, %v, %v", net.BatchSize(),
			net.Features(), net.Outputs())
	}
	if n := len(net.Learnables()); n != 4 {
		t.Errorf("network has %v learnables, want 4", n)
	}

	if err := net.SetInput([]float64{1}); err == nil {
		t.Error("setting an input of the wrong size should fail")
	}
}

func TestMLPInvalid(t *testing.T) {
	_, err := NewMLP(2, 1, 1, G.NewGraph(), []int{4, 4}, []bool{true},
		G.Ones(), []*Activation{ReLU(), ReLU()}, "")
	if err == nil {
		t.Error("mismatched biases should return an error")
	}

	_, err = NewMLP(2, 1, 1, G.NewGraph(), []int{4}, []bool{true},
		G.Ones(), []*Activation{ReLU(), ReLU()}, "")
	if err == nil {
		t.Error("mismatched activations should return an error")
	}
}

func TestSetAndPolyak(t *testing.T) {
	src := newTestMLP(t, 1, G.GlorotU(1.0))
	dest := newTestMLP(t, 1, G.Zeroes())

	if err := dest.Set(src); err != nil {
		t.Fatal(err)
	}
	input := []float64{0.3, -0.7}
	srcOut, destOut := run(t, src, input), run(t, dest, input)
	for i := range srcOut {
		if srcOut[i] != destOut[i] {
			t.Fatalf("outputs after Set differ: %v != %v", srcOut, destOut)
		}
	}

	// Polyak between identical nets leaves weights unchanged, polyak
	// with zeroed weights halves them
	zero := newTestMLP(t, 1, G.Zeroes())
	before := append([]float64{}, Values(dest.Learnables()[0].Value())...)
	if err := dest.Polyak(zero, 0.5); err != nil {
		t.Fatal(err)
	}
	after := Values(dest.Learnables()[0].Value())
	for i := range before {
		if math.Abs(after[i]-0.5*before[i]) > 1e-12 {
			t.Fatalf("polyak weight %v = %v, want %v", i, after[i],
				0.5*before[i])
		}
	}

	other, err := NewMLP(3, 1, 3, G.NewGraph(), []int{4}, []bool{true},
		G.Ones(), []*Activation{ReLU()}, "other")
	if err != nil {
		t.Fatal(err)
	}
	if err := dest.Set(other); err == nil {
		t.Error("setting from a network with different shapes should fail")
	}
}

func TestCloneWithBatch(t *testing.T) {
	net := newTestMLP(t, 1, G.GlorotN(1.0))
	clone, err := net.CloneWithBatch(3)
	if err != nil {
		t.Fatal(err)
	}
	if clone.Graph() == net.Graph() {
		t.Error("clone should have a new graph")
	}
	if clone.BatchSize() != 3 {
		t.Errorf("clone batch size = %v, want 3", clone.BatchSize())
	}

	input := []float64{0.1, 0.2}
	out := run(t, net, input)
	cloneOut := run(t, clone, append(append(append([]float64{}, input...),
		input...), input...))
	for i := range cloneOut {
		if math.Abs(cloneOut[i]-out[i%3]) > 1e-12 {
			t.Fatalf("clone output %v, want %v repeated", cloneOut, out)
		}
	}

	// Clones have their own weights
	Values(clone.Learnables()[0].Value())[0] += 1
	if Values(net.Learnables()[0].Value())[0] ==
		Values(clone.Learnables()[0].Value())[0] {
		t.Error("clone shares weights with the original network")
	}
}

func TestCloneWithInputTo(t *testing.T) {
	net := newTestMLP(t, 1, G.GlorotU(1.0))

	g := G.NewGraph()
	x1 := G.NewMatrix(g, tensor.Float64, G.WithShape(1, 1), G.WithName("x1"),
		G.WithValue(tensor.New(tensor.WithShape(1, 1),
			tensor.WithBacking([]float64{0.5}))))
	x2 := G.NewMatrix(g, tensor.Float64, G.WithShape(1, 1), G.WithName("x2"),
		G.WithValue(tensor.New(tensor.WithShape(1, 1),
			tensor.WithBacking([]float64{-0.25}))))

	clone, err := net.CloneWithInputTo(1, []*G.Node{x1, x2}, g, "clone")
	if err != nil {
		t.Fatal(err)
	}

	vm := G.NewTapeMachine(g)
	defer vm.Close()
	if err := vm.RunAll(); err != nil {
		t.Fatal(err)
	}

	out := run(t, net, []float64{0.5, -0.25})
	cloneOut := Values(clone.Output())
	for i := range out {
		if math.Abs(cloneOut[i]-out[i]) > 1e-12 {
			t.Fatalf("clone output %v, want %v", cloneOut, out)
		}
	}

	if _, err := net.CloneWithInputTo(1, []*G.Node{x1}, g, "bad"); err == nil {
		t.Error("cloning with the wrong number of features should fail")
	}
}

func TestLearnsLinearFunction(t *testing.T) {
	g := G.NewGraph()
	net, err := NewMLP(1, 4, 1, g, nil, nil, G.Zeroes(), nil, "")
	if err != nil {
		t.Fatal(err)
	}

	target := G.NewMatrix(g, tensor.Float64, G.WithShape(4, 1),
		G.WithName("target"), G.WithInit(G.Zeroes()))
	loss := G.Must(G.Mean(G.Must(G.Square(G.Must(G.Sub(net.Prediction(),
		target))))))
	if _, err := G.Grad(loss, net.Learnables()...); err != nil {
		t.Fatal(err)
	}

	vm := G.NewTapeMachine(g, G.BindDualValues(net.Learnables()...))
	defer vm.Close()
	solver := G.NewVanillaSolver(G.WithLearnRate(0.1))

	// y = 2x + 1
	x := []float64{-1, -0.5, 0.5, 1}
	y := []float64{-1, 0, 2, 3}
	for i := 0; i < 1000; i++ {
		if err := net.SetInput(x); err != nil {
			t.Fatal(err)
		}
		yTensor := tensor.New(tensor.WithShape(4, 1),
			tensor.WithBacking(append([]float64{}, y...)))
		if err := G.Let(target, yTensor); err != nil {
			t.Fatal(err)
		}
		if err := vm.RunAll(); err != nil {
			t.Fatal(err)
		}
		if err := solver.Step(net.Model()); err != nil {
			t.Fatal(err)
		}
		vm.Reset()
	}

	w := Values(net.Learnables()[0].Value())[0]
	b := Values(net.Learnables()[1].Value())[0]
	if math.Abs(w-2) > 1e-3 || math.Abs(b-1) > 1e-3 {
		t.Errorf("learned y = %vx + %v, want y = 2x + 1", w, b)
	}
}

func TestSaveLoad(t *testing.T) {
	net := newTestMLP(t, 1, G.GlorotU(1.0))
	filename := filepath.Join(t.TempDir(), "net")

	if err := Save(net, filename); err != nil {
		t.Fatal(err)
	}

	loaded := newTestMLP(t, 1, G.Zeroes())
	if err := Load(loaded, filename); err != nil {
		t.Fatal(err)
	}
	for i, node := range net.Learnables() {
		want := Values(node.Value())
		got := Values(loaded.Learnables()[i].Value())
		for j := range want {
			if got[j] != want[j] {
				t.Fatalf("loaded weights %v differ", i)
			}
		}
	}

	other, err := NewMLP(2, 1, 3, G.NewGraph(), []int{5}, []bool{true},
		G.Ones(), []*Activation{ReLU()}, "other")
	if err != nil {
		t.Fatal(err)
	}
	if err := Load(other, filename); err == nil {
		t.Error("loading into a different architecture should fail")
	}
	if err := Load(loaded, filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("loading a missing file should fail")
	}
}

func TestActivationJSON(t *testing.T) {
	acts := []*Activation{ReLU(), TanH(), Sigmoid(), Identity(), Nil()}
	data, err := json.Marshal(acts)
	if err != nil {
		t.Fatal(err)
	}

	var got []*Activation
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatal(err)
	}
	for i := range acts {
		if got[i].String() != acts[i].String() {
			t.Errorf("activation %v decoded as %v", acts[i], got[i])
		}
	}

	var a Activation
	if err := json.Unmarshal([]byte(`"softplus"`), &a); err == nil {
		t.Error("unknown activation should return an error")
	}
}
