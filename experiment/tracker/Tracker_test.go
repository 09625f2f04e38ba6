package tracker

import (
	"math"
	"path/filepath"
	"testing"

	ts "github.com/samuelfneumann/rlzoo/timestep"
)

// episode returns the timesteps of an episode with the given rewards.
// The final timestep is only marked last if last is true.
func episode(rewards []float64, last bool) []ts.TimeStep {
	steps := []ts.TimeStep{ts.New(ts.First, 0, 1, nil, 0)}
	for i, r := range rewards {
		stepType := ts.Mid
		if last && i == len(rewards)-1 {
			stepType = ts.Last
		}
		steps = append(steps, ts.New(stepType, r, 1, nil, i+1))
	}
	return steps
}

func track(t Tracker, steps []ts.TimeStep) {
	for _, step := range steps {
		t.Track(step)
	}
}

func equal(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if math.Abs(a[i]-b[i]) > 1e-9 {
			return false
		}
	}
	return true
}

func TestReturn(t *testing.T) {
	r := NewReturn()
	track(r, episode([]float64{1, 2, 3}, true))
	r.EndEpisode() // Already closed by the last step

	// Episode cut off before the environment ended it
	track(r, episode([]float64{-1, -1}, false))
	r.EndEpisode()

	// Episode closed by the next first step
	track(r, episode([]float64{5}, false))
	track(r, episode([]float64{0.5}, true))

	want := []float64{6, -2, 5, 0.5}
	if !equal(r.Data(), want) {
		t.Errorf("return: expected %v but got %v", want, r.Data())
	}
}

func TestRunningReward(t *testing.T) {
	r := NewRunningReward()
	track(r, episode([]float64{10}, true))
	track(r, episode([]float64{20}, true))
	track(r, episode([]float64{0}, true))

	first := 10.0
	second := first*0.99 + 20*0.01
	third := second * 0.99
	want := []float64{first, second, third}
	if !equal(r.Data(), want) {
		t.Errorf("runningReward: expected %v but got %v", want, r.Data())
	}
}

func TestEpisodeLength(t *testing.T) {
	e := NewEpisodeLength()
	track(e, episode([]float64{1, 1, 1}, true))
	track(e, episode([]float64{1}, false))
	e.EndEpisode()

	want := []float64{3, 1}
	if !equal(e.Data(), want) {
		t.Errorf("episodeLength: expected %v but got %v", want, e.Data())
	}
}

func TestSaveLoad(t *testing.T) {
	r := NewRunningReward()
	track(r, episode([]float64{1, 2}, true))
	track(r, episode([]float64{3}, true))

	filename := filepath.Join(t.TempDir(), "log", "PG-CartPole-v0.bin")
	if err := r.Save(filename); err != nil {
		t.Fatal(err)
	}

	data, err := LoadData(filename)
	if err != nil {
		t.Fatal(err)
	}
	if !equal(data, r.Data()) {
		t.Errorf("loadData: expected %v but got %v", r.Data(), data)
	}

	if _, err := LoadData(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Errorf("loadData: expected error for missing file")
	}
}
