package experiment

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/samuelfneumann/rlzoo/agent"
	env "github.com/samuelfneumann/rlzoo/environment"
	"github.com/samuelfneumann/rlzoo/environment/wrappers"
	"github.com/samuelfneumann/rlzoo/experiment/tracker"
	"github.com/samuelfneumann/rlzoo/internal/envtest"
	ts "github.com/samuelfneumann/rlzoo/timestep"
	"gonum.org/v1/gonum/mat"
)

// countingAgent always takes action 0 and counts the calls made to it
type countingAgent struct {
	eval      bool
	steps     int
	episodes  int
	saves     int
	loadFails bool
}

func (c *countingAgent) ObserveFirst(ts.TimeStep) error { return nil }
func (c *countingAgent) Observe(*mat.VecDense, ts.TimeStep) error {
	return nil
}
func (c *countingAgent) Step() error       { c.steps++; return nil }
func (c *countingAgent) EndEpisode() error { c.episodes++; return nil }
func (c *countingAgent) Eval()             { c.eval = true }
func (c *countingAgent) Train()            { c.eval = false }
func (c *countingAgent) IsEval() bool      { return c.eval }

func (c *countingAgent) SelectAction(ts.TimeStep) *mat.VecDense {
	return mat.NewVecDense(1, []float64{0})
}

func (c *countingAgent) Save(dir string) error {
	c.saves++
	return os.MkdirAll(dir, 0755)
}

func (c *countingAgent) Load(dir string) error {
	if c.loadFails {
		return errors.New("no model")
	}
	return nil
}

func newEpisodic(t *testing.T, a agent.Agent, c Config) (*Episodic,
	*bytes.Buffer) {
	var buf bytes.Buffer
	e := envtest.Cartpole(t, 500, 1)
	return NewEpisodic(e, a, agent.DQN, "CartPole-v0", c, t.TempDir(),
		log.New(&buf, "", 0), false), &buf
}

func TestParseMode(t *testing.T) {
	for _, s := range []string{"train", "TEST"} {
		if _, err := ParseMode(s); err != nil {
			t.Errorf("parseMode: %v", err)
		}
	}
	if _, err := ParseMode("eval"); err == nil {
		t.Errorf("parseMode: expected error for unknown mode")
	}
}

func TestTrain(t *testing.T) {
	a := &countingAgent{}
	c := Config{TrainEpisodes: 4, MaxSteps: 10, SaveInterval: 2}
	e, buf := newEpisodic(t, a, c)

	if err := e.Learn(context.Background(), Train); err != nil {
		t.Fatal(err)
	}

	if a.episodes != 4 {
		t.Errorf("train: expected 4 episodes but got %v", a.episodes)
	}
	if a.steps > 4*c.MaxSteps {
		t.Errorf("train: %v steps exceed the step limit", a.steps)
	}
	if a.saves != 3 {
		t.Errorf("train: expected 3 saves but got %v", a.saves)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 4 || !strings.HasPrefix(lines[3], "Episode: 4/4  | "+
		"Episode Reward: ") {
		t.Errorf("train: unexpected log %q", buf.String())
	}

	rewards, err := tracker.LoadData(e.LogPath())
	if err != nil {
		t.Fatal(err)
	}
	if len(rewards) != 4 {
		t.Errorf("train: expected 4 running rewards but got %v",
			len(rewards))
	}
	for _, ext := range []string{".png", ".html"} {
		info, err := os.Stat(e.ImgPath(ext))
		if err != nil || info.Size() == 0 {
			t.Errorf("train: learning curve %v not written", ext)
		}
	}
}

func TestTest(t *testing.T) {
	a := &countingAgent{loadFails: true}
	e, buf := newEpisodic(t, a, Config{TestEpisodes: 2, MaxSteps: 5})

	if err := e.Learn(context.Background(), Test); err != nil {
		t.Fatal(err)
	}
	if !a.IsEval() {
		t.Errorf("test: agent not in evaluation mode")
	}
	if a.episodes != 2 {
		t.Errorf("test: expected 2 episodes but got %v", a.episodes)
	}

	out := buf.String()
	if !strings.Contains(out, "Load Model Fails!") {
		t.Errorf("test: failed load not logged")
	}
	if !strings.Contains(out, "Episode: 0/2") ||
		strings.Contains(out, "Episode: 2/2") {
		t.Errorf("test: episodes not indexed from 0: %q", out)
	}
	if a.saves != 0 {
		t.Errorf("test: agent saved in test mode")
	}
}

func TestInvalidConfig(t *testing.T) {
	e, _ := newEpisodic(t, &countingAgent{}, Config{MaxSteps: 5})
	if err := e.Learn(context.Background(), Train); err == nil {
		t.Errorf("learn: expected error for zero train episodes")
	}
	if err := e.Learn(context.Background(), Mode("eval")); err == nil {
		t.Errorf("learn: expected error for unknown mode")
	}
}

func TestCancel(t *testing.T) {
	a := &countingAgent{}
	e, _ := newEpisodic(t, a, Config{TrainEpisodes: 10, MaxSteps: 5,
		SaveInterval: 5})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := e.Learn(ctx, Train); !errors.Is(err, context.Canceled) {
		t.Errorf("learn: expected context.Canceled but got %v", err)
	}
	if a.episodes != 0 {
		t.Errorf("learn: ran %v episodes after cancellation", a.episodes)
	}
}

func TestRender(t *testing.T) {
	a := &countingAgent{}
	e, _ := newEpisodic(t, a, Config{TestEpisodes: 1, MaxSteps: 3,
		Render: true})
	if err := e.Learn(context.Background(), Test); err != nil {
		t.Fatal(err)
	}

	frames, err := filepath.Glob(filepath.Join(e.root, RenderDir,
		"DQN-CartPole-v0", "*.png"))
	if err != nil {
		t.Fatal(err)
	}
	if len(frames) != 4 {
		t.Errorf("render: expected 4 frames but got %v", len(frames))
	}
}

// plainEnv hides the Render method of the environment it embeds
type plainEnv struct {
	env.Environment
}

func TestRenderSkipsWrappedNonRenderer(t *testing.T) {
	inner := envtest.Pendulum(t, 5, 1).(*wrappers.NormalizedActions).Unwrap()
	wrapped, err := wrappers.NewNormalizedActions(plainEnv{inner})
	if err != nil {
		t.Fatal(err)
	}

	a := &countingAgent{}
	c := Config{TestEpisodes: 1, MaxSteps: 3, Render: true}
	e := NewEpisodic(wrapped, a, agent.TD3, "Pendulum-v0", c, t.TempDir(),
		log.New(io.Discard, "", 0), false)
	if err := e.Learn(context.Background(), Test); err != nil {
		t.Fatalf("render: non-renderable environment should be skipped: %v",
			err)
	}
	if a.episodes != 1 {
		t.Errorf("render: expected 1 episode but got %v", a.episodes)
	}

	frames, err := filepath.Glob(filepath.Join(e.root, RenderDir,
		"TD3-Pendulum-v0", "*.png"))
	if err != nil {
		t.Fatal(err)
	}
	if len(frames) != 0 {
		t.Errorf("render: expected no frames but got %v", len(frames))
	}
}
