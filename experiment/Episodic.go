package experiment

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/fogleman/gg"
	"github.com/logrusorgru/aurora"
	"github.com/samuelfneumann/rlzoo/agent"
	env "github.com/samuelfneumann/rlzoo/environment"
	"github.com/samuelfneumann/rlzoo/experiment/checkpointer"
	"github.com/samuelfneumann/rlzoo/experiment/plot"
	"github.com/samuelfneumann/rlzoo/experiment/tracker"
)

// Output directories, relative to the root directory of an Episodic
const (
	ModelDir  = "model"
	LogDir    = "log"
	ImgDir    = "img"
	RenderDir = "render"
)

// Episodic runs an agent for a number of episodes of bounded length,
// logging the return of each episode.
//
// Models are checkpointed to <root>/model/<ALG>/, running rewards are
// saved to <root>/log/<ALG>-<ENV>.bin and learning curves are drawn to
// <root>/img/<ALG>-<ENV>.{png,html}.
type Episodic struct {
	env     env.Environment
	agent   agent.Agent
	alg     agent.Type
	envName string
	config  Config

	root   string
	logger *log.Logger
	au     aurora.Aurora

	// frames counts the rendered frames of the current run
	frames int
}

// NewEpisodic returns a new Episodic experiment. All output is written
// under root. If logger is nil, episodes are logged to stdout. The
// color parameter determines whether log lines are coloured.
func NewEpisodic(e env.Environment, a agent.Agent, alg agent.Type,
	envName string, c Config, root string, logger *log.Logger,
	color bool) *Episodic {
	if logger == nil {
		logger = log.New(os.Stdout, "", 0)
	}

	return &Episodic{
		env:     e,
		agent:   a,
		alg:     alg,
		envName: envName,
		config:  c,
		root:    root,
		logger:  logger,
		au:      aurora.NewAurora(color),
	}
}

// name returns the name of the output files of the experiment
func (e *Episodic) name() string {
	return fmt.Sprintf("%v-%v", e.alg, e.envName)
}

// ModelPath returns the directory that models are saved to
func (e *Episodic) ModelPath() string {
	return filepath.Join(e.root, ModelDir, string(e.alg))
}

// LogPath returns the file that running rewards are saved to
func (e *Episodic) LogPath() string {
	return filepath.Join(e.root, LogDir, e.name()+".bin")
}

// ImgPath returns the file that the learning curve is drawn to, with
// the argument extension
func (e *Episodic) ImgPath(ext string) string {
	return filepath.Join(e.root, ImgDir, e.name()+ext)
}

// Learn trains or tests the agent
func (e *Episodic) Learn(ctx context.Context, mode Mode) error {
	if err := e.config.Validate(mode); err != nil {
		return fmt.Errorf("learn: %v", err)
	}
	e.frames = 0

	switch mode {
	case Train:
		return e.train(ctx)
	case Test:
		return e.test(ctx)
	}
	return fmt.Errorf("learn: unknown mode %q", mode)
}

// train trains the agent for the configured number of episodes, then
// saves the model, running rewards, and learning curves
func (e *Episodic) train(ctx context.Context) error {
	e.agent.Train()

	check, err := checkpointer.NewNEpisode(e.config.SaveInterval, e.agent,
		e.ModelPath())
	if err != nil {
		return fmt.Errorf("train: %v", err)
	}

	rewards := tracker.NewRunningReward()
	lengths := tracker.NewEpisodeLength()
	start := time.Now()
	for episode := 1; episode <= e.config.TrainEpisodes; episode++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := e.RunEpisode(rewards, lengths); err != nil {
			return fmt.Errorf("train: episode %v: %v", episode, err)
		}
		e.logEpisode(episode, e.config.TrainEpisodes, rewards, start)

		if err := check.Checkpoint(episode); err != nil {
			return fmt.Errorf("train: %v", err)
		}
	}

	if err := e.agent.Save(e.ModelPath()); err != nil {
		return fmt.Errorf("train: %v", err)
	}
	return e.save(rewards, lengths)
}

// test evaluates the agent, loaded from the model directory if
// possible, for the configured number of episodes
func (e *Episodic) test(ctx context.Context) error {
	if err := e.agent.Load(e.ModelPath()); err != nil {
		e.logger.Println(e.au.Red("Load Model Fails!"))
	}
	e.agent.Eval()

	rewards := tracker.NewRunningReward()
	lengths := tracker.NewEpisodeLength()
	start := time.Now()
	for episode := 0; episode < e.config.TestEpisodes; episode++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := e.RunEpisode(rewards, lengths); err != nil {
			return fmt.Errorf("test: episode %v: %v", episode, err)
		}
		e.logEpisode(episode, e.config.TestEpisodes, rewards, start)
	}
	return nil
}

// RunEpisode runs a single episode of at most MaxSteps steps, sending
// each timestep to the trackers
func (e *Episodic) RunEpisode(trackers ...tracker.Tracker) error {
	step, err := e.env.Reset()
	if err != nil {
		return fmt.Errorf("runEpisode: could not reset: %v", err)
	}
	if err := e.agent.ObserveFirst(step); err != nil {
		return fmt.Errorf("runEpisode: %v", err)
	}
	track(trackers, func(t tracker.Tracker) { t.Track(step) })
	if err := e.render(); err != nil {
		return err
	}

	for i := 0; i < e.config.MaxSteps; i++ {
		action := e.agent.SelectAction(step)

		var done bool
		step, done, err = e.env.Step(action)
		if err != nil {
			return fmt.Errorf("runEpisode: could not step: %v", err)
		}
		track(trackers, func(t tracker.Tracker) { t.Track(step) })
		if err := e.render(); err != nil {
			return err
		}

		if err := e.agent.Observe(action, step); err != nil {
			return fmt.Errorf("runEpisode: %v", err)
		}
		if err := e.agent.Step(); err != nil {
			return fmt.Errorf("runEpisode: %v", err)
		}

		if done {
			break
		}
	}

	track(trackers, func(t tracker.Tracker) { t.EndEpisode() })
	if err := e.agent.EndEpisode(); err != nil {
		return fmt.Errorf("runEpisode: %v", err)
	}
	return nil
}

// track applies f to each tracker
func track(trackers []tracker.Tracker, f func(tracker.Tracker)) {
	for _, t := range trackers {
		f(t)
	}
}

// render saves the current frame of the environment if rendering is
// enabled and the environment can be rendered
func (e *Episodic) render() error {
	if !e.config.Render {
		return nil
	}
	r, ok := e.env.(env.Renderer)
	if !ok {
		return nil
	}

	frame, err := r.Render()
	if errors.Is(err, env.ErrNotRenderable) {
		return nil
	} else if err != nil {
		return fmt.Errorf("render: %v", err)
	}
	return e.saveFrame(frame)
}

// saveFrame saves a rendered frame as the next PNG image of the run
func (e *Episodic) saveFrame(frame image.Image) error {
	dir := filepath.Join(e.root, RenderDir, e.name())
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("render: could not create directory: %v", err)
	}

	file := filepath.Join(dir, fmt.Sprintf("%06d.png", e.frames))
	if err := gg.SavePNG(file, frame); err != nil {
		return fmt.Errorf("render: could not save frame: %v", err)
	}
	e.frames++
	return nil
}

// logEpisode logs the return of the last episode tracked by rewards
func (e *Episodic) logEpisode(episode, total int, rewards *tracker.RunningReward,
	start time.Time) {
	returns := rewards.Return.Data()
	ret := returns[len(returns)-1]

	e.logger.Printf("Episode: %v/%v  | Episode Reward: %v  | "+
		"Running Time: %.4f", episode, total,
		e.au.Green(fmt.Sprintf("%.4f", ret)), time.Since(start).Seconds())
}

// save saves the running rewards and episode lengths and draws the
// learning curves
func (e *Episodic) save(rewards *tracker.RunningReward,
	lengths *tracker.EpisodeLength) error {
	if err := rewards.Save(e.LogPath()); err != nil {
		return fmt.Errorf("save: %v", err)
	}
	lengthPath := filepath.Join(e.root, LogDir, e.name()+"-length.bin")
	if err := lengths.Save(lengthPath); err != nil {
		return fmt.Errorf("save: %v", err)
	}

	if err := plot.SavePNG(rewards.Data(), e.name(),
		e.ImgPath(".png")); err != nil {
		return fmt.Errorf("save: %v", err)
	}
	if err := plot.SaveHTML(rewards.Data(), e.name(),
		e.ImgPath(".html")); err != nil {
		return fmt.Errorf("save: %v", err)
	}
	return nil
}
