package tracker

import ts "github.com/samuelfneumann/rlzoo/timestep"

// Return tracks the episodic return in an experiment. The reward of
// each tracked timestep is accumulated into the return of the current
// episode.
//
// Note: If an environment is wrapped by some environment wrapper which
// modifies rewards, then this Tracker tracks the modified rewards.
type Return struct {
	open           bool
	currentReturn  float64
	episodeReturns []float64
}

// NewReturn creates and returns a new *Return Tracker
func NewReturn() *Return {
	return &Return{}
}

// Track tracks the reward seen on a timestep. A first timestep starts
// a new episode, closing the current one if it is still open.
func (r *Return) Track(step ts.TimeStep) {
	if step.First() {
		r.EndEpisode()
	}
	r.open = true
	r.currentReturn += step.Reward

	if step.Last() {
		r.EndEpisode()
	}
}

// EndEpisode records the return of the current episode
func (r *Return) EndEpisode() {
	if !r.open {
		return
	}
	r.episodeReturns = append(r.episodeReturns, r.currentReturn)
	r.currentReturn = 0.0
	r.open = false
}

// Data returns the return of each finished episode
func (r *Return) Data() []float64 {
	return r.episodeReturns
}

// Save saves the episodic returns to filename
func (r *Return) Save(filename string) error {
	return save(r.Data(), filename)
}
