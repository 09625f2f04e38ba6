package tracker

import "github.com/samuelfneumann/rlzoo/timestep"

// EpisodeLength tracks the lengths of episodes in an experiment
type EpisodeLength struct {
	open           bool
	lastNumber     int
	episodeLengths []float64
}

// NewEpisodeLength returns a new *EpisodeLength Tracker
func NewEpisodeLength() *EpisodeLength {
	return &EpisodeLength{}
}

// Track tracks the number of the latest timestep of the current
// episode
func (e *EpisodeLength) Track(t timestep.TimeStep) {
	if t.First() {
		e.EndEpisode()
	}
	e.open = true
	e.lastNumber = t.Number

	if t.Last() {
		e.EndEpisode()
	}
}

// EndEpisode records the length of the current episode
func (e *EpisodeLength) EndEpisode() {
	if !e.open {
		return
	}
	e.episodeLengths = append(e.episodeLengths, float64(e.lastNumber))
	e.open = false
}

// Data returns the length of each finished episode
func (e *EpisodeLength) Data() []float64 {
	return e.episodeLengths
}

// Save saves the episode lengths to filename
func (e *EpisodeLength) Save(filename string) error {
	return save(e.Data(), filename)
}
