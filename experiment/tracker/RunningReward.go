package tracker

// Smoothing is the weight of the previous running reward in the
// running reward of each episode
const Smoothing = 0.99

// RunningReward tracks an exponential moving average of episodic
// returns. The running reward of the first episode is its return, and
// afterwards
//
//	running = Smoothing * running + (1 - Smoothing) * return
type RunningReward struct {
	*Return
}

// NewRunningReward returns a new *RunningReward Tracker
func NewRunningReward() *RunningReward {
	return &RunningReward{NewReturn()}
}

// Data returns the running reward after each finished episode
func (r *RunningReward) Data() []float64 {
	returns := r.Return.Data()
	running := make([]float64, len(returns))
	for i, ret := range returns {
		if i == 0 {
			running[i] = ret
			continue
		}
		running[i] = running[i-1]*Smoothing + ret*(1-Smoothing)
	}
	return running
}

// Save saves the running rewards to filename
func (r *RunningReward) Save(filename string) error {
	return save(r.Data(), filename)
}
