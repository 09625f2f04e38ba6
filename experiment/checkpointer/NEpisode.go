package checkpointer

import (
	"fmt"

	"github.com/samuelfneumann/rlzoo/agent"
)

// nEpisode implements checkpointing every N episodes
type nEpisode struct {
	interval int
	saver    agent.Saver
	dir      string
}

// NewNEpisode returns a Checkpointer that saves saver to dir every n
// episodes. Each checkpoint overwrites the previous one.
func NewNEpisode(n int, saver agent.Saver, dir string) (Checkpointer,
	error) {
	if n <= 0 {
		return nil, fmt.Errorf("newNEpisode: interval must be positive "+
			"but got %v", n)
	}
	return &nEpisode{
		interval: n,
		saver:    saver,
		dir:      dir,
	}, nil
}

// Checkpoint saves the tracked agent if episode is a multiple of the
// checkpointing interval
func (n *nEpisode) Checkpoint(episode int) error {
	if episode > 0 && episode%n.interval == 0 {
		if err := n.saver.Save(n.dir); err != nil {
			return fmt.Errorf("checkpoint: %v", err)
		}
	}
	return nil
}
