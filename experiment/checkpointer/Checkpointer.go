// Package checkpointer implements Checkpointers, which decide when the
// networks of an agent are saved during an experiment
package checkpointer

// Checkpointer checkpoints an agent.Saver based on the number of
// finished episodes
type Checkpointer interface {
	Checkpoint(episode int) error
}
