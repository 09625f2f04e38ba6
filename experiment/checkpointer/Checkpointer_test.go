package checkpointer

import (
	"fmt"
	"testing"
)

// countingSaver counts the number of times it is saved
type countingSaver struct {
	saves []string
	err   error
}

func (c *countingSaver) Save(dir string) error {
	c.saves = append(c.saves, dir)
	return c.err
}

func (c *countingSaver) Load(string) error { return nil }

func TestNEpisode(t *testing.T) {
	saver := &countingSaver{}
	c, err := NewNEpisode(3, saver, "model/PG")
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i <= 10; i++ {
		if err := c.Checkpoint(i); err != nil {
			t.Fatal(err)
		}
	}
	if len(saver.saves) != 3 {
		t.Errorf("checkpoint: expected 3 saves but got %v", len(saver.saves))
	}
	for _, dir := range saver.saves {
		if dir != "model/PG" {
			t.Errorf("checkpoint: saved to %v instead of model/PG", dir)
		}
	}
}

func TestNEpisodeErrors(t *testing.T) {
	if _, err := NewNEpisode(0, &countingSaver{}, "model"); err == nil {
		t.Errorf("newNEpisode: expected error for zero interval")
	}

	c, _ := NewNEpisode(1, &countingSaver{err: fmt.Errorf("disk full")},
		"model")
	if err := c.Checkpoint(1); err == nil {
		t.Errorf("checkpoint: expected error from saver")
	}
}
