// Package tracker implements Trackers, which track and save data in an
// experiment
package tracker

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"

	ts "github.com/samuelfneumann/rlzoo/timestep"
)

// Tracker keeps track of per-episode experiment data and saves the
// data after the experiment has finished.
//
// Track should be called on every timestep of an episode, including
// the first. An episode is closed either by tracking its last timestep
// or by calling EndEpisode, which allows episodes cut off by the
// experiment rather than the environment to be tracked.
type Tracker interface {
	Track(t ts.TimeStep)
	EndEpisode()
	Data() []float64
	Save(filename string) error
}

// save saves data to filename with gob, creating parent directories
// as needed
func save(data []float64, filename string) error {
	if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
		return fmt.Errorf("save: could not create directory: %v", err)
	}

	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("save: could not open save file: %v", err)
	}
	defer file.Close()

	if err := gob.NewEncoder(file).Encode(data); err != nil {
		return fmt.Errorf("save: could not encode data: %v", err)
	}
	return nil
}

// LoadData loads and returns the data saved by a Tracker
func LoadData(filename string) ([]float64, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("loadData: could not open data file: %v", err)
	}
	defer file.Close()

	var data []float64
	if err := gob.NewDecoder(file).Decode(&data); err != nil {
		return nil, fmt.Errorf("loadData: could not decode data: %v", err)
	}
	return data, nil
}
