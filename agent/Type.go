package agent

import (
	"fmt"
	"strings"
)

// Type represents a specific type of an agent Config. Config's with
// this type can create Agents of the corresponding algorithm.
type Type string

const (
	PG  Type = "PG"
	AC  Type = "AC"
	DQN Type = "DQN"
	TD3 Type = "TD3"
)

// Types lists all available algorithms
var Types = []Type{PG, AC, DQN, TD3}

// ParseType returns the Type named by s, ignoring case
func ParseType(s string) (Type, error) {
	for _, t := range Types {
		if strings.EqualFold(string(t), s) {
			return t, nil
		}
	}
	return "", fmt.Errorf("parseType: unknown algorithm %q", s)
}
