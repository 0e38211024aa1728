package engine

import (
	"fmt"
	"strings"
)

// Difficulty selects the move-selection policy.
type Difficulty uint8

const (
	Novice Difficulty = iota
	Intermediate
	Advanced
)

var difficultyNames = [...]string{"novice", "intermediate", "advanced"}

func (d Difficulty) String() string {
	if int(d) < len(difficultyNames) {
		return difficultyNames[d]
	}
	return fmt.Sprintf("difficulty(%d)", uint8(d))
}

// ParseDifficulty accepts the tier names and the easy/medium/hard aliases.
func ParseDifficulty(s string) (Difficulty, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "novice", "easy", "beginner":
		return Novice, nil
	case "intermediate", "medium":
		return Intermediate, nil
	case "advanced", "hard":
		return Advanced, nil
	}
	return Novice, fmt.Errorf("%w: %q", ErrUnknownDifficulty, s)
}

func (d Difficulty) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Difficulty) UnmarshalText(text []byte) error {
	v, err := ParseDifficulty(string(text))
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// TierConfig binds a difficulty to its search depth and the probability of
// playing a random move instead of the searched one.
type TierConfig struct {
	Depth        int
	RandomWeight float64
}

// DefaultTiers indexed by Difficulty.
var DefaultTiers = [3]TierConfig{
	Novice:       {Depth: 1, RandomWeight: 0.8},
	Intermediate: {Depth: 3, RandomWeight: 0.3},
	Advanced:     {Depth: 5, RandomWeight: 0},
}
