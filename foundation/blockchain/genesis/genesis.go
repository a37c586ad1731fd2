// Package genesis maintains access to the genesis file.
package genesis

import (
	"encoding/json"
	"os"
	"time"
)

// Genesis represents the genesis file.
type Genesis struct {
	Date         time.Time `json:"date"`          // Timestamp recorded in the genesis block.
	Difficulty   uint16    `json:"difficulty"`    // How difficult it needs to be to solve the work problem.
	MiningReward int64     `json:"mining_reward"` // Reward for mining a block.
}

// Default returns the genesis used when no file is provided.
func Default() Genesis {
	return Genesis{
		Date:         time.Date(2017, time.January, 1, 0, 0, 0, 0, time.UTC),
		Difficulty:   2,
		MiningReward: 100,
	}
}

// =============================================================================

// Load opens and consumes the genesis file. Fields missing from the file
// keep their default values.
func Load(path string) (Genesis, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Genesis{}, err
	}

	genesis := Default()
	err = json.Unmarshal(content, &genesis)
	if err != nil {
		return Genesis{}, err
	}

	return genesis, nil
}
