package idhash

import (
	"crypto/sha256"
	"fmt"

	"github.com/mr-tron/base58"
)

// ScenarioID computes a deterministic scenario identity using SHA256.
// Formula: SHA256(scenario|name)
// Returns the base58-encoded hash.
func ScenarioID(name string) string {
	data := fmt.Sprintf("scenario|%s", name)

	hash := sha256.Sum256([]byte(data))
	return base58.Encode(hash[:])
}

// DealStepID identifies one waterfall step within a scenario run.
// Formula: SHA256(run_id|scenario_id|deal_id|position)
func DealStepID(runID, scenarioID, dealID string, position int) string {
	data := fmt.Sprintf("%s|%s|%s|%d", runID, scenarioID, dealID, position)

	hash := sha256.Sum256([]byte(data))
	return base58.Encode(hash[:])
}
