package narrative

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"roi_advisor/pkg/core/roi"
)

// Cache memoizes reports by fingerprint. Implementations live in pkg/core/store.
type Cache interface {
	Get(ctx context.Context, key string) (*Report, bool, error)
	Put(ctx context.Context, key string, report *Report) error
}

// Fingerprint identifies a request for caching. Results are not part of the key
// since they are a pure function of the scenario. Drivers are, because the swing
// that produced them is configurable.
func Fingerprint(s roi.Scenario, contextText, provider, model string, drivers []roi.Driver) string {
	if len(drivers) == 0 {
		drivers = nil
	}
	payload, _ := json.Marshal(struct {
		Scenario roi.Scenario `json:"scenario"`
		Context  string       `json:"context"`
		Provider string       `json:"provider"`
		Model    string       `json:"model"`
		Drivers  []roi.Driver `json:"drivers"`
	}{s, contextText, provider, model, drivers})
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}
