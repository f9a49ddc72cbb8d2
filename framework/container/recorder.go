package container

import (
	"github.com/km-arc/go-inject/framework/types"
)

// ResolutionOutcome labels the result of a single query.
type ResolutionOutcome string

const (
	// OutcomeFound means a provider was chosen and produced an instance.
	OutcomeFound ResolutionOutcome = "found"

	// OutcomeAbsent means no provider applied, or the chosen one produced nothing.
	OutcomeAbsent ResolutionOutcome = "absent"

	// OutcomeAmbiguous means the conflict resolver could not pick one provider.
	OutcomeAmbiguous ResolutionOutcome = "ambiguous"

	// OutcomeInvalid means the query named a reference type.
	OutcomeInvalid ResolutionOutcome = "invalid"
)

// Recorder receives container events for metrics. See the metrics package for
// the Prometheus implementation.
type Recorder interface {
	// RecordLoad is called once per successful Load with its result.
	RecordLoad(res LoadResult)

	// RecordRegistration is called for every accepted provider.
	RecordRegistration(t types.TypeIdentifier)

	// RecordResolution is called for every Get-style query.
	RecordResolution(outcome ResolutionOutcome)

	// RecordRoundThresholdExceeded is called when Load needed at least the configured rounds.
	RecordRoundThresholdExceeded(rounds int)
}

type nopRecorder struct{}

func (nopRecorder) RecordLoad(LoadResult)                   {}
func (nopRecorder) RecordRegistration(types.TypeIdentifier) {}
func (nopRecorder) RecordResolution(ResolutionOutcome)      {}
func (nopRecorder) RecordRoundThresholdExceeded(int)        {}
