package model

// Intent is the classifier's decision. It is one of GeneralIntent, LocationIntent or RefusedIntent.
type Intent interface {
	Name() string
	intent()
}

// GeneralIntent routes the query to the knowledge-base index
type GeneralIntent struct {
	Query     string
	Rationale string
}

// LocationIntent routes the query to the location directory
type LocationIntent struct {
	Query     string
	Rationale string
}

// RefusedIntent means the model did not pick a retrieval strategy
type RefusedIntent struct {
	Reason string
}

const (
	IntentGeneral  = "general"
	IntentLocation = "location"
	IntentRefused  = "refused"
)

func (GeneralIntent) Name() string  { return IntentGeneral }
func (LocationIntent) Name() string { return IntentLocation }
func (RefusedIntent) Name() string  { return IntentRefused }

func (GeneralIntent) intent()  {}
func (LocationIntent) intent() {}
func (RefusedIntent) intent()  {}
