package types

// RawAnswers is the loosely typed questionnaire payload as parsed from the
// request body. Any key may be absent; values may be numbers, booleans or
// category strings.
type RawAnswers map[string]any

// BatchPredictRequest carries independent questionnaire submissions that are
// scored in input order.
type BatchPredictRequest struct {
	Inputs []RawAnswers `json:"inputs" binding:"required"`
}
