package ops

import (
	"github.com/hpungsan/sieve/internal/config"
	"github.com/hpungsan/sieve/internal/item"
	"github.com/hpungsan/sieve/internal/scoring"
)

// ScoreInput contains parameters for the Score preview.
type ScoreInput struct {
	Mode    string
	Factors item.Factors
}

// ScoreOutput is a score and the bucket it would be routed to.
type ScoreOutput struct {
	Mode     item.Mode        `json:"mode"`
	Score    float64          `json:"score"`
	Decision scoring.Decision `json:"decision"`
	Stage    item.Stage       `json:"stage"`
}

// Score computes a score without touching any item. Factors are not range
// checked here; effort below 1 counts as 1.
func Score(cfg *config.Config, input ScoreInput) (*ScoreOutput, error) {
	mode, err := parseMode(input.Mode, false)
	if err != nil {
		return nil, err
	}
	score := scoring.Score(mode, input.Factors)
	decision := thresholdsOf(cfg).Classify(mode, score)
	return &ScoreOutput{
		Mode:     mode,
		Score:    score,
		Decision: decision,
		Stage:    decision.Outcome.Stage(),
	}, nil
}

// ClassifyInput contains parameters for the Classify preview.
type ClassifyInput struct {
	Mode  string
	Score float64
}

// ClassifyOutput is the bucket decision for a score.
type ClassifyOutput struct {
	Mode     item.Mode        `json:"mode"`
	Score    float64          `json:"score"`
	Decision scoring.Decision `json:"decision"`
	Stage    item.Stage       `json:"stage"`
}

// Classify maps a score to its bucket under the configured thresholds.
func Classify(cfg *config.Config, input ClassifyInput) (*ClassifyOutput, error) {
	mode, err := parseMode(input.Mode, false)
	if err != nil {
		return nil, err
	}
	decision := thresholdsOf(cfg).Classify(mode, input.Score)
	return &ClassifyOutput{
		Mode:     mode,
		Score:    input.Score,
		Decision: decision,
		Stage:    decision.Outcome.Stage(),
	}, nil
}
