package quizgen

// Config controls the behavior of the Generator.
type Config struct {
	// Validators run in order on every generated question; the first
	// failure sends the quiz to its fallback.
	Validators []Validator

	// MaxTokens is the token budget for a question.
	MaxTokens int

	// Temperature controls question randomness (0.0-1.0).
	Temperature float64

	// ExplainMaxTokens and ExplainTemperature apply to recaps.
	ExplainMaxTokens   int
	ExplainTemperature float64

	// Concurrency bounds parallel LLM calls in GenerateBatch.
	Concurrency int
}

// DefaultConfig returns a Config with the structural validator and the
// recommended defaults.
func DefaultConfig() Config {
	return Config{
		Validators:         []Validator{&StructuralValidator{}},
		MaxTokens:          600,
		Temperature:        0.7,
		ExplainMaxTokens:   400,
		ExplainTemperature: 0.5,
		Concurrency:        4,
	}
}
