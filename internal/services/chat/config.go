package chat

import (
	"fmt"
	"time"
)

type Config struct {
	ChatModel     string        // empty selects the provider's default text model
	RetrievalTopK int           // analyses retrieved per question
	Timeout       time.Duration // generation timeout

	// History limits keep the prompt bounded on long chats.
	HistoryMaxTurns int
	TurnMaxRunes    int
}

func (c *Config) Validate() error {
	if c.RetrievalTopK <= 0 {
		return fmt.Errorf("retrieval_top_k must be positive")
	}
	if c.RetrievalTopK > 20 {
		return fmt.Errorf("retrieval_top_k cannot exceed 20")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.HistoryMaxTurns <= 0 || c.TurnMaxRunes <= 0 {
		return fmt.Errorf("history limits must be positive")
	}
	return nil
}

func DefaultConfig() *Config {
	return &Config{
		RetrievalTopK:   5,
		Timeout:         60 * time.Second,
		HistoryMaxTurns: 20,
		TurnMaxRunes:    2000,
	}
}
