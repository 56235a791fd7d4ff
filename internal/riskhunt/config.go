package riskhunt

import (
	"fmt"
	"strings"
)

// WithDefaults fills unset budgets with the defaults of the original game.
func (c GameConfig) WithDefaults() GameConfig {
	if c.TimeLimitSeconds == 0 {
		c.TimeLimitSeconds = DefaultTimeLimitSeconds
	}
	if c.MaxClicks == 0 {
		c.MaxClicks = DefaultMaxClicks
	}
	if c.TargetRisks == 0 {
		c.TargetRisks = DefaultTargetRisks
	}
	c.Name = strings.TrimSpace(c.Name)
	return c
}

func (c GameConfig) Validate() error {
	switch {
	case c.Name == "":
		return wrapValidation("game name is required")
	case c.TimeLimitSeconds <= 0:
		return wrapValidation("timeLimitSeconds must be positive")
	case c.MaxClicks <= 0:
		return wrapValidation("maxClicks must be positive")
	case c.TargetRisks <= 0:
		return wrapValidation("targetRisks must be positive")
	case len(c.ImageIDs) == 0:
		return wrapValidation("a game needs at least one image")
	}
	return nil
}

func wrapValidation(msg string) error {
	return fmt.Errorf("%w: %s", ErrValidation, msg)
}
