package automation

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// Comparison operators a rule may use.
const (
	OpGreater = ">"
	OpLess    = "<"
)

var (
	ErrInvalidOperator = errors.New("invalid rule operator")
	ErrMissingDevice   = errors.New("rule is missing a device id")
)

// Rule binds one device's reading to another device's action: when the
// source's parameter crosses the threshold, the target receives the action
// value (or, for a display, a rendered line of text). The JSON tags match
// the persisted snapshot format.
type Rule struct {
	Source    string  `json:"src"`
	Parameter string  `json:"prm"`
	Op        string  `json:"op"`
	Threshold float64 `json:"val"`
	Target    string  `json:"tgt"`
	Action    float64 `json:"act"`
}

func (r Rule) Validate() error {
	if r.Source == "" || r.Target == "" {
		return ErrMissingDevice
	}
	if r.Op != OpGreater && r.Op != OpLess {
		return fmt.Errorf("%w: %q", ErrInvalidOperator, r.Op)
	}
	return nil
}

// satisfied reports whether val crosses the rule's threshold.
func (r Rule) satisfied(val float64) bool {
	switch r.Op {
	case OpGreater:
		return val > r.Threshold
	case OpLess:
		return val < r.Threshold
	default:
		return false
	}
}

// ValidRules filters out rules that fail validation, logging each drop. The
// rest of the batch proceeds.
func ValidRules(rules []Rule, logger *zap.Logger) []Rule {
	valid := make([]Rule, 0, len(rules))
	for _, r := range rules {
		if err := r.Validate(); err != nil {
			logger.Warn("Skipping invalid rule",
				zap.String("src", r.Source),
				zap.String("tgt", r.Target),
				zap.Error(err))
			continue
		}
		valid = append(valid, r)
	}
	return valid
}
