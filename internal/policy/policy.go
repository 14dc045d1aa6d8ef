// Package policy provides the static routing constraints applied to
// delegation sessions, with an optional YAML file override.
package policy

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/leadops/synergy-agents/internal/domain"
)

// Default returns the built-in routing constraints.
func Default() domain.RoutingConstraints {
	return domain.RoutingConstraints{
		MaxBusinessUnits:          3,
		MaxCrossSell:              2,
		MaxSkuPerBusinessUnit:     3,
		MinBusinessUnitConfidence: 0.2,
		MessageRules: domain.MessageRules{
			MaxConversationMessages: 12,
			MaxSummaryLength:        500,
		},
	}
}

// Load reads routing constraints from a YAML file at path, falling back to
// Default() for any zero-valued field. An empty path or a missing file yields
// the defaults; a malformed file is an error.
func Load(path string) (domain.RoutingConstraints, error) {
	defaults := Default()
	if path == "" {
		return defaults, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return defaults, nil
		}
		return domain.RoutingConstraints{}, fmt.Errorf("policy: read %s: %w", path, err)
	}

	var parsed domain.RoutingConstraints
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return domain.RoutingConstraints{}, fmt.Errorf("policy: parse %s: %w", path, err)
	}

	return merge(defaults, parsed), nil
}

func merge(defaults, override domain.RoutingConstraints) domain.RoutingConstraints {
	merged := defaults
	if override.MaxBusinessUnits > 0 {
		merged.MaxBusinessUnits = override.MaxBusinessUnits
	}
	if override.MaxCrossSell > 0 {
		merged.MaxCrossSell = override.MaxCrossSell
	}
	if override.MaxSkuPerBusinessUnit > 0 {
		merged.MaxSkuPerBusinessUnit = override.MaxSkuPerBusinessUnit
	}
	if override.MinBusinessUnitConfidence > 0 {
		merged.MinBusinessUnitConfidence = override.MinBusinessUnitConfidence
	}
	if override.MessageRules.MaxConversationMessages > 0 {
		merged.MessageRules.MaxConversationMessages = override.MessageRules.MaxConversationMessages
	}
	if override.MessageRules.MaxSummaryLength > 0 {
		merged.MessageRules.MaxSummaryLength = override.MessageRules.MaxSummaryLength
	}
	return merged
}
