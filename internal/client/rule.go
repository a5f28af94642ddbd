package client

import (
	"strings"

	"github.com/iTrooz/caching-http-client/internal/config"
)

// Rule interface for matching request targets against caching rules
type Rule interface {
	Match(target string) bool
}

// ConfigRule implements Rule interface for config-based rules
type ConfigRule struct {
	config.CacheRule
}

// Match checks if a target starts with the rule base URI
func (r *ConfigRule) Match(target string) bool {
	return strings.HasPrefix(target, r.BaseURI)
}

// Rules decides which targets may use the cache
type Rules struct {
	mode  string
	rules []Rule
}

func NewRules(cfg config.RulesConfig) *Rules {
	rules := make([]Rule, 0, len(cfg.Rules))
	for _, rule := range cfg.Rules {
		rules = append(rules, &ConfigRule{CacheRule: rule})
	}
	return &Rules{mode: cfg.Mode, rules: rules}
}

// Allows reports whether target may be cached. A nil Rules allows everything.
func (r *Rules) Allows(target string) bool {
	if r == nil {
		return true
	}

	matched := false
	for _, rule := range r.rules {
		if rule.Match(target) {
			matched = true
			break
		}
	}

	if r.mode == config.ModeWhitelist {
		return matched
	}
	return !matched
}
