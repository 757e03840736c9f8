package rulematcher

import "sync"

// StaticRuleSource is an in-memory RuleSource for embedding rules directly,
// mainly in tests and examples. Production deployments implement RuleSource
// over their own storage and call Reload after every change.
type StaticRuleSource struct {
	mtx   sync.RWMutex
	rules map[Intent][]Rule
}

// NewStaticRuleSource creates a source holding the given rules, grouped by
// their Category tag.
func NewStaticRuleSource(rules []Rule) *StaticRuleSource {
	source := &StaticRuleSource{
		rules: make(map[Intent][]Rule),
	}
	for _, rule := range rules {
		source.rules[rule.Category] = append(source.rules[rule.Category], rule)
	}
	return source
}

// RulesByCategory returns a copy of the rules for one category
func (src *StaticRuleSource) RulesByCategory(category Intent) ([]Rule, error) {
	src.mtx.RLock()
	defer src.mtx.RUnlock()

	stored := src.rules[category]
	rules := make([]Rule, len(stored))
	copy(rules, stored)
	return rules, nil
}

// Replace swaps the rule list for one category. The caller is responsible
// for triggering Reload on the engine afterwards.
func (src *StaticRuleSource) Replace(category Intent, rules []Rule) {
	src.mtx.Lock()
	defer src.mtx.Unlock()

	replacement := make([]Rule, len(rules))
	copy(replacement, rules)
	src.rules[category] = replacement
}
