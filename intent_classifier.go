package rulematcher

// intentRule pairs an intent with its trigger keywords. Rules are evaluated
// in slice order and the first qualifying rule wins, so the order below is
// part of the classifier's contract: interrogative/location cues are checked
// before topic cues, and topic cues before the generic faq catch-all, to
// keep broad rules from shadowing narrow ones. "where is the enrollment
// office" must classify as location, not enrollment; "enrollment fee" must
// classify as enrollment, not faq.
type intentRule struct {
	intent   Intent
	keywords map[string]Empty
}

// keywordClassifier implements IntentClassifier over an ordered rule list.
// Immutable after construction; Classify is a pure function.
type keywordClassifier struct {
	rules []intentRule
}

// NewIntentClassifier creates the default ordered keyword classifier
func NewIntentClassifier() IntentClassifier {
	return &keywordClassifier{rules: defaultIntentRules()}
}

// NewIntentClassifierWithRules creates a classifier over a custom ordered
// rule list. The slice order is the evaluation order.
func NewIntentClassifierWithRules(ordered []IntentKeywords) IntentClassifier {
	rules := make([]intentRule, 0, len(ordered))
	for _, entry := range ordered {
		keywords := make(map[string]Empty, len(entry.Keywords))
		for _, keyword := range entry.Keywords {
			keywords[keyword] = Empty{}
		}
		rules = append(rules, intentRule{intent: entry.Intent, keywords: keywords})
	}
	return &keywordClassifier{rules: rules}
}

// IntentKeywords is one entry of a custom classifier rule list
type IntentKeywords struct {
	Intent   Intent
	Keywords []string
}

func defaultIntentRules() []intentRule {
	ordered := []IntentKeywords{
		{
			Intent: IntentLocation,
			Keywords: []string{
				"where", "location", "locate", "located", "direction",
				"room", "floor", "building", "office",
			},
		},
		{
			Intent: IntentVisual,
			Keywords: []string{
				"picture", "photo", "image", "logo", "map", "show", "look",
			},
		},
		{
			Intent: IntentPerson,
			Keywords: []string{
				"who", "teacher", "professor", "instructor", "staff",
				"dean", "principal", "adviser",
			},
		},
		{
			Intent: IntentEnrollment,
			Keywords: []string{
				"enroll", "enrollment", "admission", "admissions",
				"register", "registration", "tuition", "fee", "requirement",
			},
		},
		{
			Intent: IntentFAQ,
			Keywords: []string{
				"what", "how", "when", "why",
			},
		},
	}

	classifier, _ := NewIntentClassifierWithRules(ordered).(*keywordClassifier)
	return classifier.rules
}

// Classify maps normalized tokens to an intent. When no rule qualifies it
// falls back to the previous turn's intent for conversational continuity,
// and finally to IntentGeneral.
func (kc *keywordClassifier) Classify(tokens []string, ctx Context) Intent {
	for _, rule := range kc.rules {
		for _, token := range tokens {
			if _, hit := rule.keywords[token]; hit {
				return rule.intent
			}
		}
	}

	if ctx.LastIntent != "" {
		return ctx.LastIntent
	}

	return IntentGeneral
}
