package intent

import "strings"

// Classifier scores a user message against an ordered rule table.
type Classifier struct {
	rules []Rule
}

// NewClassifier uses DefaultRules when rules is empty.
func NewClassifier(rules []Rule) *Classifier {
	if len(rules) == 0 {
		rules = DefaultRules
	}
	return &Classifier{rules: rules}
}

// Classify returns the first matching intent, or nil for empty input, small
// talk, or a message no rule matches. It never panics.
func (c *Classifier) Classify(message string) *Intent {
	text := strings.ToLower(strings.TrimSpace(message))
	if text == "" {
		return nil
	}
	for _, r := range c.rules {
		loc := r.match(text)
		if loc == nil {
			continue
		}
		if r.SmallTalk {
			return nil
		}
		return &Intent{
			Category:      r.Category,
			Confidence:    r.Confidence,
			ExtractedText: text[loc[0]:loc[1]],
		}
	}
	return nil
}

// Dispatchable reports whether the intent clears the threshold.
func (i *Intent) Dispatchable(threshold float64) bool {
	return i != nil && i.Confidence >= threshold
}

// match returns the span of the first match the rule accepts.
func (r Rule) match(text string) []int {
	if r.Accept == nil {
		return r.Pattern.FindStringIndex(text)
	}
	for _, m := range r.Pattern.FindAllStringSubmatchIndex(text, -1) {
		groups := make([]string, 0, len(m)/2-1)
		for i := 2; i+1 < len(m); i += 2 {
			if m[i] < 0 {
				groups = append(groups, "")
				continue
			}
			groups = append(groups, text[m[i]:m[i+1]])
		}
		if r.Accept(groups) {
			return m[:2]
		}
	}
	return nil
}
