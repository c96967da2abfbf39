package rules

import "github.com/ignite/inbox-agent/internal/domain"

func categoryPtr(c domain.Category) *domain.Category { return &c }
func priorityPtr(p domain.Priority) *domain.Priority  { return &p }
func boolPtr(b bool) *bool                            { return &b }

// Builtins returns the fixed rule set §4.2 requires every deployment to
// ship: social-domain classifier, newsletter/digest detector,
// notification/no-reply detector, promotions detector, forum detector,
// automated-sender detector, urgency keywords, and spam indicators. Their
// priorities are ordered lowest-first so category-setting rules run before
// the priority/tag rules that may read the resulting category.
func Builtins() []domain.Rule {
	return []domain.Rule{
		{
			ID: "builtin-social-domain", Name: "Social domain classifier", Enabled: true, Priority: 1,
			Conditions: []domain.Condition{
				{Field: domain.FieldSenderDomain, Operator: domain.OpRegex, Value: `(facebookmail\.com|twitter\.com|linkedin\.com|instagram\.com)$`},
			},
			Actions: domain.Actions{SetCategory: categoryPtr(domain.CategorySocial)},
		},
		{
			ID: "builtin-newsletter-digest", Name: "Newsletter/digest detector", Enabled: true, Priority: 2,
			Conditions: []domain.Condition{
				{Field: domain.FieldSubject, Operator: domain.OpRegex, Value: `(?i)(newsletter|digest|weekly roundup|daily brief)`},
			},
			Actions: domain.Actions{SetCategory: categoryPtr(domain.CategoryUpdates)},
		},
		{
			ID: "builtin-notification-noreply", Name: "Notification/no-reply detector", Enabled: true, Priority: 3,
			Conditions: []domain.Condition{
				{Field: domain.FieldSenderAddress, Operator: domain.OpRegex, Value: `(?i)(no-?reply|notifications?|donotreply)@`},
			},
			Actions: domain.Actions{SetCategory: categoryPtr(domain.CategoryUpdates)},
		},
		{
			ID: "builtin-promotions", Name: "Promotions detector", Enabled: true, Priority: 4,
			Conditions: []domain.Condition{
				{Field: domain.FieldSubject, Operator: domain.OpRegex, Value: `(?i)(% off|sale|discount|limited time|clearance|deal of the day)`},
			},
			Actions: domain.Actions{SetCategory: categoryPtr(domain.CategoryPromotions)},
		},
		{
			ID: "builtin-forum", Name: "Forum detector", Enabled: true, Priority: 5,
			Conditions: []domain.Condition{
				{Field: domain.FieldSenderAddress, Operator: domain.OpRegex, Value: `(?i)(forum|discourse|groups\.google|community)\.?`},
			},
			Actions: domain.Actions{SetCategory: categoryPtr(domain.CategoryForums)},
		},
		{
			ID: "builtin-automated-sender", Name: "Automated sender detector", Enabled: true, Priority: 6,
			Conditions: []domain.Condition{
				{Field: domain.FieldSenderAddress, Operator: domain.OpRegex, Value: `(?i)(automated|system|alerts?|bot)@`},
			},
			Actions: domain.Actions{AddTags: []string{"automated"}},
		},
		{
			ID: "builtin-urgency-keywords", Name: "Urgency keywords", Enabled: true, Priority: 50,
			Conditions: []domain.Condition{
				{Field: domain.FieldSubject, Operator: domain.OpRegex, Value: `(?i)(urgent|asap|immediate(ly)?|deadline)`},
			},
			Actions: domain.Actions{SetPriority: priorityPtr(domain.PriorityUrgent), MarkFlagged: boolPtr(true)},
		},
		{
			ID: "builtin-spam-indicators", Name: "Spam indicators", Enabled: true, Priority: 90,
			Conditions: []domain.Condition{
				{Field: domain.FieldSubject, Operator: domain.OpRegex, Value: `(?i)(congratulations|you('ve)? won|claim now|click here immediately)`},
			},
			Actions: domain.Actions{AddTags: []string{"potential_spam"}, SetPriority: priorityPtr(domain.PriorityLow)},
		},
	}
}
