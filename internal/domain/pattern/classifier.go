package pattern

import "strings"

// typeKeywords maps pattern types to the vocabulary that signals them.
// Matching runs over the normalized message, so entries are lowercase
// and free of punctuation.
var typeKeywords = map[PatternType][]string{
	TypeGiftCards: {
		"gift card", "gift cards", "giftcard", "gift certificate", "voucher",
	},
	TypeHours: {
		"hours", "open today", "close today", "closing time", "opening time",
		"what time do you open", "what time do you close", "open on", "holiday hours",
	},
	TypeBooking: {
		"book", "booking", "reservation", "reserve", "cancel my", "reschedule",
		"availability", "available bay", "tee time",
	},
	TypeAccess: {
		"door code", "access code", "cant get in", "cannot get in", "locked out",
		"entry code", "door wont open", "pin code",
	},
	TypeTechIssue: {
		"frozen", "not working", "restart", "broken", "screen is", "trackman",
		"simulator", "stuck", "wont start", "no ball",
	},
	TypeMembership: {
		"membership", "member", "subscription", "monthly plan", "renew", "cancel membership",
	},
	TypeFAQ: {
		"wifi", "parking", "bring my own", "dress code", "age limit", "how many people",
		"price", "cost", "how much",
	},
}

// Priority order for type detection. More specific intents win over FAQ
// catch-alls when a message hits several vocabularies.
var typePriority = []PatternType{
	TypeAccess,
	TypeTechIssue,
	TypeGiftCards,
	TypeBooking,
	TypeMembership,
	TypeHours,
	TypeFAQ,
}

// DetectType infers a pattern type from a normalized message body.
// Messages that match no vocabulary are TypeGeneral.
func DetectType(normalized string) PatternType {
	if normalized == "" {
		return TypeGeneral
	}
	padded := " " + normalized + " "

	for _, t := range typePriority {
		for _, kw := range typeKeywords[t] {
			if strings.Contains(padded, kw) {
				return t
			}
		}
	}
	return TypeGeneral
}
