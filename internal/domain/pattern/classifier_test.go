package pattern

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectType(t *testing.T) {
	tests := []struct {
		name string
		body string
		want PatternType
	}{
		{"gift cards", "do you sell gift cards", TypeGiftCards},
		{"hours", "what time do you open on sunday", TypeHours},
		{"booking", "i need to cancel my booking for tomorrow", TypeBooking},
		{"access", "the door code is not working", TypeAccess},
		{"tech issue", "trackman is frozen on bay 3", TypeTechIssue},
		{"membership", "how do i cancel membership", TypeMembership},
		{"faq", "is there parking nearby", TypeFAQ},
		{"no signal", "hello is anyone there", TypeGeneral},
		{"empty", "", TypeGeneral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectType(Normalize(tt.body)))
		})
	}
}

func TestDetectType_PriorityOverFAQ(t *testing.T) {
	// Hits both the access and faq vocabularies; access wins
	got := DetectType(Normalize("how much is it if I can't get in with the door code"))
	assert.Equal(t, TypeAccess, got)
}
