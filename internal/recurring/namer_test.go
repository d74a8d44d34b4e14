package recurring

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNamer_Name(t *testing.T) {
	namer := NewNamer(DefaultLexicon())

	tests := []struct {
		description string
		want        string
	}{
		{description: "NETFLIX.COM 866-579-7172", want: "Netflix"},
		{description: "Spotify USA", want: "Spotify"},
		{description: "YOUTUBE PREMIUM GOOGLE", want: "YouTube Premium"},
		{description: "youtube tv", want: "YouTube"},
		{description: "ACME CORP PAYROLL", want: "Salary"},
		{description: "ONLINE RENT PAYMENT 4411", want: "Rent"},
		{description: "current account fee", want: "Current Account Fee"},
		{description: "  corner   BAKERY ", want: "Corner Bakery"},
		{description: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			assert.Equal(t, tt.want, namer.Name(tt.description))
			// memoized path returns the same label
			assert.Equal(t, tt.want, namer.Name(tt.description))
		})
	}
}

func TestNamer_PriorityOrder(t *testing.T) {
	namer := NewNamer([]LexiconEntry{
		{Match: "amazon", Label: "Amazon", Priority: 10},
		{Match: "amazon prime", Label: "Amazon Prime", Priority: 10},
		{Match: "prime", Label: "Prime", Priority: 50},
	})

	assert.Equal(t, "Prime", namer.Name("AMAZON PRIME*2K4"))
	assert.Equal(t, "Amazon", namer.Name("AMAZON MKTPLACE"))
}

func TestNamer_UpdateLexiconFlushesCache(t *testing.T) {
	namer := NewNamer(nil)
	assert.Equal(t, "Local Gym", namer.Name("LOCAL GYM"))

	namer.UpdateLexicon([]LexiconEntry{{Match: "gym", Label: "Gym Membership"}, {Match: "  ", Label: "ignored"}})
	assert.Equal(t, "Gym Membership", namer.Name("LOCAL GYM"))
}

func TestTitleCase(t *testing.T) {
	assert.Equal(t, "Hello World", TitleCase("hELLO   world"))
	assert.Equal(t, "Élan Vital", TitleCase("élan VITAL"))
	assert.Equal(t, "", TitleCase("   "))
}
