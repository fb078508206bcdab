package augment

import (
	"strconv"
	"testing"
	"time"

	"github.com/convoke-ai/convoke/search"
	"github.com/stretchr/testify/assert"
)

func TestDetectWindow(t *testing.T) {
	tests := []struct {
		query string
		want  search.Window
	}{
		{"what happened today", search.WindowDay},
		{"bitcoin price right now", search.WindowDay},
		{"best releases this week", search.WindowWeek},
		{"earnings reports this month", search.WindowMonth},
		{"what changed last week", search.WindowMonth},
		{"biggest stories this year", search.WindowYear},
		{"inflation numbers from last month", search.WindowQuarter},
		{"latest on the merger", search.WindowMonth},
		{"how do solar panels work", search.WindowUnrestricted},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectWindow(tt.query))
		})
	}

	t.Run("explicit current year widens to one year", func(t *testing.T) {
		query := "tax brackets for " + strconv.Itoa(time.Now().Year())
		assert.Equal(t, search.WindowYear, DetectWindow(query))
	})
}
