package augment

import (
	"strings"
	"testing"

	"github.com/convoke-ai/convoke/messages"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInjectPolicy(t *testing.T) {
	t.Run("inserts after leading system messages", func(t *testing.T) {
		msgs := InjectPolicy([]messages.Message{
			messages.System("you are helpful"),
			messages.User("hi"),
		})

		require.Len(t, msgs, 3)
		assert.Equal(t, messages.RoleSystem, msgs[1].Role)
		assert.Contains(t, msgs[1].Text(), policyMarker)
		assert.Equal(t, messages.RoleUser, msgs[2].Role)
	})

	t.Run("prepends when there is no system prompt", func(t *testing.T) {
		msgs := InjectPolicy([]messages.Message{messages.User("hi")})

		require.Len(t, msgs, 2)
		assert.Contains(t, msgs[0].Text(), policyMarker)
	})

	t.Run("is idempotent", func(t *testing.T) {
		once := InjectPolicy([]messages.Message{messages.User("hi")})
		twice := InjectPolicy(once)

		assert.Equal(t, once, twice)
		count := 0
		for _, m := range twice {
			if strings.Contains(m.Text(), policyMarker) {
				count++
			}
		}
		assert.Equal(t, 1, count)
	})
}
