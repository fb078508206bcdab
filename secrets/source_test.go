package secrets

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSource struct {
	values map[string]string
	calls  int
}

func (c *countingSource) Require(name string) (string, error) {
	c.calls++
	if v, ok := c.values[name]; ok {
		return v, nil
	}
	return "", &MissingCredentialError{Name: name}
}

func TestEnv_Require(t *testing.T) {
	t.Setenv("CONVOKE_TEST_KEY", "sk-123")
	value, err := Env{}.Require("CONVOKE_TEST_KEY")
	require.NoError(t, err)
	assert.Equal(t, "sk-123", value)
}

func TestEnv_RequireMissing(t *testing.T) {
	t.Setenv("CONVOKE_TEST_BLANK", "   ")
	_, err := Env{}.Require("CONVOKE_TEST_BLANK")
	require.Error(t, err)

	var missing *MissingCredentialError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "CONVOKE_TEST_BLANK", missing.Name)
}

func TestMemoize_ResolvesOnce(t *testing.T) {
	src := &countingSource{values: map[string]string{"KEY": "v"}}
	memo := Memoize(src)

	for i := 0; i < 3; i++ {
		value, err := memo.Require("KEY")
		require.NoError(t, err)
		assert.Equal(t, "v", value)
	}
	assert.Equal(t, 1, src.calls)
}

func TestMemoize_DoesNotCacheFailures(t *testing.T) {
	src := &countingSource{values: map[string]string{}}
	memo := Memoize(src)

	_, err := memo.Require("KEY")
	require.Error(t, err)

	src.values["KEY"] = "late"
	value, err := memo.Require("KEY")
	require.NoError(t, err)
	assert.Equal(t, "late", value)
	assert.Equal(t, 2, src.calls)
}
