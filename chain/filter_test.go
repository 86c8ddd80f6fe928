package chain

import (
	"testing"

	"github.com/luxapientia/alphacore-sub000/model"
	"github.com/stretchr/testify/require"
)

func TestFilterEmptyExprMatchesEverything(t *testing.T) {
	f, err := NewFilter("")
	require.NoError(t, err)
	ok, err := f.Match(model.MinerIdentity{UID: 42})
	require.NoError(t, err)
	require.True(t, ok)
}

func TestFilterMatchesByUID(t *testing.T) {
	f, err := NewFilter(`uid > 10`)
	require.NoError(t, err)

	ok, err := f.Match(model.MinerIdentity{UID: 42})
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = f.Match(model.MinerIdentity{UID: 5})
	require.NoError(t, err)
	require.False(t, ok)
}
