package searchers_test

import (
	"testing"

	"github.com/janpfeifer/qchess/internal/searchers"
	. "github.com/janpfeifer/qchess/internal/state"
	"github.com/janpfeifer/qchess/internal/state/statetest"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithMove(t *testing.T) {
	tree := statetest.NewTree(2, 3)
	root := tree.Signature()

	var inside string
	err := searchers.WithMove(tree, tree.MoveAt(1), func() error {
		inside = tree.Signature()
		assert.Equal(t, []int{1}, tree.Path())
		return nil
	})
	require.NoError(t, err)
	assert.NotEqual(t, root, inside)
	assert.Equal(t, root, tree.Signature())

	// Errors from fn are returned, and the move is still undone.
	errFn := errors.New("fn failed")
	err = searchers.WithMove(tree, tree.MoveAt(0), func() error { return errFn })
	assert.ErrorIs(t, err, errFn)
	assert.Equal(t, root, tree.Signature())

	// Illegal moves are not applied.
	err = searchers.WithMove(tree, Move{From: 5, To: 0}, func() error {
		t.Fatal("fn should not be called for illegal moves")
		return nil
	})
	assert.ErrorIs(t, err, ErrIllegalMove)
	assert.Empty(t, tree.Path())
}
