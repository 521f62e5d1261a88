package command

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustTokenize(t *testing.T, text string) []Token {
	t.Helper()
	tokens, err := Tokenize(text)
	require.NoError(t, err)
	return tokens
}

func TestResolveMatchesSimpleCommand(t *testing.T) {
	spec := &Spec{Path: []string{"ping"}, Prefixes: []string{"/"}}
	idx, err := buildIndex([]*Spec{spec})
	require.NoError(t, err)

	res, err := idx.Resolve(mustTokenize(t, "/ping"))
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Same(t, spec, res.Spec)
	assert.Equal(t, "/", res.Prefix)
}

func TestResolveNonCommandReturnsNil(t *testing.T) {
	spec := &Spec{Path: []string{"ping"}, Prefixes: []string{"/"}}
	idx, err := buildIndex([]*Spec{spec})
	require.NoError(t, err)

	res, err := idx.Resolve(mustTokenize(t, "hello there"))
	require.NoError(t, err)
	assert.Nil(t, res)
}

func TestResolveLongestPathWins(t *testing.T) {
	short := &Spec{Path: []string{"plugin"}, Prefixes: []string{"/"}}
	long := &Spec{Path: []string{"plugin", "list"}, Prefixes: []string{"/"}}
	idx, err := buildIndex([]*Spec{short, long})
	require.NoError(t, err)

	res, err := idx.Resolve(mustTokenize(t, "/plugin list"))
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Same(t, long, res.Spec)
	assert.Equal(t, 2, res.WordsConsumed)
}

func TestResolveAliasMatches(t *testing.T) {
	spec := &Spec{Path: []string{"status"}, Aliases: [][]string{{"stat"}}, Prefixes: []string{"/"}}
	idx, err := buildIndex([]*Spec{spec})
	require.NoError(t, err)

	res, err := idx.Resolve(mustTokenize(t, "/stat"))
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Same(t, spec, res.Spec)
}

func TestBuildIndexRejectsDuplicatePath(t *testing.T) {
	a := &Spec{Path: []string{"ping"}, Prefixes: []string{"/"}}
	b := &Spec{Path: []string{"ping"}, Prefixes: []string{"/"}}
	_, err := buildIndex([]*Spec{a, b})
	assert.Error(t, err)
}

func TestBuildIndexRejectsOverlappingPrefixes(t *testing.T) {
	a := &Spec{Path: []string{"ping"}, Prefixes: []string{"/"}}
	b := &Spec{Path: []string{"pong"}, Prefixes: []string{"//"}}
	_, err := buildIndex([]*Spec{a, b})
	var pc *PrefixConflictError
	assert.ErrorAs(t, err, &pc)
}

func TestResolveEmptyPrefixMatchesBareCommand(t *testing.T) {
	spec := &Spec{Path: []string{"ping"}}
	idx, err := buildIndex([]*Spec{spec})
	require.NoError(t, err)

	res, err := idx.Resolve(mustTokenize(t, "ping"))
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Same(t, spec, res.Spec)
}
