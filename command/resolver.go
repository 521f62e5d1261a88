package command

import (
	"sort"
	"strings"

	"github.com/ncatbot/core/errors"
)

// pathEntry is one dispatch-table entry: a command path (or alias path)
// mapped back to its owning spec.
type pathEntry struct {
	words []string
	spec  *Spec
}

// resolverIndex is the built dispatch table (§4.8 steps 1-4): the
// deduplicated prefix set (checked prefix-free) and a table of every
// command/alias path.
type resolverIndex struct {
	prefixes []string // sorted longest-first for longest-match
	paths    []pathEntry
}

// PrefixConflictError names the two prefixes that collided (§8 S6).
type PrefixConflictError struct {
	Short, Long string
}

func (e *PrefixConflictError) Error() string {
	return "prefix \"" + e.Short + "\" is a proper prefix of \"" + e.Long + "\""
}

// buildIndex implements §4.8 steps 1-4.
func buildIndex(specs []*Spec) (*resolverIndex, error) {
	prefixSet := map[string]bool{}
	var paths []pathEntry

	seen := map[string]*Spec{}

	for _, spec := range specs {
		for _, p := range spec.Prefixes {
			prefixSet[p] = true
		}
		if len(spec.Prefixes) == 0 {
			prefixSet[""] = true
		}

		allPaths := append([][]string{spec.Path}, spec.Aliases...)
		for _, path := range allPaths {
			if len(path) == 0 {
				return nil, errors.Newf("command %q registers an empty path", spec.Path)
			}
			for _, prefix := range orEmpty(spec.Prefixes) {
				key := prefix + "\x00" + strings.Join(path, "\x00")
				if other, ok := seen[key]; ok {
					return nil, errors.Newf(
						"commands %q and %q both resolve to prefix %q path %v",
						other.Path, spec.Path, prefix, path,
					)
				}
				seen[key] = spec
			}
			paths = append(paths, pathEntry{words: path, spec: spec})
		}
	}

	prefixes := make([]string, 0, len(prefixSet))
	for p := range prefixSet {
		prefixes = append(prefixes, p)
	}
	sort.Slice(prefixes, func(i, j int) bool { return len(prefixes[i]) > len(prefixes[j]) })

	for i := 0; i < len(prefixes); i++ {
		for j := 0; j < len(prefixes); j++ {
			if i == j || prefixes[i] == "" || prefixes[j] == "" {
				continue
			}
			if len(prefixes[i]) < len(prefixes[j]) && strings.HasPrefix(prefixes[j], prefixes[i]) {
				return nil, &PrefixConflictError{Short: prefixes[i], Long: prefixes[j]}
			}
		}
	}

	return &resolverIndex{prefixes: prefixes, paths: paths}, nil
}

func orEmpty(prefixes []string) []string {
	if len(prefixes) == 0 {
		return []string{""}
	}
	return prefixes
}

// Resolution is the resolver's output for a matched message: which spec was
// reached, under which prefix, and how many leading tokens its path word
// sequence consumed.
type Resolution struct {
	Prefix       string
	Spec         *Spec
	WordsConsumed int
}

// Resolve implements §4.8's matching algorithm against a tokenized first
// line of chat text. tokens must include the trailing EOF sentinel.
// Returns (nil, nil) when the message does not match any registered prefix
// and command — "not a command", not an error.
func (idx *resolverIndex) Resolve(tokens []Token) (*Resolution, error) {
	words := wordValues(tokens)
	if len(words) == 0 {
		return nil, nil
	}

	first := words[0]
	prefix, rest, ok := splitPrefix(first, idx.prefixes)
	if !ok {
		return nil, nil
	}

	candidateWords := append([]string{rest}, words[1:]...)

	// Longest-path-first so a longer command doesn't get shadowed by a
	// shorter one sharing its first word; ties break by insertion order,
	// which conflict-free registration makes moot (§4.8 step 5).
	var best *pathEntry
	for i := range idx.paths {
		e := &idx.paths[i]
		if pathHasPrefixOnSpec(e.spec, prefix) && matchesPath(e.words, candidateWords) {
			if best == nil || len(e.words) > len(best.words) {
				best = e
			}
		}
	}
	if best == nil {
		return nil, nil
	}

	return &Resolution{Prefix: prefix, Spec: best.spec, WordsConsumed: len(best.words)}, nil
}

func pathHasPrefixOnSpec(spec *Spec, prefix string) bool {
	if len(spec.Prefixes) == 0 {
		return prefix == ""
	}
	for _, p := range spec.Prefixes {
		if p == prefix {
			return true
		}
	}
	return false
}

func matchesPath(path, words []string) bool {
	if len(words) < len(path) {
		return false
	}
	for i, w := range path {
		if w != words[i] {
			return false
		}
	}
	return true
}

// splitPrefix attempts the longest registered prefix match against first,
// falling back to the empty prefix if registered (§4.8 steps 2-3).
func splitPrefix(first string, prefixes []string) (prefix, rest string, ok bool) {
	for _, p := range prefixes {
		if p == "" {
			continue
		}
		if strings.HasPrefix(first, p) {
			return p, first[len(p):], true
		}
	}
	for _, p := range prefixes {
		if p == "" {
			return "", first, true
		}
	}
	return "", "", false
}

func wordValues(tokens []Token) []string {
	var out []string
	for _, t := range tokens {
		if t.Kind == Word || t.Kind == Quoted {
			out = append(out, t.Text)
		}
		if t.Kind == EOF {
			break
		}
	}
	return out
}
