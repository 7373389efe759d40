package txio

import (
	"strings"

	"github.com/gobwas/glob"
)

// ============================================================================
// FileSelector Interface
// ============================================================================

// FileSelector filters the entries of a directory copy.
//
// Example usage:
//
//	// Copy only JSON files, anywhere in the tree
//	err := dir.Copy(ctx, "in", "out", txio.WithSelector(txio.Glob("**.json")))
//
//	// Copy the first two levels, skipping temp files
//	selector := txio.And(txio.Depth(2), txio.Not(txio.Glob("*.tmp")))
type FileSelector interface {
	// Match returns true if the file should be copied.
	Match(file *FileInfo) bool

	// TraverseDescendants returns true if a directory should be entered.
	// If false, the directory and everything below it is skipped.
	// Only called for directories (file.IsDir == true).
	TraverseDescendants(file *FileInfo) bool
}

func selectorOrAll(s FileSelector) FileSelector {
	if s == nil {
		return All()
	}
	return s
}

// ============================================================================
// Built-in Selectors
// ============================================================================

// AllSelector matches all files and traverses all directories.
type AllSelector struct{}

func (s AllSelector) Match(file *FileInfo) bool               { return true }
func (s AllSelector) TraverseDescendants(file *FileInfo) bool { return true }

// All returns a selector that matches every file.
func All() FileSelector {
	return AllSelector{}
}

// ============================================================================
// Glob - Pattern matching
// ============================================================================

type globSelector struct {
	matcher glob.Glob
	onPath  bool
}

// CompileGlob creates a glob selector, reporting malformed patterns.
//
// A pattern without '/' is matched against the file name. A pattern with
// '/' is matched against the path relative to the copy source; '*' stops
// at '/' while '**' crosses it.
//
//	CompileGlob("*.txt")            // any .txt file at any depth
//	CompileGlob("data/*.json")      // JSON files directly under data/
//	CompileGlob("src/**")           // everything below src/
//	CompileGlob("{a,b}_?.csv")      // a_1.csv, b_x.csv, ...
func CompileGlob(pattern string) (FileSelector, error) {
	g, err := glob.Compile(pattern, '/')
	if err != nil {
		return nil, err
	}
	return &globSelector{matcher: g, onPath: strings.Contains(pattern, "/")}, nil
}

// Glob is CompileGlob for patterns known to be valid. A malformed pattern
// matches nothing.
func Glob(pattern string) FileSelector {
	s, err := CompileGlob(pattern)
	if err != nil {
		return FuncSelector(func(*FileInfo) bool { return false })
	}
	return s
}

func (s *globSelector) Match(file *FileInfo) bool {
	if s.onPath {
		return s.matcher.Match(file.Path)
	}
	return s.matcher.Match(file.Name)
}

func (s *globSelector) TraverseDescendants(file *FileInfo) bool {
	return true
}

// ============================================================================
// Depth - Depth limiting
// ============================================================================

type depthSelector struct {
	maxDepth int
}

// Depth limits the copy to maxDepth levels below the source.
// Depth 1 = immediate children only.
func Depth(maxDepth int) FileSelector {
	return &depthSelector{maxDepth: maxDepth}
}

func depthOf(path string) int {
	rel := strings.Trim(path, "/")
	if rel == "" {
		return 0
	}
	return strings.Count(rel, "/") + 1
}

func (s *depthSelector) Match(file *FileInfo) bool {
	return depthOf(file.Path) <= s.maxDepth
}

func (s *depthSelector) TraverseDescendants(file *FileInfo) bool {
	return depthOf(file.Path) < s.maxDepth
}

// ============================================================================
// Composable Selectors (And, Or, Not)
// ============================================================================

type andSelector struct {
	selectors []FileSelector
}

// And matches only if ALL selectors match. A directory is entered only if
// every selector would enter it.
func And(selectors ...FileSelector) FileSelector {
	return &andSelector{selectors: selectors}
}

func (s *andSelector) Match(file *FileInfo) bool {
	for _, sel := range s.selectors {
		if !sel.Match(file) {
			return false
		}
	}
	return true
}

func (s *andSelector) TraverseDescendants(file *FileInfo) bool {
	for _, sel := range s.selectors {
		if !sel.TraverseDescendants(file) {
			return false
		}
	}
	return true
}

type orSelector struct {
	selectors []FileSelector
}

// Or matches if ANY selector matches.
func Or(selectors ...FileSelector) FileSelector {
	return &orSelector{selectors: selectors}
}

func (s *orSelector) Match(file *FileInfo) bool {
	for _, sel := range s.selectors {
		if sel.Match(file) {
			return true
		}
	}
	return false
}

func (s *orSelector) TraverseDescendants(file *FileInfo) bool {
	for _, sel := range s.selectors {
		if sel.TraverseDescendants(file) {
			return true
		}
	}
	return false
}

type notSelector struct {
	selector FileSelector
}

// Not inverts a selector's match result. Traversal is not inverted.
func Not(selector FileSelector) FileSelector {
	return &notSelector{selector: selector}
}

func (s *notSelector) Match(file *FileInfo) bool {
	return !s.selector.Match(file)
}

func (s *notSelector) TraverseDescendants(file *FileInfo) bool {
	return true
}

// ============================================================================
// FuncSelector - Custom logic
// ============================================================================

type funcSelector struct {
	matchFn    func(*FileInfo) bool
	traverseFn func(*FileInfo) bool
}

// FuncSelector creates a selector from a custom match function. Every
// directory is traversed.
//
//	FuncSelector(func(f *txio.FileInfo) bool {
//	    return f.Size < 1<<20
//	})
func FuncSelector(fn func(*FileInfo) bool) FileSelector {
	return &funcSelector{
		matchFn:    fn,
		traverseFn: func(*FileInfo) bool { return true },
	}
}

// FuncSelectorFull creates a selector with custom match and traverse functions.
func FuncSelectorFull(matchFn, traverseFn func(*FileInfo) bool) FileSelector {
	return &funcSelector{
		matchFn:    matchFn,
		traverseFn: traverseFn,
	}
}

func (s *funcSelector) Match(file *FileInfo) bool               { return s.matchFn(file) }
func (s *funcSelector) TraverseDescendants(file *FileInfo) bool { return s.traverseFn(file) }
