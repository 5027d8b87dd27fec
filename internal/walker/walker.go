// Package walker locates calendar-bearing folders in a store's folder
// tree.
package walker

import (
	"strings"

	"calsync/internal/model"
)

// Rules control which folders are sync targets.
type Rules struct {
	// ExtraFolders are additional folder names treated as calendar
	// sources, compared exactly and case-sensitively.
	ExtraFolders []string

	// Exclusions are substrings compared case-insensitively against
	// folder names; a hit excludes that folder as a source.
	Exclusions []string
}

// outcome is the tagged per-folder classification. Exclusion skips the
// folder itself but never its subtree; descent is unconditional.
type outcome int

const (
	descendOnly outcome = iota
	target
	excluded
)

// Walk traverses the tree under root depth-first with an explicit stack
// and returns the folders to treat as calendar sources. Children are
// always visited regardless of whether their parent matched or was
// excluded.
func Walk(root *model.Folder, rules Rules) []*model.Folder {
	if root == nil {
		return nil
	}

	var targets []*model.Folder
	stack := []*model.Folder{root}

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if classify(f, rules) == target {
			targets = append(targets, f)
		}

		// Push in reverse so children pop in declaration order.
		for i := len(f.Folders) - 1; i >= 0; i-- {
			stack = append(stack, f.Folders[i])
		}
	}

	return targets
}

func classify(f *model.Folder, rules Rules) outcome {
	lower := strings.ToLower(f.Name)
	for _, ex := range rules.Exclusions {
		if ex != "" && strings.Contains(lower, strings.ToLower(ex)) {
			return excluded
		}
	}
	if f.Name == model.CalendarFolderName {
		return target
	}
	for _, name := range rules.ExtraFolders {
		if f.Name == name {
			return target
		}
	}
	return descendOnly
}
