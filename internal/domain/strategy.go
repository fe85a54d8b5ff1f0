package domain

import "strings"

// ResolutionStrategy decides which copy wins when a task exists on several branches
type ResolutionStrategy string

const (
	StrategyMostRecent     ResolutionStrategy = "most_recent"
	StrategyMostProgressed ResolutionStrategy = "most_progressed"
)

// DefaultStrategy is used when the configuration does not name one
const DefaultStrategy = StrategyMostProgressed

// ParseResolutionStrategy maps a config value to a strategy.
// Empty or unknown values yield DefaultStrategy.
func ParseResolutionStrategy(s string) ResolutionStrategy {
	switch ResolutionStrategy(strings.TrimSpace(strings.ToLower(s))) {
	case StrategyMostRecent:
		return StrategyMostRecent
	case StrategyMostProgressed:
		return StrategyMostProgressed
	default:
		return DefaultStrategy
	}
}

func (s ResolutionStrategy) String() string {
	return string(s)
}

// StatusRanker ranks statuses by their position in the project's status list
type StatusRanker struct {
	ranks map[string]int
}

// NewStatusRanker builds a ranker over the configured statuses.
// The first occurrence of a duplicated status wins.
func NewStatusRanker(statuses []string) StatusRanker {
	ranks := make(map[string]int, len(statuses))
	for i, s := range statuses {
		if _, ok := ranks[s]; !ok {
			ranks[s] = i
		}
	}
	return StatusRanker{ranks: ranks}
}

// Rank returns the index of status in the list; unknown statuses rank 0
func (r StatusRanker) Rank(status string) int {
	return r.ranks[status]
}
