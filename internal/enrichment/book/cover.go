package book

import (
	"fmt"
	"strings"
)

// CoverSource identifies where a cover URL came from.
type CoverSource string

const (
	// CoverSourceScrape is the og:image of the Goodreads book page.
	CoverSourceScrape CoverSource = "scrape"
	// CoverSourceSearch is the thumbnail of the bibliographic search result.
	CoverSourceSearch CoverSource = "search"
)

// CoverPriority is the order in which cover sources are consulted.
type CoverPriority []CoverSource

// DefaultCoverPriority prefers the scraped cover and falls back to the search thumbnail.
func DefaultCoverPriority() CoverPriority {
	return CoverPriority{CoverSourceScrape, CoverSourceSearch}
}

// ParseCoverPriority parses source names such as ["search", "scrape"].
// Duplicates are dropped; an empty list yields the default priority.
func ParseCoverPriority(names []string) (CoverPriority, error) {
	var (
		priority CoverPriority
		seen     = make(map[CoverSource]bool)
	)
	for _, name := range names {
		src := CoverSource(strings.ToLower(strings.TrimSpace(name)))
		if src == "" {
			continue
		}
		if src != CoverSourceScrape && src != CoverSourceSearch {
			return nil, fmt.Errorf("%w: %q", ErrUnknownCoverSource, name)
		}
		if seen[src] {
			continue
		}
		seen[src] = true
		priority = append(priority, src)
	}

	if len(priority) == 0 {
		return DefaultCoverPriority(), nil
	}
	return priority, nil
}

// Includes reports whether the policy consults src at all.
func (p CoverPriority) Includes(src CoverSource) bool {
	for _, s := range p {
		if s == src {
			return true
		}
	}
	return false
}

// String returns the policy as a comma separated list.
func (p CoverPriority) String() string {
	names := make([]string, len(p))
	for i, s := range p {
		names[i] = string(s)
	}
	return strings.Join(names, ",")
}

// ResolveCover returns the first non-empty cover in policy order and its source.
// Returns "", "" when no source produced a cover.
func ResolveCover(priority CoverPriority, scraped, searched string) (string, CoverSource) {
	for _, src := range priority {
		switch src {
		case CoverSourceScrape:
			if scraped != "" {
				return scraped, src
			}
		case CoverSourceSearch:
			if searched != "" {
				return searched, src
			}
		}
	}
	return "", ""
}
