package release

import (
	"bufio"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Heading glyphs that open a category. A heading carrying none of them
// closes the current category.
var categoryGlyphs = []struct {
	category string
	tokens   []string
}{
	{CategoryFeatures, []string{":sparkles:", "✨"}},
	{CategoryFixes, []string{":bug:", "🐛"}},
	{CategoryBreaking, []string{":boom:", "💥"}},
}

var (
	headingPattern = regexp.MustCompile(`^#{1,6}\s`)

	// One release-notes bullet: optional commit link, optional bold
	// scope, required marker glyph, summary, optional attribution
	// naming a pull request or a bare commit plus the author handle.
	entryPattern = regexp.MustCompile(`^[-*]\s+` +
		"(?:\\[`?(?P<commit>[0-9a-f]{7,40})`?\\]\\((?P<link>\\S+)\\)\\s+)?" +
		`(?:\*\*(?P<scope>[^*]+)\*\*:?\s+)?` +
		`(?P<emoji>✨|🐛|💥|:sparkles:|:bug:|:boom:)\s+` +
		`(?P<summary>.+?)` +
		`(?:\s+\((?:PR\s+)?#(?P<pr>\d+)\s+by\s+@(?P<prauthor>[A-Za-z0-9-]+)\)` +
		`|\s+\((?P<attrcommit>[0-9a-f]{7,40})\s+by\s+@(?P<commitauthor>[A-Za-z0-9-]+)\))?` +
		`\s*$`)

	issuePattern = regexp.MustCompile(
		`^\s*(?:[-*]\s+)?[Aa]ddresses issue #(?P<issue>\d+) opened by @(?P<author>[A-Za-z0-9-]+)\s*\.?\s*$`)

	causePattern = regexp.MustCompile(`^\s{2,}(\S.*?)\s*$`)
)

// ParseNotes turns a release-notes body into structured notes, or nil
// when nothing in the body matches the grammar. Unrecognized lines are
// dropped rather than treated as errors; human-authored notes drift and
// a partial parse beats a failed pipeline.
func ParseNotes(body string) ReleaseNotes {
	if strings.TrimSpace(body) == "" {
		return nil
	}

	parsed := make(map[string][]*ChangeEntry)
	category := ""
	var last *ChangeEntry
	lastCategory := ""

	scanner := bufio.NewScanner(strings.NewReader(body))
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")

		if headingPattern.MatchString(line) {
			category = headingCategory(line)
			last = nil
			continue
		}

		if category != "" {
			if entry, ok := parseEntry(line); ok {
				parsed[category] = append(parsed[category], entry)
				last = entry
				lastCategory = category
				continue
			}
		}

		if last == nil {
			continue
		}

		// Continuation lines attach to the most recent entry until a
		// line matches neither continuation form.
		if m := issuePattern.FindStringSubmatch(line); m != nil {
			n, err := strconv.Atoi(m[issuePattern.SubexpIndex("issue")])
			if err == nil {
				last.Issues = addIssue(last.Issues, n)
			}
			continue
		}
		if lastCategory == CategoryBreaking {
			if m := causePattern.FindStringSubmatch(line); m != nil {
				if last.Cause == "" {
					last.Cause = m[1]
				} else {
					last.Cause += " " + m[1]
				}
				continue
			}
		}
		last = nil
	}

	if len(parsed) == 0 {
		return nil
	}
	notes := make(ReleaseNotes, len(parsed))
	for cat, entries := range parsed {
		flattened := make([]ChangeEntry, len(entries))
		for i, entry := range entries {
			flattened[i] = *entry
		}
		notes[cat] = flattened
	}
	return notes
}

// headingCategory returns the category a heading line opens, or "" when
// the heading carries no recognized glyph.
func headingCategory(line string) string {
	for _, cg := range categoryGlyphs {
		for _, token := range cg.tokens {
			if strings.Contains(line, token) {
				return cg.category
			}
		}
	}
	return ""
}

// parseEntry parses a single bullet line into a sparse ChangeEntry.
func parseEntry(line string) (*ChangeEntry, bool) {
	m := entryPattern.FindStringSubmatch(line)
	if m == nil {
		return nil, false
	}
	group := func(name string) string {
		return m[entryPattern.SubexpIndex(name)]
	}

	entry := &ChangeEntry{
		Commit:  group("commit"),
		Link:    group("link"),
		Scope:   strings.TrimSuffix(strings.TrimSpace(group("scope")), ":"),
		Emoji:   group("emoji"),
		Summary: strings.TrimSpace(group("summary")),
	}
	if entry.Summary == "" {
		return nil, false
	}

	if pr := group("pr"); pr != "" {
		n, err := strconv.Atoi(pr)
		if err != nil {
			return nil, false
		}
		entry.PR = n
		entry.Author = group("prauthor")
	} else if commit := group("attrcommit"); commit != "" {
		if entry.Commit == "" {
			entry.Commit = commit
		}
		entry.Author = group("commitauthor")
	}

	return entry, true
}

// addIssue inserts an issue number keeping the set unique and sorted.
func addIssue(issues []int, n int) []int {
	for _, have := range issues {
		if have == n {
			return issues
		}
	}
	issues = append(issues, n)
	sort.Ints(issues)
	return issues
}
