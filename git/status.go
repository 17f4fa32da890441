package git

import "strings"

// StatusEntry is one staged path with its raw change code from
// git diff --cached --name-status.
type StatusEntry struct {
	Code    string // "A", "M", "D", "R<score>", "C<score>", etc.
	Path    string // Repo-relative path (the new path for renames)
	OldPath string // Previous path, set for renames and copies
}

// Renamed reports whether the entry is a rename or copy.
func (e StatusEntry) Renamed() bool {
	return strings.HasPrefix(e.Code, "R") || strings.HasPrefix(e.Code, "C")
}

// ParseNameStatus parses git diff --name-status output.
// Each line is "CODE\tPATH" or, for renames, "R<score>\tOLD\tNEW".
func ParseNameStatus(out string) []StatusEntry {
	var entries []StatusEntry
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 2 {
			continue
		}

		entry := StatusEntry{Code: fields[0]}
		if entry.Renamed() && len(fields) >= 3 {
			entry.OldPath = fields[1]
			entry.Path = fields[2]
		} else {
			entry.Path = fields[1]
		}
		entries = append(entries, entry)
	}
	return entries
}
