// Package domain provides domain types for git commit history.
package domain

import "time"

// Commit holds the summary of a single commit as shown in the commit list.
type Commit struct {
	Hash        string    `json:"hash" yaml:"hash"`                                   // Full 40-char SHA
	ShortHash   string    `json:"short_hash" yaml:"short_hash"`                       // 7-char abbreviated hash
	Message     string    `json:"message" yaml:"message"`                             // First line of commit message
	Author      string    `json:"author" yaml:"author"`                               // Author name
	Timestamp   time.Time `json:"timestamp" yaml:"timestamp"`                         // Author timestamp
	Description string    `json:"description,omitempty" yaml:"description,omitempty"` // Message body after the subject line
}

// FileChange is the per-file line count of a commit.
type FileChange struct {
	Path    string `json:"path" yaml:"path"`
	Added   int    `json:"added" yaml:"added"`
	Removed int    `json:"removed" yaml:"removed"`
}

// CommitDetail is everything known about one commit. The client treats it as
// opaque display data keyed by Hash.
type CommitDetail struct {
	Commit      `yaml:",inline"`
	AuthorEmail string       `json:"author_email" yaml:"author_email"`
	Parents     []string     `json:"parents" yaml:"parents"`
	Files       []FileChange `json:"files" yaml:"files"`
	Diff        string       `json:"diff" yaml:"diff"`
}

// Totals returns the summed additions and deletions across all files.
func (d CommitDetail) Totals() (added, removed int) {
	for _, f := range d.Files {
		added += f.Added
		removed += f.Removed
	}
	return added, removed
}

// ShortHash abbreviates a full hash to 7 characters.
func ShortHash(hash string) string {
	if len(hash) <= 7 {
		return hash
	}
	return hash[:7]
}
