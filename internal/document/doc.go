// Package document parses BMAD planning documents into work item trees.
//
// Three line patterns are recognized:
//
//	## Epic <n>: <title> [existing-id]
//	### Story <n>.<m>: <title> [existing-id]
//	- [ ] <task title> `existing-id`
//
// Checklist lines are only read inside a "## Tasks / Subtasks" section; the
// section ends at the next level 1 or 2 heading. Indented checklist lines are
// subtasks of the task above them.
//
// Parsing is single-pass and line oriented. Lines that match nothing are
// ignored, and malformed headers (for example a non-numeric epic number)
// simply fail to match. Parsing never returns an error for bad content.
package document
