// Package bot implements the command language of the eat-what bot: line
// tokenization, option decoding, keyword dispatch, weighted recommendation,
// and reply rendering. Every operation is scoped to the conversation (chat
// ID) the triggering message came from.
package bot

import "strings"

// Command is one tokenized message line.
type Command struct {
	// Keyword is the first token of the line.
	Keyword string
	// Args are the tokens after the keyword. For name-scoped commands the
	// first arg is the target shop name.
	Args []string
}

// TargetName returns the shop name argument, empty when absent.
func (c *Command) TargetName() string {
	if len(c.Args) > 0 {
		return c.Args[0]
	}
	return ""
}

// Options returns the modifier tokens following the shop name.
func (c *Command) Options() []string {
	if len(c.Args) > 1 {
		return c.Args[1:]
	}
	return nil
}

// SplitLines splits a message into its command lines. Each line is an
// independent command; blank lines are kept here and skipped by ParseLine.
func SplitLines(text string) []string {
	return strings.Split(text, "\n")
}

// ParseLine tokenizes one message line on spaces, dropping empty tokens.
// Returns false for a line with no tokens.
func ParseLine(line string) (Command, bool) {
	tokens := strings.Fields(line)
	if len(tokens) == 0 {
		return Command{}, false
	}
	return Command{Keyword: tokens[0], Args: tokens[1:]}, true
}
