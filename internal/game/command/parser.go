// Package command turns raw player input into structured commands using an
// ordered table of anchored patterns.
package command

import (
	"regexp"
	"strings"
)

// Verbs produced by the default grammar.
const (
	VerbLook   = "look"
	VerbGo     = "go"
	VerbTake   = "take"
	VerbDrop   = "drop"
	VerbUse    = "use"
	VerbRead   = "read"
	VerbAttack = "attack"
)

// Rule pairs a verb with the pattern that recognizes it. Patterns must be
// anchored at both ends; capture groups become the command's positional
// arguments.
type Rule struct {
	// Verb identifies the command this rule produces.
	Verb string
	// Pattern is the compiled, anchored, case-insensitive expression.
	Pattern *regexp.Regexp
}

// Command is a parsed input line.
type Command struct {
	// Verb is the matched rule's verb.
	Verb string
	// Args holds the pattern's capture groups in order, each trimmed.
	// Absent optional groups are empty strings.
	Args []string
}

// Arg returns the i-th argument, or "" if there are fewer arguments.
func (c Command) Arg(i int) string {
	if i < 0 || i >= len(c.Args) {
		return ""
	}
	return c.Args[i]
}

// Parser matches input lines against an ordered rule table. Rules are tried
// in order; the first full match wins.
type Parser struct {
	rules []Rule
}

// New creates a Parser from the given rule table. The table is injected so
// tests and alternate frontends can substitute their own grammar.
func New(rules []Rule) *Parser {
	return &Parser{rules: rules}
}

// Parse matches a raw input line against the rule table.
//
// Postcondition: Returns (command, true) on the first full match, or
// (Command{}, false) if no rule matches the whole trimmed line.
func (p *Parser) Parse(line string) (Command, bool) {
	line = strings.TrimSpace(line)
	for _, rule := range p.rules {
		m := rule.Pattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		args := make([]string, len(m)-1)
		for i, g := range m[1:] {
			args[i] = strings.TrimSpace(g)
		}
		return Command{Verb: rule.Verb, Args: args}, true
	}
	return Command{}, false
}

// DefaultRules returns the canonical grammar, in match priority order:
//
//	look
//	go [back|to|through|inside|outside] [noun]
//	take <item>
//	drop <item>
//	use <item> on <target>
//	read <item>
//	attack <character>
//
// Item and target names may be double-quoted.
func DefaultRules() []Rule {
	return []Rule{
		{Verb: VerbLook, Pattern: regexp.MustCompile(`(?i)^look(?: around)?$`)},
		{Verb: VerbGo, Pattern: regexp.MustCompile(`(?i)^go(?:\s+(back|to|through|inside|outside)\b)?(?:\s+(.+))?$`)},
		{Verb: VerbTake, Pattern: regexp.MustCompile(`(?i)^(?:take|pick up)\s+"?([^"]+?)"?$`)},
		{Verb: VerbDrop, Pattern: regexp.MustCompile(`(?i)^drop\s+"?([^"]+?)"?$`)},
		{Verb: VerbUse, Pattern: regexp.MustCompile(`(?i)^use\s+"?([^"]+?)"?\s+on\s+"?([^"]+?)"?$`)},
		{Verb: VerbRead, Pattern: regexp.MustCompile(`(?i)^read\s+"?([^"]+?)"?$`)},
		{Verb: VerbAttack, Pattern: regexp.MustCompile(`(?i)^attack\s+"?([^"]+?)"?$`)},
	}
}
