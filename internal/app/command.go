package app

import "strings"

// CommandKind enumerates everything an inbound SMS can mean. Raw bodies are
// decoded exactly once at the boundary; everything downstream works with the
// typed value.
type CommandKind int

const (
	CommandUnknown CommandKind = iota
	CommandAnswer
	CommandHelp
	CommandScore
	CommandStop
	CommandRestart
)

// Command is the decoded form of one inbound message. Letter is set only for
// CommandAnswer.
type Command struct {
	Kind   CommandKind
	Letter string // "A".."D"
}

// ParseCommand normalizes a raw SMS body and decodes it. Single letters A-D
// are answers; a handful of keywords are commands; everything else is Unknown.
func ParseCommand(raw string) Command {
	token := strings.ToUpper(strings.TrimSpace(raw))

	switch token {
	case "A", "B", "C", "D":
		return Command{Kind: CommandAnswer, Letter: token}
	case "HELP", "INFO":
		return Command{Kind: CommandHelp}
	case "SCORE", "STATS":
		return Command{Kind: CommandScore}
	case "STOP", "QUIT", "UNSUBSCRIBE":
		return Command{Kind: CommandStop}
	case "RESTART", "START", "RESUME":
		return Command{Kind: CommandRestart}
	}
	return Command{Kind: CommandUnknown}
}
