package command

import (
	"strconv"
	"strings"

	"github.com/tgvdev/tgv/internal/tgverr"
)

// ParseLine parses a submitted command-mode string.
//
// Supported forms:
//
//	q              quit
//	h              help
//	ls, contigs    contig switcher
//	1234           go to position on the current contig
//	chr1:1234      go to position on a contig (aliases resolve downstream)
//	TP53           go to a named feature, centered
func ParseLine(line string) (Command, error) {
	input := strings.TrimSpace(line)
	if input == "" {
		return nil, tgverr.New(tgverr.ParseCommand, "empty command")
	}

	switch lowerTrim(input) {
	case "q":
		return Quit{}, nil
	case "h":
		return ShowHelp{}, nil
	case "ls", "contigs":
		return ShowContigList{}, nil
	}

	parts := strings.Split(input, ":")
	switch len(parts) {
	case 1:
		if n, err := strconv.Atoi(parts[0]); err == nil {
			if n < 1 {
				return nil, tgverr.New(tgverr.OutOfBounds, "position %d is before the contig start", n)
			}
			return GotoPos{Pos: n}, nil
		}
		if !validFeatureName(parts[0]) {
			return nil, tgverr.New(tgverr.ParseCommand, "invalid command %q", input)
		}
		return GotoFeature{Name: parts[0]}, nil
	case 2:
		n, err := strconv.Atoi(parts[1])
		if err != nil {
			return nil, tgverr.New(tgverr.ParseCommand, "invalid command %q", input)
		}
		if n < 1 {
			return nil, tgverr.New(tgverr.OutOfBounds, "position %d is before the contig start", n)
		}
		return GotoContigPos{Contig: parts[0], Pos: n}, nil
	}
	return nil, tgverr.New(tgverr.ParseCommand, "invalid command %q", input)
}

func validFeatureName(s string) bool {
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '_' || r == '-' || r == '.':
		default:
			return false
		}
	}
	return s != ""
}
