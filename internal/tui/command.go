package tui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackzampolin/destinator/internal/coords"
)

// ErrBadCommand is returned for command lines that do not parse.
var ErrBadCommand = errors.New("bad command")

// Command is a parsed command line.
type Command struct {
	Name string
	// Text is the remainder of the line for add.
	Text string
	// Points holds the coordinates of click, hover and drag.
	Points []coords.Point
	// N is the one-based argument of page and select, or the zoom factor.
	N float64
}

type commandSpec struct {
	usage string
	parse func(args []string, rest string) (Command, error)
}

var commands = map[string]commandSpec{
	"add":    {"add <title|url>", parseText},
	"rm":     {"rm", parseNone},
	"unpos":  {"unpos", parseNone},
	"click":  {"click x y", parsePoints(1)},
	"hover":  {"hover x y", parsePoints(1)},
	"drag":   {"drag x0 y0 x1 y1", parsePoints(2)},
	"page":   {"page n", parseNumber},
	"select": {"select n", parseNumber},
	"zoom":   {"zoom z", parseNumber},
	"render": {"render", parseNone},
	"save":   {"save", parseNone},
	"quit":   {"quit", parseNone},
	"help":   {"help", parseNone},
}

var aliases = map[string]string{
	"a":      "add",
	"remove": "rm",
	"p":      "page",
	"s":      "select",
	"w":      "save",
	"q":      "quit",
	"cancel": "quit",
}

// Usage lists every command in a stable order.
func Usage() []string {
	order := []string{"add", "rm", "unpos", "click", "drag", "hover", "page", "select", "zoom", "render", "save", "quit"}
	out := make([]string, len(order))
	for i, name := range order {
		out[i] = commands[name].usage
	}
	return out
}

// ParseCommand parses one command line. Coordinates are zoomed preview
// pixels and page and select numbers are one-based.
func ParseCommand(line string) (Command, error) {
	line = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), ":"))
	if line == "" {
		return Command{}, fmt.Errorf("%w: empty", ErrBadCommand)
	}
	name, rest, _ := strings.Cut(line, " ")
	name = strings.ToLower(name)
	if full, ok := aliases[name]; ok {
		name = full
	}
	spec, ok := commands[name]
	if !ok {
		return Command{}, fmt.Errorf("%w: unknown command %q", ErrBadCommand, name)
	}
	c, err := spec.parse(strings.Fields(rest), strings.TrimSpace(rest))
	if err != nil {
		return Command{}, fmt.Errorf("%w: %v (usage: %s)", ErrBadCommand, err, spec.usage)
	}
	c.Name = name
	return c, nil
}

func parseNone(args []string, _ string) (Command, error) {
	if len(args) != 0 {
		return Command{}, errors.New("takes no arguments")
	}
	return Command{}, nil
}

func parseText(_ []string, rest string) (Command, error) {
	if rest == "" {
		return Command{}, errors.New("missing text")
	}
	return Command{Text: rest}, nil
}

func parseNumber(args []string, _ string) (Command, error) {
	if len(args) != 1 {
		return Command{}, errors.New("expects one number")
	}
	n, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return Command{}, fmt.Errorf("not a number: %s", args[0])
	}
	return Command{N: n}, nil
}

func parsePoints(n int) func([]string, string) (Command, error) {
	return func(args []string, _ string) (Command, error) {
		if len(args) != 2*n {
			return Command{}, fmt.Errorf("expects %d coordinates", 2*n)
		}
		c := Command{Points: make([]coords.Point, n)}
		for i := 0; i < n; i++ {
			x, err := strconv.ParseFloat(args[2*i], 64)
			if err != nil {
				return Command{}, fmt.Errorf("not a number: %s", args[2*i])
			}
			y, err := strconv.ParseFloat(args[2*i+1], 64)
			if err != nil {
				return Command{}, fmt.Errorf("not a number: %s", args[2*i+1])
			}
			c.Points[i] = coords.Point{X: x, Y: y}
		}
		return c, nil
	}
}
