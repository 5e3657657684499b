package timing

import (
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	cerrors "github.com/FocuswithJustin/Slidecast/core/errors"
)

// Point is a motion-path coordinate as a fraction of the slide
// dimensions: (0,0) is the top-left corner, (1,1) the bottom-right.
type Point struct {
	X, Y float64
}

// pathGrammar is the participle grammar for animMotion path strings.
// Examples: "M 0 0 L 0.25 0.4 E", "M 0.1 0.1 C 0.2 0.2 0.3 0.1 0.4 0.5 Z".
// Uppercase commands take absolute coordinates, lowercase relative ones.
//
type pathGrammar struct {
	Commands []pathCommand `parser:"@@+"`
}

type pathCommand struct {
	Op   string    `parser:"@Op"`
	Args []float64 `parser:"@Number*"`
}

// pathLexer tokenizes path strings. Commas are treated as whitespace.
var pathLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Op", Pattern: `[MLCZEmlcze]`},
	{Name: "Number", Pattern: `-?\d+(\.\d+)?([eE][-+]?\d+)?`},
	{Name: "Whitespace", Pattern: `[\s,]+`},
})

var pathParser = participle.MustBuild[pathGrammar](
	participle.Lexer(pathLexer),
	participle.Elide("Whitespace"),
)

// PathDestination parses an animMotion path string and returns the point
// where the path ends. Coordinate pairs are consumed per command: M and
// L take pairs, C takes triples of pairs with the last pair as the
// endpoint, Z returns to the subpath start, E ends the path.
func PathDestination(path string) (Point, error) {
	parsed, err := pathParser.ParseString("", strings.TrimSpace(path))
	if err != nil {
		return Point{}, cerrors.NewMalformedTiming("animMotion", "unparsable path: "+err.Error())
	}

	var cur, subpathStart Point
	for _, cmd := range parsed.Commands {
		relative := cmd.Op >= "a" && cmd.Op <= "z"
		op := strings.ToUpper(cmd.Op)
		switch op {
		case "M", "L":
			if len(cmd.Args)%2 != 0 {
				return Point{}, cerrors.NewMalformedTiming("animMotion", "odd coordinate count in path command "+cmd.Op)
			}
			for i := 0; i+1 < len(cmd.Args); i += 2 {
				cur = advance(cur, Point{cmd.Args[i], cmd.Args[i+1]}, relative)
				if op == "M" && i == 0 {
					subpathStart = cur
				}
			}
		case "C":
			if len(cmd.Args) == 0 || len(cmd.Args)%6 != 0 {
				return Point{}, cerrors.NewMalformedTiming("animMotion", "curve command needs multiples of six coordinates")
			}
			for i := 0; i+5 < len(cmd.Args); i += 6 {
				cur = advance(cur, Point{cmd.Args[i+4], cmd.Args[i+5]}, relative)
			}
		case "Z":
			cur = subpathStart
		case "E":
			return cur, nil
		}
	}
	return cur, nil
}

func advance(cur, p Point, relative bool) Point {
	if relative {
		return Point{cur.X + p.X, cur.Y + p.Y}
	}
	return p
}
