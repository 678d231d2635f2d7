package regex

import (
	"fmt"
	"strconv"
	"strings"
)

// Debug enables debuging output for the matcher.
var Debug = false

func debug(f string, args ...interface{}) {
	if Debug {
		fmt.Printf(f, args...)
	}
}

// DebugString returns a string of the regexp program for debugging.
func (re *Regexp) DebugString() string {
	var s strings.Builder
	s.WriteString(re.source)
	writeProg(&s, re, re.prog)
	for i, l := range re.looks {
		kind := "ahead"
		if l.behind {
			kind = "behind"
		}
		if l.neg {
			kind = "neg " + kind
		}
		fmt.Fprintf(&s, "\nlook %d (%s):", i, kind)
		writeProg(&s, re, l.prog)
	}
	return s.String()
}

func writeProg(s *strings.Builder, re *Regexp, prog []instr) {
	for pc, instr := range prog {
		fmt.Fprintf(s, "\n%4d:\t%s", pc, instr.DebugString(re, pc))
	}
}

func (instr instr) DebugString(re *Regexp, pc int) string {
	switch instr.op {
	case anyrune:
		return "any"
	case nclass, class:
		s := "class"
		if instr.op == nclass {
			s = "nclass"
		}
		for _, c := range re.class[instr.arg] {
			s += " " + strconv.QuoteRune(c[0])
			if c[0] < c[1] {
				s += "-" + strconv.QuoteRune(c[1])
			}
		}
		return s
	case match:
		return "match"
	case jmp:
		return fmt.Sprintf("jmp %d", instr.arg)
	case fork:
		return fmt.Sprintf("fork %d %d", pc+1, instr.arg)
	case rfork:
		return fmt.Sprintf("rfork %d %d", instr.arg, pc+1)
	case save:
		return fmt.Sprintf("save %d", instr.arg)
	case mark:
		return fmt.Sprintf("mark %d", instr.arg)
	case progress:
		return fmt.Sprintf("progress %d", instr.arg)
	case lookop:
		return fmt.Sprintf("look %d", instr.arg)
	case backref:
		return fmt.Sprintf("backref %v", re.refs[instr.arg])
	case callout:
		return fmt.Sprintf("callout %d", instr.arg)
	case assert:
		return [...]string{"bol", "eol", "bot", "eot", "wordb", "nwordb"}[instr.arg]
	default:
		return strconv.QuoteRune(rune(instr.arg))
	}
}
