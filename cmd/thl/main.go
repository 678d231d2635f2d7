// Thl highlights a file with a syntax grammar.
//
// The grammar is read from the Starlark file given with --grammar,
// or is chosen by the file name:
// Go for .go files, and directory entries for directories.
// Highlighted text is written to standard output with ANSI color escapes,
// or as a list of addressed style names with --list.
package main

import (
	"fmt"
	"image/color"
	"io"
	"log"
	"os"
	"sort"
	"strings"

	getopt "github.com/pborman/getopt/v2"
	"github.com/pborman/options"

	"github.com/osch/luced-sub001/grammar"
	"github.com/osch/luced-sub001/regex"
	"github.com/osch/luced-sub001/rope"
	"github.com/osch/luced-sub001/script"
	"github.com/osch/luced-sub001/style"
	"github.com/osch/luced-sub001/syntax"
	"github.com/osch/luced-sub001/syntax/dirsyntax"
	"github.com/osch/luced-sub001/syntax/gosyntax"
)

type config struct {
	Help    bool   `getopt:"-h --help          Display help"`
	Grammar string `getopt:"--grammar=file     Starlark grammar file"`
	List    bool   `getopt:"-l --list          List highlights as file:#start,#end style"`
	From    int64  `getopt:"--from=offset      Byte offset at which highlighting starts; only the root rule may be open there"`
	To      int64  `getopt:"--to=offset        Byte offset at which highlighting ends. Default: the end of the file"`
}

// builtins maps file name regular expressions to built-in grammars.
var builtins = []struct {
	regexp string
	source func() grammar.Source
	styles func() style.Table
}{
	{`.*\.go$`, gosyntax.Source, gosyntax.Styles},
	{`.*/$`, dirsyntax.Source, dirsyntax.Styles},
}

func main() {
	log.SetFlags(0)
	log.SetPrefix("thl: ")

	var cfg config
	o := getopt.New()
	if err := options.RegisterSet("", &cfg, o); err != nil {
		log.Fatalf("option set registration failed: %s", err)
	}
	o.SetParameters("file")
	if err := o.Getopt(os.Args, nil); err != nil {
		log.Print(err)
		o.PrintUsage(os.Stderr)
		os.Exit(2)
	}
	if cfg.Help {
		o.PrintUsage(os.Stdout)
		return
	}
	if len(o.Args()) != 1 {
		o.PrintUsage(os.Stderr)
		os.Exit(2)
	}
	path := o.Args()[0]

	buf, name, err := load(path)
	if err != nil {
		log.Fatal(err)
	}
	src, styles, err := grammarFor(cfg.Grammar, name)
	if err != nil {
		log.Fatal(err)
	}
	var h grammar.Holder
	if _, err := h.Load(src, styles); err != nil {
		log.Fatal(err)
	}

	to := buf.Len()
	if o.IsSet("to") {
		to = cfg.To
	}
	hs := syntax.NewTokenizer(h.Get()).Tokens(buf, cfg.From, to)
	if cfg.List {
		g := h.Get()
		for _, hl := range hs {
			fmt.Printf("%s:#%d,#%d\t%s\n", path, hl.At[0], hl.At[1], g.StyleName(hl.StyleID))
		}
		return
	}
	if err := writeANSI(os.Stdout, buf, hs); err != nil {
		log.Fatal(err)
	}
}

// load returns a buffer of the file, or of the entries of a directory,
// and the name used to choose a built-in grammar.
func load(path string) (*rope.Buffer, string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, "", err
	}
	if !info.IsDir() {
		buf, err := rope.LoadFile(path)
		return buf, path, err
	}
	ents, err := os.ReadDir(path)
	if err != nil {
		return nil, "", err
	}
	var names []string
	for _, ent := range ents {
		n := ent.Name()
		if ent.IsDir() {
			n += "/"
		}
		names = append(names, n)
	}
	sort.Strings(names)
	return rope.NewBufferString(strings.Join(names, "\n") + "\n"), strings.TrimSuffix(path, "/") + "/", nil
}

func grammarFor(file, name string) (grammar.Source, style.Table, error) {
	if file != "" {
		src, styles, err := script.LoadGrammar(file, nil)
		if err == nil && styles == nil {
			err = fmt.Errorf("%s: no styles", file)
		}
		return src, styles, err
	}
	for _, b := range builtins {
		if regex.MustCompile(b.regexp, regex.Opts{}).MatchString(name) {
			return b.source(), b.styles(), nil
		}
	}
	return nil, nil, fmt.Errorf("%s: no grammar; use --grammar", name)
}

func writeANSI(w io.Writer, buf *rope.Buffer, hs []syntax.Highlight) error {
	for _, hl := range hs {
		var esc []string
		if fg := hl.FG; fg != nil {
			esc = append(esc, "38;2;"+rgb(fg))
		}
		if bg := hl.BG; bg != nil {
			esc = append(esc, "48;2;"+rgb(bg))
		}
		text := buf.Window(hl.At[0], hl.At[1])
		var err error
		if len(esc) == 0 {
			_, err = w.Write(text)
		} else {
			_, err = fmt.Fprintf(w, "\x1b[%sm%s\x1b[0m", strings.Join(esc, ";"), text)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func rgb(c color.Color) string {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return fmt.Sprintf("%d;%d;%d", n.R, n.G, n.B)
}
