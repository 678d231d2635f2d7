// Tfind finds an expression in a file.
//
// Each match is printed as file:#start,#end followed by the quoted text of the match.
// Callouts in the expression, (*expr,args...), are evaluated
// in the scope of the Starlark file given with --script.
package main

import (
	"fmt"
	"log"
	"os"

	getopt "github.com/pborman/getopt/v2"
	"github.com/pborman/options"

	"github.com/osch/luced-sub001/clipboard"
	"github.com/osch/luced-sub001/regex"
	"github.com/osch/luced-sub001/rope"
	"github.com/osch/luced-sub001/script"
	"github.com/osch/luced-sub001/search"
)

type config struct {
	Help       bool   `getopt:"-h --help           Display help"`
	Backward   bool   `getopt:"-b --backward       Search backward from the start offset"`
	IgnoreCase bool   `getopt:"-i --ignore-case    Match letters regardless of case"`
	Regex      bool   `getopt:"-r --regex          Interpret the expression as a regular expression"`
	Word       bool   `getopt:"-w --word           Only match whole words"`
	All        bool   `getopt:"-a --all            Print every match, not just the first"`
	Start      int64  `getopt:"--start=offset      Byte offset at which the search starts. Default: the start, or the end if searching backward"`
	MaxEnd     int64  `getopt:"--max-end=offset    Largest end offset of a match"`
	MinStart   int64  `getopt:"--min-start=offset  Smallest start offset of a match when searching backward"`
	Script     string `getopt:"--script=file       Starlark file defining the values of callouts"`
	Clipboard  bool   `getopt:"--clipboard         Find the text of the clipboard instead of an expression argument"`
	Copy       bool   `getopt:"--copy              Copy the text of the last match printed to the clipboard"`
	Debug      bool   `getopt:"--debug             Trace the matcher"`
}

func main() {
	log.SetFlags(0)
	log.SetPrefix("tfind: ")

	var cfg config
	o := getopt.New()
	if err := options.RegisterSet("", &cfg, o); err != nil {
		log.Fatalf("option set registration failed: %s", err)
	}
	o.SetParameters("[expression] file")
	if err := o.Getopt(os.Args, nil); err != nil {
		log.Print(err)
		o.PrintUsage(os.Stderr)
		os.Exit(2)
	}
	if cfg.Help {
		o.PrintUsage(os.Stdout)
		return
	}
	regex.Debug = cfg.Debug

	clip := clipboard.New()
	args := o.Args()
	var find string
	switch {
	case cfg.Clipboard && len(args) == 1:
		var err error
		if find, err = clip.Fetch(); err != nil {
			log.Fatalf("reading the clipboard: %s", err)
		}
	case !cfg.Clipboard && len(args) == 2:
		find, args = args[0], args[1:]
	default:
		o.PrintUsage(os.Stderr)
		os.Exit(2)
	}
	path := args[0]

	buf, err := rope.LoadFile(path)
	if err != nil {
		log.Fatal(err)
	}
	var rt search.Runtime
	if cfg.Script != "" {
		r := script.New(nil)
		if err := r.Exec(cfg.Script, nil); err != nil {
			log.Fatal(err)
		}
		rt = r
	}

	opts := search.AllowMatchAtStart
	for _, f := range []struct {
		set bool
		opt search.Options
	}{
		{cfg.Backward, search.Backward},
		{cfg.IgnoreCase, search.IgnoreCase},
		{cfg.Regex, search.Regex},
		{cfg.Word, search.WholeWord},
	} {
		if f.set {
			opts |= f.opt
		}
	}
	s := search.New(buf, rt).SetParam(search.Param{Find: find, Options: opts})
	switch {
	case o.IsSet("start"):
		s.SetPosition(cfg.Start)
	case cfg.Backward:
		s.SetPosition(buf.Len())
	}
	if o.IsSet("max-end") {
		s.SetMaxEnd(cfg.MaxEnd)
	}
	if o.IsSet("min-start") {
		s.SetMinStart(cfg.MinStart)
	}

	var last string
	found := false
	for {
		ok, err := s.FindNext()
		if err != nil {
			log.Fatal(err)
		}
		if !ok {
			break
		}
		found = true
		last = string(buf.Window(s.MatchBegin(), s.MatchEnd()))
		fmt.Printf("%s:#%d,#%d\t%q\n", path, s.MatchBegin(), s.MatchEnd(), last)
		if !cfg.All || cfg.Backward && s.MatchBegin() == 0 {
			break
		}
		switch {
		case cfg.Backward:
			s.SetPosition(s.MatchBegin() - 1)
		case s.MatchLength() > 0:
			s.SetPosition(s.MatchEnd())
		default:
			s.SetPosition(s.MatchEnd() + 1)
		}
	}
	if cfg.Copy && found {
		if err := clip.Store(last); err != nil {
			log.Fatalf("writing the clipboard: %s", err)
		}
	}
	if !found {
		os.Exit(1)
	}
}
