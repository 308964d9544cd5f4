// Package flagx lets several flag sets share one command line. Each set
// picks out the flags it defines and leaves the others alone, so the JSON
// config flag and the server flags can be parsed independently.
package flagx

import (
	"flag"
	"strings"
)

type boolFlag interface {
	IsBoolFlag() bool
}

// filter keeps the arguments naming a flag in known, written as "-c" or
// "--config", along with their values. A value is either joined with "="
// or is the next argument when it does not start with "-". known maps a
// spelling to true when the flag is boolean and never takes a separate
// value.
func filter(args []string, known map[string]bool) []string {
	out := make([]string, 0, len(args))

	for i := 0; i < len(args); i++ {
		arg := args[i]

		if name, _, ok := strings.Cut(arg, "="); ok && strings.HasPrefix(arg, "-") {
			if _, found := known[name]; found {
				out = append(out, arg)
			}
			continue
		}

		isBool, ok := known[arg]
		if !ok {
			continue
		}
		out = append(out, arg)
		if !isBool && i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			out = append(out, args[i+1])
			i++
		}
	}
	return out
}

// spellings lists every flag of fs as "-x" and "--x".
func spellings(fs *flag.FlagSet) map[string]bool {
	known := map[string]bool{}
	fs.VisitAll(func(f *flag.Flag) {
		b, ok := f.Value.(boolFlag)
		isBool := ok && b.IsBoolFlag()
		known["-"+f.Name] = isBool
		known["--"+f.Name] = isBool
	})
	return known
}

// ParseKnown parses the arguments of args that fs defines and ignores
// everything else. Boolean flags only take a value through "=", as with
// the flag package.
func ParseKnown(fs *flag.FlagSet, args []string) error {
	return fs.Parse(filter(args, spellings(fs)))
}

// ConfigPath returns the JSON config file named by -c or -config in args,
// or an empty string. When both appear the last one wins.
func ConfigPath(args []string) string {
	var path string

	fs := flag.NewFlagSet("json", flag.ContinueOnError)
	fs.StringVar(&path, "config", "", "Path to config file")
	fs.StringVar(&path, "c", "", "Path to config file (short)")
	_ = ParseKnown(fs, args)

	return path
}
