package main

import "strings"

// shortFlags maps the historical two-letter flags to their long names.
// pflag only supports single-letter shorthands.
var shortFlags = map[string]string{
	"-mt": "--max-threads",
	"-me": "--max-exp",
}

// rewriteShortFlags turns "-mt 8" and "-mt=8" into "--max-threads 8" and
// "--max-threads=8". Arguments after "--" are left alone.
func rewriteShortFlags(args []string) []string {
	out := make([]string, 0, len(args))
	for i, arg := range args {
		if arg == "--" {
			return append(out, args[i:]...)
		}
		name, value, hasValue := strings.Cut(arg, "=")
		if long, ok := shortFlags[name]; ok {
			if hasValue {
				arg = long + "=" + value
			} else {
				arg = long
			}
		}
		out = append(out, arg)
	}
	return out
}
