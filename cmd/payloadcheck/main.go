// Command payloadcheck decodes a JSON document as one of the public Pinnacle
// types and prints its canonical encoding, or the decode error.
//
//	payloadcheck -type WebhookEvent -file event.json
//	curl ... | payloadcheck -type SendResponse
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/tidwall/pretty"

	"pinnacle/internal/errors"
	"pinnacle/internal/security"
	"pinnacle/pkg/pinnacle/types"
	"pinnacle/pkg/schema"
)

const maxInputBytes = 8 << 20

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("payloadcheck", flag.ContinueOnError)
	fs.SetOutput(stderr)
	typeName := fs.String("type", "", "Name of the type to decode as (see -list)")
	file := fs.String("file", "", "Read the document from this file instead of stdin")
	list := fs.Bool("list", false, "List the type names that can be checked")
	compact := fs.Bool("compact", false, "Print the canonical encoding without indentation")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *list {
		for _, name := range types.Names() {
			fmt.Fprintln(stdout, name)
		}
		return 0
	}
	if *typeName == "" {
		fmt.Fprintln(stderr, "payloadcheck: -type is required")
		fs.Usage()
		return 2
	}

	target, ok := types.Lookup(*typeName)
	if !ok {
		fmt.Fprintf(stderr, "payloadcheck: unknown type %q (use -list)\n", *typeName)
		return 2
	}

	data, err := readInput(*file, stdin)
	if err != nil {
		fmt.Fprintf(stderr, "payloadcheck: %v\n", err)
		return 1
	}

	if err := decode(data, target); err != nil {
		report(stderr, *typeName, err)
		return 1
	}

	out, err := schema.Marshal(target)
	if err != nil {
		fmt.Fprintf(stderr, "payloadcheck: re-encoding %s: %v\n", *typeName, err)
		return 1
	}
	if !*compact {
		out = pretty.Pretty(out)
	}

	if u, ok := target.(schema.UnionValue); ok {
		fmt.Fprintf(stdout, "variant: %s\n", u.Tag())
	}
	if extras := schema.ExtrasOf(target); len(extras) > 0 {
		names := make([]string, 0, len(extras))
		for name := range extras {
			names = append(names, name)
		}
		sort.Strings(names)
		fmt.Fprintf(stdout, "unknown members: %s\n", strings.Join(names, ", "))
	}
	fmt.Fprintf(stdout, "%s", out)
	if len(out) == 0 || out[len(out)-1] != '\n' {
		fmt.Fprintln(stdout)
	}
	return 0
}

func readInput(path string, stdin io.Reader) ([]byte, error) {
	if path == "" {
		return io.ReadAll(io.LimitReader(stdin, maxInputBytes))
	}
	if err := security.ValidateReadableFile(path, maxInputBytes); err != nil {
		return nil, err
	}
	return os.ReadFile(path)
}

// decode checks the shape first so a bad document reports the first
// offending field without partially populating target.
func decode(data []byte, target any) error {
	if err := schema.Check(data, target); err != nil {
		return err
	}
	if err := schema.Unmarshal(data, target); err != nil {
		return err
	}
	return schema.Validate(target)
}

func report(w io.Writer, typeName string, err error) {
	appErr := errors.FromDecode(err)
	fmt.Fprintf(w, "%s: %s [%s]\n", typeName, appErr.Message, appErr.Code)
	if appErr.Cause != nil {
		fmt.Fprintf(w, "  cause: %v\n", appErr.Cause)
	}
	if appErr.Context != nil {
		keys := make([]string, 0, len(appErr.Context))
		for k := range appErr.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(w, "  %s: %v\n", k, appErr.Context[k])
		}
	}
}
