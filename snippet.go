package injection

import "fmt"

// DefaultMarker is the sentinel line the applier looks for to decide whether
// a file has already been injected. It must appear verbatim inside every
// snippet.
const DefaultMarker = "FROM KEYSTROKEINJECTION WITH LOVE"

// DefaultSnippets returns the per-extension snippet table. Each snippet is
// prepended as the very first bytes of a qualifying file and carries the
// marker so a second pass recognizes it.
func DefaultSnippets() map[string]string {
	marker := DefaultMarker
	return map[string]string{
		".py": fmt.Sprintf("# %s\n"+
			"print('hello world')\n"+
			"raise SystemExit(0)\n"+
			"\n", marker),
		".c": fmt.Sprintf("// %s\n"+
			"#include <unistd.h>\n"+
			"#include <stdlib.h>\n"+
			"__attribute__((constructor))\n"+
			"static void keystroke_injection_boot(void) {\n"+
			"    ssize_t ks_written = write(1, \"%s\\n\", %d);\n"+
			"    (void)ks_written;\n"+
			"    _Exit(0);\n"+
			"}\n"+
			"\n", marker, marker, len(marker)+1),
		".cpp": fmt.Sprintf("// %s\n"+
			"#include <unistd.h>\n"+
			"#include <cstdlib>\n"+
			"__attribute__((constructor))\n"+
			"static void keystroke_injection_boot(void) {\n"+
			"    ssize_t ks_written = write(1, \"%s\\n\", %d);\n"+
			"    (void)ks_written;\n"+
			"    std::_Exit(0);\n"+
			"}\n"+
			"\n", marker, marker, len(marker)+1),
		".rs": fmt.Sprintf("// %s\n"+
			"fn main() {\n"+
			"    println!(\"hello world\");\n"+
			"    std::process::exit(0);\n"+
			"}\n"+
			"\n", marker),
	}
}

// SnippetExtensions returns the extensions covered by a snippet table
func SnippetExtensions(snippets map[string]string) []string {
	exts := make([]string, 0, len(snippets))
	for ext := range snippets {
		exts = append(exts, ext)
	}
	return exts
}
