package boxstate

import "strings"

// NormalizeStringScript and NormalizeStringListScript cover spec.md §6's
// accepted shapes for the `script` field, normalized to a list of command
// lines:
//
//   - a single string (NormalizeStringScript): split on newlines, empty
//     lines dropped, each trimmed.
//   - a list of strings (NormalizeStringListScript): used verbatim.
//   - a mixed list whose scalar entries are commands and whose structured
//     entries are each serialized back to their textual form as a single
//     multi-line command.
//
// The third shape is handled by boxconfig's decodeScript, since only the
// YAML layer knows the original node: it keeps each scalar entry's value
// as one command, marshals each structured entry back to YAML text, and
// passes the resulting list, in declaration order, through
// NormalizeStringListScript.
func NormalizeStringScript(raw string) []string {
	lines := strings.Split(raw, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}
	return out
}

// NormalizeStringListScript is the identity transform for the
// already-a-list-of-strings shape: idempotent per spec.md §8.
func NormalizeStringListScript(lines []string) []string {
	out := make([]string, len(lines))
	copy(out, lines)
	return out
}

// JoinScript joins normalized command lines the way TaskPool hands them to
// a shell (spec.md §4.4: "Join the task's script lines with ` && ` to
// form a single shell command").
func JoinScript(lines []string) string {
	return strings.Join(lines, " && ")
}

// BuildKeyBindingScript assembles the combined script InputLoop launches
// for a matched key binding: shared libs first, then the mapped command
// lines (spec.md §4.3). The lines are returned unjoined; JoinScript joins
// them with ` && ` when the script is run.
func BuildKeyBindingScript(libs []string, commands []string) []string {
	out := make([]string, 0, len(libs)+len(commands))
	out = append(out, libs...)
	out = append(out, commands...)
	return out
}
