// Package renamer turns templates into concrete rename proposals and
// executes them.
package renamer

import (
	"strings"
)

const maxFilenameLength = 255

var invalidChars = map[rune]bool{
	'/': true, '\\': true, ':': true, '*': true, '?': true,
	'"': true, '<': true, '>': true, '|': true, 0: true,
}

var reservedNames = map[string]bool{
	"CON": true, "PRN": true, "AUX": true, "NUL": true,
	"COM1": true, "COM2": true, "COM3": true, "COM4": true, "COM5": true,
	"COM6": true, "COM7": true, "COM8": true, "COM9": true,
	"LPT1": true, "LPT2": true, "LPT3": true, "LPT4": true, "LPT5": true,
	"LPT6": true, "LPT7": true, "LPT8": true, "LPT9": true,
}

// SanitizeChange describes one transformation applied by Sanitize.
type SanitizeChange struct {
	Type        string `json:"type"`
	Original    string `json:"original"`
	Replacement string `json:"replacement"`
	Message     string `json:"message"`
}

// SanitizeResult is the outcome of sanitizing one filename.
type SanitizeResult struct {
	Sanitized   string           `json:"sanitized"`
	Original    string           `json:"original"`
	Changes     []SanitizeChange `json:"changes"`
	WasModified bool             `json:"wasModified"`
}

// IsValidFilename reports whether a name is safe on every major platform:
// non-empty, within length limits, no reserved characters or Windows
// reserved device names, no trailing dot or space.
func IsValidFilename(name string) bool {
	if name == "" || len(name) > maxFilenameLength {
		return false
	}
	for _, c := range name {
		if invalidChars[c] {
			return false
		}
	}
	base := strings.ToUpper(strings.SplitN(name, ".", 2)[0])
	if reservedNames[base] {
		return false
	}
	if strings.HasSuffix(name, " ") || strings.HasSuffix(name, ".") {
		return false
	}
	return true
}

// splitFilename separates name and extension, keeping the dot with the
// extension. Dotfiles like .gitignore count as all-name.
func splitFilename(filename string) (string, string) {
	if filename == "" {
		return "", ""
	}
	if strings.HasPrefix(filename, ".") && !strings.Contains(filename[1:], ".") {
		return filename, ""
	}
	pos := strings.LastIndexByte(filename, '.')
	if pos <= 0 {
		return filename, ""
	}
	return filename[:pos], filename[pos:]
}

// Sanitize rewrites a filename to be valid across operating systems:
// invalid characters are replaced, runs of the replacement collapse,
// reserved device names get a suffix, trailing dots/spaces are trimmed and
// overlong names are truncated with an ellipsis before the extension.
func Sanitize(filename string, replacement rune) SanitizeResult {
	result := SanitizeResult{Original: filename, Sanitized: filename}
	if filename == "" {
		return result
	}

	out := filename

	var replaced []rune
	seen := map[rune]bool{}
	for _, c := range out {
		if invalidChars[c] && !seen[c] {
			seen[c] = true
			replaced = append(replaced, c)
		}
	}
	if len(replaced) > 0 {
		var b strings.Builder
		for _, c := range out {
			if invalidChars[c] {
				b.WriteRune(replacement)
			} else {
				b.WriteRune(c)
			}
		}
		out = b.String()
		result.Changes = append(result.Changes, SanitizeChange{
			Type:        "char_replacement",
			Original:    string(replaced),
			Replacement: strings.Repeat(string(replacement), len(replaced)),
			Message:     "Replaced invalid characters: " + quoteRunes(replaced),
		})
	}

	double := string([]rune{replacement, replacement})
	for strings.Contains(out, double) {
		out = strings.ReplaceAll(out, double, string(replacement))
	}

	name, ext := splitFilename(out)
	if reservedNames[strings.ToUpper(name)] {
		result.Changes = append(result.Changes, SanitizeChange{
			Type:        "reserved_name",
			Original:    name,
			Replacement: name + "_file",
			Message:     "\"" + name + "\" is a reserved name on Windows",
		})
		out = name + "_file" + ext
	}

	name, ext = splitFilename(out)
	trimmed := strings.TrimRight(name, ". ")
	if trimmed != name {
		result.Changes = append(result.Changes, SanitizeChange{
			Type:        "trailing_fix",
			Original:    name[len(trimmed):],
			Replacement: "",
			Message:     "Removed trailing spaces/periods (invalid on Windows)",
		})
		out = trimmed + ext
	}
	if full := strings.TrimRight(out, ". "); full != out {
		result.Changes = append(result.Changes, SanitizeChange{
			Type:        "trailing_fix",
			Original:    out[len(full):],
			Replacement: "",
			Message:     "Removed trailing spaces/periods (invalid on Windows)",
		})
		out = full
	}

	if len(out) > maxFilenameLength {
		out = truncateFilename(out, maxFilenameLength, &result.Changes)
	}

	result.Sanitized = out
	result.WasModified = out != filename
	return result
}

// truncateFilename shortens a name to fit, keeping the extension and
// marking the cut with an ellipsis.
func truncateFilename(filename string, maxLen int, changes *[]SanitizeChange) string {
	name, ext := splitFilename(filename)

	maxName := maxLen - len(ext)
	var out string
	if maxName < 1 {
		out = string([]rune(filename)[:maxLen])
	} else {
		const ellipsis = "..."
		available := maxName - len(ellipsis)
		if available > 0 {
			runes := []rune(name)
			if available > len(runes) {
				available = len(runes)
			}
			out = string(runes[:available]) + ellipsis + ext
		} else {
			out = string([]rune(name)[:maxName]) + ext
		}
	}

	*changes = append(*changes, SanitizeChange{
		Type:        "truncation",
		Original:    filename,
		Replacement: out,
		Message:     "Truncated to fit the filesystem name limit",
	})
	return out
}

func quoteRunes(runes []rune) string {
	parts := make([]string, len(runes))
	for i, r := range runes {
		parts[i] = "\"" + string(r) + "\""
	}
	return strings.Join(parts, ", ")
}
