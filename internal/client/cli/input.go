package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/term"
)

// isTerminal is a test seam for term.IsTerminal.
var isTerminal = term.IsTerminal

// interactive reports whether stdin is a terminal. Prompts and the welcome
// banner are only printed for a human on the other end.
func interactive() bool {
	return isTerminal(int(os.Stdin.Fd()))
}

// GetSimpleText prints a prompt to w and reads a single line of input from reader.
// The trailing newline is trimmed. If EOF occurs after some input was read,
// the partial line is returned.
//
// Example prompt format:
//
//	Prompt text
//	> _
func GetSimpleText(reader *bufio.Reader, prompt string, w io.Writer) (string, error) {
	if _, err := fmt.Fprint(w, prompt+"\n> "); err != nil {
		return "", err
	}
	line, err := reader.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && len(line) > 0 {
			return strings.TrimSpace(line), nil
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// GetChoice asks for one of options. An empty answer selects def when def
// is not empty. The answer is matched case-insensitively.
func GetChoice(reader *bufio.Reader, prompt string, w io.Writer, options []string, def string) (string, error) {
	label := fmt.Sprintf("%s (%s)", prompt, strings.Join(options, "/"))
	if def != "" {
		label += fmt.Sprintf(" [%s]", def)
	}

	answer, err := GetSimpleText(reader, label, w)
	if err != nil {
		return "", err
	}
	answer = strings.ToLower(answer)
	if answer == "" && def != "" {
		return def, nil
	}
	if !slices.Contains(options, answer) {
		return "", fmt.Errorf("unexpected answer %q, want one of %s", answer, strings.Join(options, ", "))
	}
	return answer, nil
}

// GetPositiveFloat asks for a number greater than zero. Both "." and ","
// are accepted as the decimal separator.
func GetPositiveFloat(reader *bufio.Reader, prompt string, w io.Writer) (float64, error) {
	answer, err := GetSimpleText(reader, prompt, w)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(answer, ",", "."), 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", answer)
	}
	if v <= 0 {
		return 0, fmt.Errorf("%s must be positive", prompt)
	}
	return v, nil
}
