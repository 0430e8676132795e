package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// PasswordSource supplies a password chosen by the operator. A nil source makes the
// commands generate a temporary password instead.
type PasswordSource func() (string, error)

// TerminalPassword asks for a password twice on stdin without echoing it.
func TerminalPassword(stdin *os.File, out io.Writer) PasswordSource {
	return func() (string, error) {
		if stdin == nil {
			return "", errors.New("stdin unavailable")
		}
		reader := bufio.NewReader(stdin)

		first, err := promptHidden(stdin, reader, out, "New password: ")
		if err != nil {
			return "", err
		}
		second, err := promptHidden(stdin, reader, out, "Repeat password: ")
		if err != nil {
			return "", err
		}

		if first != second {
			return "", errors.New("passwords do not match")
		}
		return strings.TrimSpace(first), nil
	}
}

func promptHidden(stdin *os.File, reader *bufio.Reader, out io.Writer, label string) (string, error) {
	fmt.Fprint(out, label)
	defer fmt.Fprintln(out)

	restore, err := disableEcho(stdin)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	defer restore()

	return readLine(reader)
}

func readLine(reader *bufio.Reader) (string, error) {
	line, err := reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	if line == "" && errors.Is(err, io.EOF) {
		return "", errors.New("read password: no input")
	}
	return strings.TrimRight(line, "\r\n"), nil
}
