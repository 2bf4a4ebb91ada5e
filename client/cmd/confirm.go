package cmd

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// terminalConfirmer asks yes/no questions on the terminal. It implements
// registry.Confirmer for certificate trust prompts.
type terminalConfirmer struct {
	assumeYes bool
	in        io.Reader
	out       io.Writer
}

func (c *terminalConfirmer) Confirm(message, detail string) bool {
	if c.assumeYes {
		return true
	}

	fmt.Fprintln(c.out, message)
	if detail != "" {
		fmt.Fprintln(c.out, detail)
	}
	fmt.Fprint(c.out, "Continue? [y/N]: ")

	line, err := bufio.NewReader(c.in).ReadString('\n')
	if err != nil {
		return false
	}

	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}
