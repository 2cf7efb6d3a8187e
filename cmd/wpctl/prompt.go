package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/bugparty/wpctl/internal/api"
	"github.com/bugparty/wpctl/internal/models"
)

// prompter reads answers from stdin. Prompts go to stderr so --json output
// stays clean.
type prompter struct {
	reader *bufio.Reader
}

func newPrompter() *prompter {
	return &prompter{reader: bufio.NewReader(os.Stdin)}
}

// line reads one line, returning fallback when the answer is empty
func (p *prompter) line(label, fallback string) (string, error) {
	if fallback != "" {
		fmt.Fprintf(os.Stderr, "%s [%s]: ", label, fallback)
	} else {
		fmt.Fprintf(os.Stderr, "%s: ", label)
	}

	answer, err := p.reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read %s: %w", strings.ToLower(label), err)
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return fallback, nil
	}
	return answer, nil
}

// secret reads a line without echo when stdin is a terminal
func (p *prompter) secret(label string) (string, error) {
	fmt.Fprintf(os.Stderr, "%s: ", label)

	if term.IsTerminal(int(os.Stdin.Fd())) {
		// TTY: Use password masking
		b, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(os.Stderr) // Print newline after password input
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", strings.ToLower(label), err)
		}
		return strings.TrimSpace(string(b)), nil
	}

	// Non-TTY: Fall back to regular reading (for piped input)
	answer, err := p.reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read %s: %w", strings.ToLower(label), err)
	}
	return strings.TrimSpace(answer), nil
}

// promptCredentials asks for whatever the profile does not have saved
func promptCredentials(profile models.Profile) (api.Credentials, error) {
	p := newPrompter()

	username := profile.Username
	if username == "" {
		var err error
		if username, err = p.line("Username", ""); err != nil {
			return api.Credentials{}, err
		}
	}
	password, err := p.secret(fmt.Sprintf("Password for %s", profile.Name))
	if err != nil {
		return api.Credentials{}, err
	}
	if username == "" || password == "" {
		return api.Credentials{}, fmt.Errorf("username and password are required")
	}
	return api.Credentials{Username: username, Password: password}, nil
}
