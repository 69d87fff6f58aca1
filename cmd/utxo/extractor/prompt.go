package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

var errDirectoryCreate = errors.New("create directory")

// prompter asks for missing settings on an interactive terminal.
type prompter struct {
	in  *bufio.Reader
	out io.Writer
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	return &prompter{in: bufio.NewReader(in), out: out}
}

// askUntil repeats the question until accept takes the answer. Blank answers are asked again.
func (p *prompter) askUntil(ctx context.Context, question string, accept func(string) error) (string, error) {
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if _, err := fmt.Fprintf(p.out, "%s: ", question); err != nil {
			return "", err
		}
		line, err := p.in.ReadString('\n')
		answer := strings.TrimSpace(line)
		if err != nil && (!errors.Is(err, io.EOF) || answer == "") {
			if errors.Is(err, io.EOF) {
				return "", fmt.Errorf("no answer for %s: %w", question, io.ErrUnexpectedEOF)
			}
			return "", err
		}
		if answer == "" {
			continue
		}
		acceptErr := accept(answer)
		if acceptErr == nil {
			return answer, nil
		}
		if _, werr := fmt.Fprintf(p.out, "%v\n", acceptErr); werr != nil {
			return "", werr
		}
		if errors.Is(err, io.EOF) {
			return "", acceptErr
		}
	}
}

func ensureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w %s: %w", errDirectoryCreate, dir, err)
	}
	return nil
}
