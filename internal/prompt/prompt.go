// Package prompt asks the operator for run parameters on the terminal.
package prompt

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"

	errs "postscraper/pkg/errors"
	"postscraper/pkg/logger"
)

var (
	// ErrNoInput is returned when input ends before a valid answer was given
	ErrNoInput = errors.New("no input")
	// ErrInterrupted is returned when the context ends while waiting for input
	ErrInterrupted = errors.New("prompt interrupted")
)

// Prompter reads answers line by line from in and writes questions to out
type Prompter struct {
	in     *bufio.Reader
	out    io.Writer
	logger logger.Logger
}

// New creates a Prompter
func New(in io.Reader, out io.Writer, log logger.Logger) *Prompter {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Prompter{
		in:     bufio.NewReader(in),
		out:    out,
		logger: log,
	}
}

// IsInteractive reports whether f is a terminal
func IsInteractive(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// PageCount asks for the number of pages to scrape until a positive integer
// is entered or ctx ends
func (p *Prompter) PageCount(ctx context.Context) (int, error) {
	for {
		fmt.Fprint(p.out, "Enter the number of pages you wish to scrape: ")

		line, err := p.readLine(ctx)
		if err != nil && line == "" {
			return 0, err
		}

		n, perr := ParsePageCount(line)
		if perr == nil {
			return n, nil
		}

		p.logger.DebugWithFields("Rejected page count", map[string]interface{}{
			"input": line,
		})
		fmt.Fprintln(p.out, "Invalid input. Please enter a positive integer.")
		if err != nil {
			return 0, err
		}
	}
}

// ParsePageCount validates a page count answer
func ParsePageCount(s string) (int, error) {
	s = strings.TrimSpace(s)
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, errs.NewInputError(s, "not an integer")
	}
	if n < 1 {
		return 0, errs.NewInputError(s, "must be a positive integer")
	}
	return n, nil
}

// ConfirmOverwrite asks whether existing output files may be replaced. Only
// y or yes, in any case, counts as consent.
func (p *Prompter) ConfirmOverwrite(ctx context.Context) (bool, error) {
	fmt.Fprint(p.out, "Files already exist. Do you want to overwrite them? (y/n): ")

	line, err := p.readLine(ctx)
	if err != nil && line == "" {
		return false, err
	}

	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

type lineResult struct {
	line string
	err  error
}

// readLine waits for the next line or for ctx to end. A read that is cut
// short by ctx is abandoned; the Prompter must not be used afterwards.
func (p *Prompter) readLine(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %w", ErrInterrupted, err)
	}

	ch := make(chan lineResult, 1)
	go func() {
		line, err := p.read()
		ch <- lineResult{line: line, err: err}
	}()

	select {
	case <-ctx.Done():
		fmt.Fprintln(p.out)
		return "", fmt.Errorf("%w: %w", ErrInterrupted, ctx.Err())
	case r := <-ch:
		return r.line, r.err
	}
}

// read returns the next line without its terminator. A final line without a
// newline is returned together with ErrNoInput.
func (p *Prompter) read() (string, error) {
	line, err := p.in.ReadString('\n')
	line = strings.TrimRight(line, "\r\n")
	if err != nil {
		if errors.Is(err, io.EOF) {
			return line, ErrNoInput
		}
		return line, fmt.Errorf("failed to read input: %w", err)
	}
	return line, nil
}
