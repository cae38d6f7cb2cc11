package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
)

// textRecognizer reads one utterance per line from standard input.
type textRecognizer struct {
	scanner *bufio.Scanner
}

func newTextRecognizer() *textRecognizer {
	return &textRecognizer{scanner: bufio.NewScanner(os.Stdin)}
}

func (r *textRecognizer) Listen(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	fmt.Print(userStyle.Render("> "))
	if !r.scanner.Scan() {
		if err := r.scanner.Err(); err != nil {
			return "", fmt.Errorf("failed to read input: %w", err)
		}
		return "", io.EOF
	}
	return strings.TrimSpace(r.scanner.Text()), nil
}

// textSynthesizer renders responses to the transcript instead of speaking them.
type textSynthesizer struct{}

func (textSynthesizer) Speak(_ context.Context, text string) error {
	printAssistant(text)
	return nil
}
