package utils

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/chroma/v2/quick"
)

// RenderMarkdown prints markdown content to the terminal with syntax
// highlighting, checking for cancellation between lines so a long page
// can be interrupted.
func RenderMarkdown(ctx context.Context, content string, theme string) error {
	lines := strings.Split(content, "\n")

	insideCodeBlock := false
	language := "markdown"

	for _, line := range lines {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if strings.HasPrefix(line, "```") {
			insideCodeBlock = !insideCodeBlock
			if insideCodeBlock {
				if lang := strings.TrimPrefix(line, "```"); lang != "" {
					language = lang
				}
			} else {
				language = "markdown"
			}
			fmt.Println(line)
			continue
		}

		highlightLang := "markdown"
		if insideCodeBlock {
			highlightLang = language
		}

		var buf bytes.Buffer
		if err := quick.Highlight(&buf, line+"\n", highlightLang, "terminal256", theme); err != nil {
			// Unknown language or lexer failure: fall back to plain text.
			fmt.Println(line)
			continue
		}
		if _, err := os.Stdout.Write(buf.Bytes()); err != nil {
			return err
		}
	}

	return nil
}
