package ai

import (
	"context"
	"errors"
	"io"
	"iter"

	"github.com/leofalp/sitesummarizer/internal/utils"
)

// Events yields SSE payloads read from body in arrival order. The sequence
// ends at a clean end of stream; a read failure or a cancelled ctx is yielded
// once as the error and ends it. Breaking out of the loop stops reading.
//
// Events does not close body.
func Events(ctx context.Context, body io.Reader) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		reader := utils.NewSSEReader(body)
		for {
			if err := ctx.Err(); err != nil {
				yield("", err)
				return
			}

			payload, err := reader.Next()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				// a cancelled request surfaces as a read error; report the cause
				if ctxErr := ctx.Err(); ctxErr != nil {
					err = ctxErr
				}
				yield("", err)
				return
			}

			if !yield(payload, nil) {
				return
			}
		}
	}
}
