// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package batch

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/pdiddy/propagate/pkg/types"
)

// maxResultLine bounds one line of a results file. Answers to long orders
// run to several hundred kilobytes.
const maxResultLine = 64 << 20

// ResultLine is one decoded line of a results file.
type ResultLine struct {
	// Line is the 1-based line number in the file.
	Line     int
	CustomID string
	Type     types.ResultType

	// Text is the answer text of a succeeded request.
	Text string

	// Error is the remote error payload of an errored request.
	Error string

	// Err is set when the line could not be decoded.
	Err error
}

type resultRecord struct {
	CustomID string `json:"custom_id"`
	Result   struct {
		Type    string `json:"type"`
		Message *struct {
			Content []struct {
				Type string `json:"type"`
				Text string `json:"text"`
			} `json:"content"`
		} `json:"message"`
		Error json.RawMessage `json:"error"`
	} `json:"result"`
}

// ReadResults decodes a line-delimited results stream. Blank lines are
// skipped. A line that does not decode is returned with Err set rather than
// failing the whole read.
func ReadResults(r io.Reader) ([]ResultLine, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxResultLine)

	var lines []ResultLine
	n := 0
	for scanner.Scan() {
		n++
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}
		lines = append(lines, decodeResult(n, raw))
	}
	if err := scanner.Err(); err != nil {
		return lines, fmt.Errorf("reading results: %w", err)
	}
	return lines, nil
}

func decodeResult(n int, raw []byte) ResultLine {
	var rec resultRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return ResultLine{Line: n, Err: fmt.Errorf("line %d: %w", n, err)}
	}
	line := ResultLine{Line: n, CustomID: rec.CustomID, Type: types.ResultType(rec.Result.Type)}
	if line.CustomID == "" {
		line.Err = fmt.Errorf("line %d: missing custom_id", n)
		return line
	}

	// A result with a message and no type is a success.
	if line.Type == "" && rec.Result.Message != nil {
		line.Type = types.ResultSucceeded
	}

	switch line.Type {
	case types.ResultSucceeded:
		if rec.Result.Message == nil {
			line.Err = fmt.Errorf("line %d: succeeded result without message", n)
			return line
		}
		var text strings.Builder
		for _, block := range rec.Result.Message.Content {
			if block.Type == "" || block.Type == "text" {
				text.WriteString(block.Text)
			}
		}
		line.Text = text.String()
	case types.ResultErrored, types.ResultCanceled, types.ResultExpired:
		if len(rec.Result.Error) > 0 {
			var compact bytes.Buffer
			if err := json.Compact(&compact, rec.Result.Error); err == nil {
				line.Error = compact.String()
			} else {
				line.Error = string(rec.Result.Error)
			}
		}
	default:
		line.Err = fmt.Errorf("line %d: unknown result type %q", n, line.Type)
	}
	return line
}
