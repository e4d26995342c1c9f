package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// DefaultCLIPath is the client binary looked up on PATH when none is configured.
const DefaultCLIPath = "btfs"

// CLIClient implements ContentStore by running the btfs command-line client.
// Blobs go over stdin and stdout; nothing touches the local filesystem.
type CLIClient struct {
	// Path is the client binary. Empty uses DefaultCLIPath.
	Path string

	// Env, if non-nil, replaces the child process environment.
	Env []string

	// MaxOutput caps the bytes read from the client's stdout. Zero means
	// MaxContentResponseSize.
	MaxOutput int64
}

// Compile-time interface check.
var _ ContentStore = (*CLIClient)(nil)

// NewCLIClient creates a CLI client that runs the binary at path.
func NewCLIClient(path string) *CLIClient {
	return &CLIClient{Path: path}
}

// Put runs `btfs add -Q` with data on stdin and returns the printed CID.
func (c *CLIClient) Put(ctx context.Context, data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrEmptyContent
	}
	out, err := c.run(ctx, data, "add", "-Q")
	if err != nil {
		return "", err
	}
	id := strings.TrimSpace(string(out))
	if id == "" {
		return "", fmt.Errorf("%w: add printed no CID", ErrInvalidResponse)
	}
	if _, err := ValidateCID(id); err != nil {
		return "", fmt.Errorf("%w: add: %w", ErrInvalidResponse, err)
	}
	return id, nil
}

// Get runs `btfs cat <cid>` and returns its stdout.
func (c *CLIClient) Get(ctx context.Context, cidStr string) ([]byte, error) {
	parsed, err := ValidateCID(cidStr)
	if err != nil {
		return nil, err
	}
	out, err := c.run(ctx, nil, "cat", cidStr)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: cat %s: empty output", ErrInvalidResponse, cidStr)
	}
	if err := verifyContent(parsed, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *CLIClient) run(ctx context.Context, stdin []byte, args ...string) ([]byte, error) {
	path := c.Path
	if path == "" {
		path = DefaultCLIPath
	}

	cmd := exec.CommandContext(ctx, path, args...)
	if c.Env != nil {
		cmd.Env = c.Env
	}
	if stdin != nil {
		cmd.Stdin = bytes.NewReader(stdin)
	}
	limit := c.MaxOutput
	if limit <= 0 {
		limit = MaxContentResponseSize
	}
	stdout := &cappedBuffer{max: limit}
	var stderr bytes.Buffer
	cmd.Stdout = stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if stdout.over {
		return nil, fmt.Errorf("%w: %s", ErrContentTooLarge, args[0])
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrStorageUnavailable, args[0], ctxErr)
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			msg := strings.TrimSpace(stderr.String())
			if msg == "" {
				msg = exitErr.Error()
			}
			return nil, fmt.Errorf("%s: %w", args[0], classifyMessage(msg))
		}
		// The process never started.
		return nil, fmt.Errorf("%w: %s: %w", ErrStorageUnavailable, args[0], err)
	}
	return stdout.buf.Bytes(), nil
}

// cappedBuffer fails writes past max bytes, which closes the child's stdout.
type cappedBuffer struct {
	buf  bytes.Buffer
	max  int64
	over bool
}

func (b *cappedBuffer) Write(p []byte) (int, error) {
	if int64(b.buf.Len())+int64(len(p)) > b.max {
		b.over = true
		return 0, ErrContentTooLarge
	}
	return b.buf.Write(p)
}
