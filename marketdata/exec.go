package marketdata

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"stock-lookup/models"
)

// Exec runs an external lookup program once per call. The ticker is passed as
// its own argv element:
//
//	<command> <args...> info <ticker>
//	<command> <args...> history <ticker> <period>
//
// The program prints a single JSON document on stdout: an object for info, an
// array of bars for history, or {"error": "..."} when the ticker is unknown.
// Missing values are JSON null.
type Exec struct {
	command string
	args    []string
	env     []string
	timeout time.Duration
	logger  *zap.Logger
}

func NewExec(command string, args []string, timeout time.Duration, logger *zap.Logger) *Exec {
	return &Exec{command: command, args: args, timeout: timeout, logger: logger}
}

// WithEnv returns a copy that adds env to the child's environment.
func (e *Exec) WithEnv(env ...string) *Exec {
	c := *e
	c.env = append(append([]string{}, e.env...), env...)
	return &c
}

func (e *Exec) Info(ctx context.Context, ticker string) (models.RawRecord, error) {
	out, err := e.run(ctx, "info", ticker)
	if err != nil {
		return nil, err
	}
	if msg, ok := errorPayload(out); ok {
		return nil, fmt.Errorf("%w: %s: %s", ErrNotFound, ticker, msg)
	}

	record := models.RawRecord{}
	if err := json.Unmarshal(out, &record); err != nil {
		e.logger.Warn("exec: invalid info payload", zap.String("ticker", ticker), zap.Error(err))
		return nil, upstreamError("invalid response format")
	}
	return record, nil
}

func (e *Exec) History(ctx context.Context, ticker string, period Period) ([]models.Bar, error) {
	out, err := e.run(ctx, "history", ticker, string(period))
	if err != nil {
		return nil, err
	}
	if msg, ok := errorPayload(out); ok {
		return nil, fmt.Errorf("%w: %s: %s", ErrNotFound, ticker, msg)
	}

	var bars []models.Bar
	if err := json.Unmarshal(out, &bars); err != nil {
		e.logger.Warn("exec: invalid history payload", zap.String("ticker", ticker), zap.Error(err))
		return nil, upstreamError("invalid response format")
	}
	return bars, nil
}

func (e *Exec) run(ctx context.Context, op string, params ...string) ([]byte, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	argv := make([]string, 0, len(e.args)+1+len(params))
	argv = append(argv, e.args...)
	argv = append(argv, op)
	argv = append(argv, params...)

	cmd := exec.CommandContext(ctx, e.command, argv...)
	if len(e.env) > 0 {
		cmd.Env = append(os.Environ(), e.env...)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	e.logger.Debug("exec: lookup finished",
		zap.String("op", op),
		zap.Strings("params", params),
		zap.Duration("took", time.Since(start)),
		zap.String("stderr", stderr.String()),
	)

	if err != nil {
		var exitErr *exec.ExitError
		switch {
		case ctx.Err() != nil:
			return nil, upstreamError("%s %s: %v", op, strings.Join(params, " "), ctx.Err())
		case errors.As(err, &exitErr):
			diag := strings.TrimSpace(stderr.String())
			if diag == "" {
				diag = "Failed to fetch stock data"
			}
			return nil, upstreamError("exit code %d: %s", exitErr.ExitCode(), diag)
		default:
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
	}
	return stdout.Bytes(), nil
}

// errorPayload reports whether out is an object carrying an "error" key.
func errorPayload(out []byte) (string, bool) {
	if !gjson.ValidBytes(out) {
		return "", false
	}
	doc := gjson.ParseBytes(out)
	if !doc.IsObject() {
		return "", false
	}
	msg := doc.Get("error")
	if !msg.Exists() {
		return "", false
	}
	return msg.String(), true
}
