package webapi

import (
	"io"
	"net/http"
	"os"
	"sync"

	"github.com/apex/log"
	"github.com/driftkit/drift/pkg/clog"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// LogController adjusts driftd's logging at runtime: the process wide level and
// output, and the level of a single named logging context (for example
// "committer") without touching the rest of the daemon's output.
type LogController struct {
	mu      sync.Mutex
	level   log.Level
	output  string
	handler *clog.Handler
}

type loggingStatus struct {
	LogLevel  string `json:"log_level"`
	LogOutput string `json:"log_output"`
}

func NewLogController() *LogController {
	handler := clog.NewHandler(os.Stdout)
	log.SetHandler(handler)

	return &LogController{
		level:   log.InfoLevel,
		output:  "stdout",
		handler: handler,
	}
}

// SetLogging sets level and output together. When the output can't be switched
// the level is restored, so the call is all or nothing.
func (c *LogController) SetLogging(ctx echo.Context) error {
	var req struct {
		LogLevel  string `json:"log_level"`
		LogOutput string `json:"log_output"`
	}

	if err := ctx.Bind(&req); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	previousLevel := c.level
	if err := c.switchLevel(req.LogLevel); err != nil {
		return err
	}

	if err := c.switchOutput(req.LogOutput); err != nil {
		c.level = previousLevel
		log.SetLevel(previousLevel)
		clog.SetGlobalLoggerLevel(previousLevel)
		return err
	}

	return ctx.JSON(http.StatusOK, c.status())
}

// SetLogLevel sets the global level. When the request names a log_context only
// that context's logger is retargeted.
func (c *LogController) SetLogLevel(ctx echo.Context) error {
	var req struct {
		LogLevel   string `json:"log_level"`
		LogContext string `json:"log_context"`
	}

	if err := ctx.Bind(&req); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if req.LogContext != "" {
		if err := clog.SetLevelFromString(req.LogContext, req.LogLevel); err != nil {
			return errors.Wrapf(err, "Invalid log level %s for context %s", req.LogLevel, req.LogContext)
		}
		return ctx.JSON(http.StatusOK, c.status())
	}

	if err := c.switchLevel(req.LogLevel); err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, c.status())
}

func (c *LogController) SetLogOutput(ctx echo.Context) error {
	var req struct {
		LogOutput string `json:"log_output"`
	}

	if err := ctx.Bind(&req); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.switchOutput(req.LogOutput); err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, c.status())
}

func (c *LogController) ShowCurrentLogging(ctx echo.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return ctx.JSON(http.StatusOK, c.status())
}

func (c *LogController) status() loggingStatus {
	return loggingStatus{
		LogLevel:  c.level.String(),
		LogOutput: c.output,
	}
}

func (c *LogController) switchLevel(logLevel string) error {
	level, err := log.ParseLevel(logLevel)
	if err != nil {
		return errors.Wrapf(err, "Invalid log level %s", logLevel)
	}

	c.level = level
	log.SetLevel(level)
	clog.SetGlobalLoggerLevel(level)

	return nil
}

// switchOutput retargets the handler. "stdout" and "stderr" select the process
// streams; anything else is created as a file. The old handler is only closed
// once the new target is known good.
func (c *LogController) switchOutput(logOutput string) error {
	var w io.WriteCloser

	switch logOutput {
	case "stdout":
		w = os.Stdout
	case "stderr":
		w = os.Stderr
	default:
		f, err := os.Create(logOutput)
		if err != nil {
			return errors.Wrapf(err, "Failed to open log output %s", logOutput)
		}
		w = f
	}

	c.handler.Close()
	c.output = logOutput
	c.handler = clog.NewHandler(w)
	log.SetHandler(c.handler)

	return nil
}
