package main

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"stitchcast/internal/config"
	"stitchcast/internal/ipc"
)

// commandContext is shared by every subcommand; flags are bound to the
// pointed-to strings and read lazily after cobra parses them.
type commandContext struct {
	socketFlag *string
	configFlag *string

	load   sync.Once
	cfg    *config.Config
	cfgErr error
}

func newCommandContext(socketFlag, configFlag *string) *commandContext {
	return &commandContext{socketFlag: socketFlag, configFlag: configFlag}
}

func flagValue(p *string) string {
	if p == nil {
		return ""
	}
	return strings.TrimSpace(*p)
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.load.Do(func() {
		c.cfg, _, _, c.cfgErr = config.Load(flagValue(c.configFlag))
	})
	return c.cfg, c.cfgErr
}

// socketPath prefers --socket, then the loaded config, then the built-in default.
func (c *commandContext) socketPath() string {
	if socket := flagValue(c.socketFlag); socket != "" {
		return socket
	}
	if cfg, err := c.ensureConfig(); err == nil && cfg != nil {
		return cfg.ControlSocketPath()
	}
	def := config.Default()
	if path, err := config.ExpandPath(def.ControlSocketPath()); err == nil {
		return path
	}
	return def.ControlSocketPath()
}

func (c *commandContext) withClient(fn func(*ipc.Client) error) error {
	socket := c.socketPath()
	client, err := ipc.Dial(socket)
	if err != nil {
		return wrapDialError(err, socket)
	}
	defer client.Close()
	return fn(client)
}

func wrapDialError(err error, socket string) error {
	if errors.Is(err, syscall.ENOENT) || errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("connect to runtime: no socket at %s; is `stitchcast run` active?", socket)
	}
	if errors.Is(err, syscall.ECONNREFUSED) {
		return fmt.Errorf("connect to runtime: %s refused the connection; the runtime may have exited", socket)
	}
	return fmt.Errorf("connect to runtime: %w", err)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for ; cmd != nil; cmd = cmd.Parent() {
		if cmd.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
