package mcp

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// WatchParent watches for parent process death in a background goroutine.
// When the parent PID changes (the agent host disconnected or restarted),
// it calls cancelFn to trigger graceful shutdown. This prevents zombie
// MCP server processes from accumulating on developer machines.
//
// This must NOT read from stdin: the SDK's stdio transport owns stdin
// exclusively, and stealing bytes from it corrupts the JSON-RPC stream.
//
// The goroutine exits when ctx is canceled or parent death is detected.
func WatchParent(ctx context.Context, logger *slog.Logger, cancelFn context.CancelFunc) {
	ppid := os.Getppid()
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-time.After(2 * time.Second):
				if os.Getppid() != ppid {
					logger.Warn("parent process died, shutting down", "was_pid", ppid)
					cancelFn()
					return
				}
			}
		}
	}()
}
