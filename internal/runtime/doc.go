// Package runtime provides the execution context for arkfeed commands.
//
// It encapsulates shared dependencies and configuration needed by commands,
// such as the job definition, the git runner, the logger, and the
// repository root path.
package runtime
