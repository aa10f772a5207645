// Package logging provides structured JSON logging with file rotation for
// forumsearch. CLI commands write JSON logs to ~/.forumsearch/logs/ and
// to stderr at info level; --debug lowers the level to debug for
// troubleshooting the worker pool and build orchestrators.
//
// serve-mcp logs to the file only (see SetupMCPMode), never to stderr.
package logging
