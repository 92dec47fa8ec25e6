// Summaryd is a streaming text-summarization proxy.
//
// It accepts summarization requests over HTTP, streams the summary back as
// server-sent events, fails over between LLM providers, and keeps a durable
// record of every request with token usage and cost.
//
// Usage:
//
//	# Start server with default configuration
//	summaryd run
//
//	# Start with custom configuration file
//	summaryd run --config /path/to/config.yaml
//
//	# Show version information
//	summaryd version
package main

func main() {
	Execute()
}
