package main

import "github.com/RageBober/mcp-gpt-oss/internal/cli"

func main() {
	cli.Execute()
}
