package main

import "github.com/ronospace/flowiq/internal/cmd"

func main() {
	cmd.Execute()
}
