package main

import "github.com/wwtest625/scoop-ui/internal/cli"

func main() {
	cli.Execute()
}
