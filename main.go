package main

import "github.com/oceandata/cmip6qc/cmd"

func main() {
	cmd.Execute()
}
