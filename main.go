package main

import (
	"github.com/dszqbsm/volby/cmd"
)

func main() {
	cmd.Execute()
}
