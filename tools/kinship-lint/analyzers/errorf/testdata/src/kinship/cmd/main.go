package main

import "fmt"

// Commands report errors with fmt.Errorf.
func run(name string) error {
	return fmt.Errorf("running %s", name)
}

func main() { _ = run("x") }
