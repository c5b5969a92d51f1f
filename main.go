package main

import "github.com/frahmantamala/identity-service/cmd"

func main() {
	cmd.Execute()
}
