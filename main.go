package main

import "github.com/StinkyLord/cyclonedx-sbom/cmd"

func main() {
	cmd.Execute()
}
