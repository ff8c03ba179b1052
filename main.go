package main

import "github.com/nsxzhou1114/folio-api/cmd"

func main() {
	cmd.Execute()
}
