package main

import "github.com/ckwahalathanthri/epic-green-erp-sub006/cmd/syncctl/cmd"

func main() {
	cmd.Execute()
}
