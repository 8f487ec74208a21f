package main

import "github.com/fragmede/threadgrab/cmd"

func main() {
	cmd.Execute()
}
