package main

import "github.com/dh1tw/remoteCodec/cmd"

func main() {
	cmd.Execute()
}
