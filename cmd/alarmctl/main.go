package main

import "github.com/oshokin/alarm-controller/cmd/alarmctl/cmd"

func main() {
	cmd.Execute()
}
