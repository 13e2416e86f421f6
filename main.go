/*
Copyright © 2023 NAME HERE <EMAIL ADDRESS>
*/
package main

import "bridge/cmd"

func main() {
	cmd.Execute()
}
