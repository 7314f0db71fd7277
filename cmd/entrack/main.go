// Package main is the entry point for entrack.
package main

func main() {
	Execute()
}
