// Command wpctl publishes markdown notes to WordPress.
package main

func main() {
	Execute()
}
