// Command noteboard serves a live force-directed board of meeting notes.
package main

func main() {
	Execute()
}
