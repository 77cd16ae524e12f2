// Command tagmarkctl administers a Tagmark data directory: it creates
// accounts, moves bookmarks in and out, and rebuilds the search index.
package main

func main() {
	Execute()
}
