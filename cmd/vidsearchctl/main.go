// Command vidsearchctl administers a vidsearch index directly against the
// configured store: bulk ingest, listing, deletion and vector search.
package main

func main() {
	Execute()
}
