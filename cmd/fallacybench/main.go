// fallacybench exercises the fallible containers against the library's
// allocators and reports allocation traffic.
package main

func main() {
	execute()
}
