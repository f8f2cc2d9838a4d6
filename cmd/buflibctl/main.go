// Command buflibctl exercises the buflib pool allocator from the command line.
package main

func main() {
	execute()
}
