// Command heapctl exercises the collector from the command line: it prints
// the memory layout, runs allocation stress loops and replays the reference
// collection scenarios.
package main

func main() {
	execute()
}
