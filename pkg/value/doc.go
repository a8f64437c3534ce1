/*
Package value is a small script-value object model built on the collector.

It gives cell payloads a meaning so the heap can trace, finalize and name
them, and it is what the heapctl tool and the integration tests drive.

# Values

A Value is one machine word. Small integers are immediates, encoded as
n<<1|1, and never touch the heap. Every other value is the address of a cell:

  - numbers live in the number arena,
  - strings, objects and global objects live in the primary arena.

# Strings

Strings whose runes all fit in Latin-1 are stored one byte per character;
the rest are stored as UTF-16LE code units. Short strings are stored inline
in their cell. Longer strings keep their bytes outside the heap and report
the size with ReportExtraMemoryCost, so holding many large strings makes
collection happen sooner.

# Usage

	rt, err := value.New(heap.Options{})
	if err != nil {
	    return err
	}
	defer rt.Close()

	s, err := rt.NewString("hello")
	if err != nil {
	    return err
	}
	rt.Heap().Protect(uintptr(s))
*/
package value
