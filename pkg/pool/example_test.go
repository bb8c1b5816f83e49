package pool

import (
	"bytes"
	"fmt"
)

func ExamplePool_buffers() {
	// Create a pool of scrape buffers
	p := New(func() *bytes.Buffer {
		return new(bytes.Buffer)
	})

	buf := p.Get()
	buf.WriteString("# TYPE jobs_total counter\n")
	fmt.Printf("Before Put: %d bytes\n", buf.Len())

	// Put buffer back to pool (Reset is called automatically)
	p.Put(buf)

	buf = p.Get()
	fmt.Printf("After Get: %d bytes\n", buf.Len())

	// Output: Before Put: 26 bytes
	// After Get: 0 bytes
}

func ExampleWithKeep() {
	// Drop buffers that grew past 64KiB instead of pooling them
	p := New(func() *bytes.Buffer {
		return new(bytes.Buffer)
	}, WithKeep(func(b *bytes.Buffer) bool {
		return b.Cap() <= 64<<10
	}))

	big := bytes.NewBuffer(make([]byte, 0, 1<<20))
	big.WriteString("large scrape")
	p.Put(big)

	fmt.Println(big.String())

	// Output: large scrape
}
