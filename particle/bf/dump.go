package bf

import (
	"bufio"
	"fmt"
	"io"
	"os"
)

// Dump writes filter particles to w, one particle per line as "x y theta".
func (b *BF) Dump(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for _, p := range b.set.Particles() {
		if _, err := fmt.Fprintf(bw, "%g %g %g\n", p.Pose.X, p.Pose.Y, p.Pose.Theta); err != nil {
			return err
		}
	}

	return bw.Flush()
}

// DumpFile appends filter particles to file at path creating it if needed.
func (b *BF) DumpFile(path string) (err error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open dump file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	return b.Dump(f)
}
