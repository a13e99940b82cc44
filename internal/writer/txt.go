package writer

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

func WriteTXT(t Transcript, outPath string) error {
	chs := t.narrated()
	if len(chs) == 0 {
		return fmt.Errorf("WriteTXT: no chapters provided")
	}
	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	fmt.Fprintf(w, "%s\n%s\n", t.Title, t.Author)
	for _, ch := range chs {
		fmt.Fprintf(w, "\n[%d] %s\n", ch.Index, ch.Title())
		if _, err := w.WriteString(strings.TrimRight(ch.Text, "\n") + "\n"); err != nil {
			return err
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return f.Close()
}
