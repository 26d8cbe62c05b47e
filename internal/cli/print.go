package cli

import (
	"fmt"
	"io"

	ct "github.com/daviddengcn/go-colortext"
)

func PrintYellow(out io.Writer, content string) {
	ct.ChangeColor(ct.Yellow, false, ct.None, false)
	_, _ = fmt.Fprint(out, content)
	ct.ResetColor()
}

func PrintWarning(out io.Writer, content string) {
	ct.ChangeColor(ct.Red, false, ct.None, false)
	_, _ = fmt.Fprint(out, content)
	ct.ResetColor()
}

func PrintString(out io.Writer, content string) {
	ct.ChangeColor(ct.Green, false, ct.None, false)
	_, _ = fmt.Fprint(out, content)
	ct.ResetColor()
}
