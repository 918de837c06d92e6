// Command kerneld is the single binary for the kernel, forward proxy,
// dictionary lookup and global hotkey engine: "kerneld run" boots the
// kernel, "kerneld dict lookup" is a one-shot MDX lookup, and
// "kerneld geosite" edits a persisted geosite overlay.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
