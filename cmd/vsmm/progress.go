package main

import (
	"fmt"
	"io"
	"path/filepath"

	"vsmm/internal/source/vsmoddb"

	"github.com/dustin/go-humanize"
)

// progressPrinter renders download progress on one line per archive
func progressPrinter(w io.Writer) vsmoddb.ProgressFunc {
	lastDest, lastPct := "", -1
	return func(p vsmoddb.DownloadProgress) {
		pct := int(p.Percentage)
		if p.Dest == lastDest && pct == lastPct && p.Downloaded != p.TotalBytes {
			return
		}
		lastDest, lastPct = p.Dest, pct

		name := truncate(filepath.Base(p.Dest), 40)
		if p.TotalBytes > 0 {
			fmt.Fprintf(w, "\r  Downloading %s  %s / %s (%d%%)", name,
				humanize.Bytes(uint64(p.Downloaded)), humanize.Bytes(uint64(p.TotalBytes)), pct)
		} else {
			fmt.Fprintf(w, "\r  Downloading %s  %s", name, humanize.Bytes(uint64(p.Downloaded)))
		}
		if p.TotalBytes > 0 && p.Downloaded >= p.TotalBytes {
			fmt.Fprintln(w)
		}
	}
}
