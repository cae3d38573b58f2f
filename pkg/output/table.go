package output

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/shaarpec/shaarpec-go/pkg/task"
)

// WriteTaskTable renders one or more task snapshots as a table.
func WriteTaskTable(w io.Writer, snapshots ...task.Snapshot) {
	tw := tabwriter.NewWriter(w, 2, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "SERVICE\tTASK_ID\tSUBMITTED\tSTATUS\tPROGRESS\tSUCCESS")
	for _, s := range snapshots {
		progress := "-"
		if s.Progress != nil {
			progress = fmt.Sprintf("%d%%", int(*s.Progress*100))
		}
		success := "-"
		if s.Success != nil {
			success = fmt.Sprintf("%t", *s.Success)
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			s.Service, s.TaskID, s.SubmittedAt, string(s.Status), progress, success)
	}
	_ = tw.Flush()
}
