package cli

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dmitrijs2005/bodykeeper/internal/client/bodyfat"
	"github.com/dmitrijs2005/bodykeeper/internal/client/models"
	"github.com/dmitrijs2005/bodykeeper/internal/client/services"
)

const (
	timeLayout = "2006-01-02 15:04"
	shortIDLen = 8
)

func shortID(id string) string {
	if len(id) <= shortIDLen {
		return id
	}
	return id[:shortIDLen]
}

func localTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "never"
	}
	return t.Local().Format(timeLayout)
}

func syncMark(m models.Measurement) string {
	if m.IsSynced() {
		return "synced"
	}
	return "pending"
}

func printList(w io.Writer, list []models.Measurement) {
	if len(list) == 0 {
		fmt.Fprintln(w, "No measurements yet, add one with 'add'")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tMEASURED\tFORMULA\tBODY FAT\tCLASS\tPHOTO\tSYNC")
	for _, m := range list {
		photo := ""
		if m.HasPhoto {
			photo = "yes"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.1f%%\t%s\t%s\t%s\n",
			shortID(m.ClientID), localTime(&m.MeasuredAt), m.Formula,
			m.Results.BodyFatPercentage, m.Classification, photo, syncMark(m))
	}
	_ = tw.Flush()
}

func printDetails(w io.Writer, m models.Measurement) {
	fmt.Fprintf(w, "ID:          %s\n", m.ClientID)
	fmt.Fprintf(w, "Measured:    %s\n", localTime(&m.MeasuredAt))
	fmt.Fprintf(w, "Formula:     %s (%s, %s)\n", m.Formula, m.Gender, m.System)

	keys := make([]string, 0, len(m.Inputs))
	for k := range m.Inputs {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "  %-10s %g %s\n", k+":", m.Inputs[k], units[m.System][k])
	}

	fmt.Fprintf(w, "Body fat:    %.1f%% (%s)\n", m.Results.BodyFatPercentage, m.Classification)
	if m.Results.FatMass > 0 {
		fmt.Fprintf(w, "Fat mass:    %.1f %s\n", m.Results.FatMass, units[m.System][bodyfat.Weight])
		fmt.Fprintf(w, "Lean mass:   %.1f %s\n", m.Results.LeanMass, units[m.System][bodyfat.Weight])
	}
	if m.HasPhoto {
		fmt.Fprintf(w, "Photo:       %s\n", m.PhotoURI)
	}
	fmt.Fprintf(w, "Sync:        %s\n", syncMark(m))
}

func printResult(w io.Writer, r models.SyncResult) {
	fmt.Fprintln(w, r.String())
	if r.PhotosUploaded+r.PhotosDownloaded > 0 {
		fmt.Fprintf(w, "photos: uploaded %d, downloaded %d\n", r.PhotosUploaded, r.PhotosDownloaded)
	}
	for _, e := range r.Errors {
		fmt.Fprintf(w, "  - %s\n", e)
	}
}

func printStatus(w io.Writer, st services.Status, mode Mode) {
	cloud := onOff(st.CloudSyncEnabled)
	if st.CloudSyncEnabled && mode != "" {
		cloud = fmt.Sprintf("%s (%s)", cloud, mode)
	}
	fmt.Fprintf(w, "Cloud sync:   %s\n", cloud)
	fmt.Fprintf(w, "Sync status:  %s\n", st.Sync)
	fmt.Fprintf(w, "Last synced:  %s\n", localTime(st.LastSyncedAt))
	fmt.Fprintf(w, "Measurements: %d (%d pending upload)\n", st.Active, st.Pending)
	if st.LastPass != nil {
		fmt.Fprintf(w, "Last pass:    %s\n", st.LastPass.String())
	}
}

func printHistory(w io.Writer, passes []models.SyncResult) {
	if len(passes) == 0 {
		fmt.Fprintln(w, "No sync passes recorded")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "STARTED\tDURATION\tRESULT")
	for _, p := range passes {
		started := p.StartedAt
		fmt.Fprintf(tw, "%s\t%s\t%s\n", localTime(&started),
			p.FinishedAt.Sub(p.StartedAt).Round(time.Millisecond), p.String())
		for _, e := range p.Errors {
			fmt.Fprintf(tw, "\t\t  %s\n", strings.TrimSpace(e))
		}
	}
	_ = tw.Flush()
}
