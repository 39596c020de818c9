package ui

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/javiermolinar/orga/internal/event"
	"github.com/javiermolinar/orga/internal/ics"
	"github.com/javiermolinar/orga/internal/summary"
)

func (a *App) weekCmd() *cobra.Command {
	var offset int

	cmd := &cobra.Command{
		Use:   "week",
		Short: "Print the week schedule",
		Long: `Print the scheduled interventions of a week, the "À programmer" tray
and the totals.

Example:
  orga week
  orga week --offset=1    # next week`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			repo, err := a.backend()
			if err != nil {
				return err
			}
			ctx, cancel := cliContext()
			defer cancel()

			w, err := summary.BuildWeekSummary(ctx, repo, summary.BuildWeekSummaryOptions{
				WeekOffset: offset,
				Now:        a.now(),
				Scheduler:  a.scheduler(),
			})
			if err != nil {
				return err
			}
			printWeek(a.out, w, termWidth())
			return nil
		},
	}

	cmd.Flags().IntVar(&offset, "offset", 0, "Week offset from the current week")
	return cmd
}

func (a *App) exportCmd() *cobra.Command {
	var (
		offset int
		output string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the week as an iCalendar file",
		Long: `Export the scheduled interventions of a week in iCalendar format.
Interventions still in the tray are not exported.

Example:
  orga export > semaine.ics
  orga export --offset=1 --output=semaine-prochaine.ics`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) (err error) {
			repo, err := a.backend()
			if err != nil {
				return err
			}
			ctx, cancel := cliContext()
			defer cancel()

			days := event.ComputeWeekDays(offset, a.now())
			events, err := repo.ListEvents(ctx, event.Filter{Start: days[0].Date, End: days[6].Date})
			if err != nil {
				return fmt.Errorf("fetching events: %w", err)
			}

			out := a.out
			if output != "" {
				f, ferr := os.Create(output)
				if ferr != nil {
					return fmt.Errorf("creating %s: %w", output, ferr)
				}
				defer func() {
					if cerr := f.Close(); cerr != nil && err == nil {
						err = cerr
					}
				}()
				out = f
			}

			if err := ics.ExportWeek(out, days, events, ics.Options{Now: a.now}); err != nil {
				return err
			}
			if output != "" {
				a.logger.Info("week exported", "file", output, "events", len(events))
				fmt.Fprintf(a.out, "Exporté vers %s\n", output)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&offset, "offset", 0, "Week offset from the current week")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file, stdout when empty")
	return cmd
}
