package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/subtrackr/subtrackr/internal/recurrence"
)

type nextResult struct {
	Start       string `json:"start"`
	Period      string `json:"period"`
	Today       string `json:"today"`
	Next        string `json:"next"`
	DueTomorrow bool   `json:"due_tomorrow"`
}

func newNextCommand() *cobra.Command {
	var (
		start    string
		period   string
		today    string
		timezone string
	)

	cmd := &cobra.Command{
		Use:   "next",
		Short: "Print the next billing date of a start date and period",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			loc, err := time.LoadLocation(timezone)
			if err != nil {
				return fmt.Errorf("invalid timezone %q: %w", timezone, err)
			}

			now := time.Now()
			if today != "" {
				if now, err = recurrence.ParseDate(today, loc); err != nil {
					return err
				}
			}
			cal := recurrence.NewCalendar(now, loc)

			p, err := recurrence.ParsePeriod(period)
			if err != nil {
				return err
			}
			s, err := cal.ParseDate(start)
			if err != nil {
				return err
			}
			next, err := cal.NextOccurrence(s, p)
			if err != nil {
				return err
			}

			return printJSON(cmd.OutOrStdout(), nextResult{
				Start:       recurrence.FormatDate(s),
				Period:      p.String(),
				Today:       recurrence.FormatDate(cal.Today()),
				Next:        recurrence.FormatDate(next),
				DueTomorrow: cal.DueTomorrow(next),
			})
		},
	}

	cmd.Flags().StringVar(&start, "start", "", "first billing date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&period, "period", "", "billing period (daily, weekly, bi-weekly, monthly, quarterly, yearly)")
	cmd.Flags().StringVar(&today, "today", "", "reference day instead of the current date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&timezone, "timezone", "UTC", "reference timezone (IANA name)")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("period")

	return cmd
}
