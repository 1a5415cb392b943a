package main

import (
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ManuGH/flowcatalyst/client"
	"github.com/ManuGH/flowcatalyst/model"
)

// statusReport summarises the platform's resources.
type statusReport struct {
	BaseURL       string         `json:"base_url"`
	EventTypes    int            `json:"event_types"`
	Subscriptions map[string]int `json:"subscriptions"`
	DispatchJobs  map[string]int `json:"dispatch_jobs"`
	Elapsed       string         `json:"elapsed"`
}

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Summarise event types, subscriptions and dispatch jobs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withClient(func(c *client.Client) error {
				report, err := collectStatus(cmd, c)
				if err != nil {
					return err
				}
				return render(cmd.OutOrStdout(), a.output, report)
			})
		},
	}
}

// collectStatus fetches the three lists concurrently. The first failure
// cancels the other calls.
func collectStatus(cmd *cobra.Command, c *client.Client) (statusReport, error) {
	start := time.Now()
	g, ctx := errgroup.WithContext(cmd.Context())

	var (
		eventTypes    []model.EventType
		subscriptions []model.Subscription
		jobs          []model.DispatchJob
	)
	g.Go(func() (err error) {
		eventTypes, err = c.ListEventTypes(ctx)
		return err
	})
	g.Go(func() (err error) {
		subscriptions, err = c.ListSubscriptions(ctx)
		return err
	})
	g.Go(func() (err error) {
		jobs, err = c.ListDispatchJobs(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return statusReport{}, err
	}

	report := statusReport{
		BaseURL:       c.BaseURL(),
		EventTypes:    len(eventTypes),
		Subscriptions: make(map[string]int, len(model.SubscriptionStatuses)),
		DispatchJobs:  make(map[string]int, len(model.DispatchJobStatuses)),
		Elapsed:       time.Since(start).Round(time.Millisecond).String(),
	}
	for _, s := range model.SubscriptionStatuses {
		report.Subscriptions[string(s)] = 0
	}
	for _, s := range model.DispatchJobStatuses {
		report.DispatchJobs[string(s)] = 0
	}
	for _, s := range subscriptions {
		report.Subscriptions[string(s.Status)]++
	}
	for _, j := range jobs {
		report.DispatchJobs[string(j.Status)]++
	}
	return report, nil
}
