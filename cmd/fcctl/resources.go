package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ManuGH/flowcatalyst/client"
	"github.com/ManuGH/flowcatalyst/model"
)

func newEventTypesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "event-types",
		Aliases: []string{"event-type", "et"},
		Short:   "List, fetch and register event types",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List event types",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withClient(func(c *client.Client) error {
				items, err := c.ListEventTypes(cmd.Context())
				if err != nil {
					return err
				}
				return render(cmd.OutOrStdout(), a.output, items)
			})
		},
	}

	get := &cobra.Command{
		Use:   "get ID",
		Short: "Fetch one event type",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withClient(func(c *client.Client) error {
				item, err := c.GetEventType(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return render(cmd.OutOrStdout(), a.output, item)
			})
		},
	}

	var name, ver, schema string
	create := &cobra.Command{
		Use:   "create",
		Short: "Register an event type",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			req := client.CreateEventTypeRequest{Name: name, Version: ver}
			if schema != "" {
				if err := json.Unmarshal([]byte(schema), &req.Schema); err != nil {
					return fmt.Errorf("--schema must be a JSON object: %w", err)
				}
			}
			return a.withClient(func(c *client.Client) error {
				item, err := c.CreateEventType(cmd.Context(), req)
				if err != nil {
					return err
				}
				return render(cmd.OutOrStdout(), a.output, item)
			})
		},
	}
	create.Flags().StringVar(&name, "name", "", "event type name, e.g. order.created")
	create.Flags().StringVar(&ver, "version", "", "schema version, e.g. 1.0")
	create.Flags().StringVar(&schema, "schema", "", "JSON schema object")
	_ = create.MarkFlagRequired("name")
	_ = create.MarkFlagRequired("version")

	cmd.AddCommand(list, get, create)
	return cmd
}

func newSubscriptionsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "subscriptions",
		Aliases: []string{"subscription", "sub"},
		Short:   "List, fetch and create subscriptions",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List subscriptions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withClient(func(c *client.Client) error {
				items, err := c.ListSubscriptions(cmd.Context())
				if err != nil {
					return err
				}
				return render(cmd.OutOrStdout(), a.output, items)
			})
		},
	}

	get := &cobra.Command{
		Use:   "get ID",
		Short: "Fetch one subscription",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withClient(func(c *client.Client) error {
				item, err := c.GetSubscription(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return render(cmd.OutOrStdout(), a.output, item)
			})
		},
	}

	var eventTypeID, endpoint, status string
	create := &cobra.Command{
		Use:   "create",
		Short: "Subscribe an endpoint to an event type",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			req := client.CreateSubscriptionRequest{
				EventTypeID: eventTypeID,
				Endpoint:    endpoint,
				Status:      model.SubscriptionStatus(status),
			}
			return a.withClient(func(c *client.Client) error {
				item, err := c.CreateSubscription(cmd.Context(), req)
				if err != nil {
					return err
				}
				return render(cmd.OutOrStdout(), a.output, item)
			})
		},
	}
	create.Flags().StringVar(&eventTypeID, "event-type", "", "event type id")
	create.Flags().StringVar(&endpoint, "endpoint", "", "delivery URL")
	create.Flags().StringVar(&status, "status", string(model.SubscriptionActive), "initial status: active, paused or failed")
	_ = create.MarkFlagRequired("event-type")
	_ = create.MarkFlagRequired("endpoint")

	cmd.AddCommand(list, get, create)
	return cmd
}

func newDispatchJobsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "dispatch-jobs",
		Aliases: []string{"dispatch-job", "jobs"},
		Short:   "Inspect dispatch jobs",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List dispatch jobs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withClient(func(c *client.Client) error {
				items, err := c.ListDispatchJobs(cmd.Context())
				if err != nil {
					return err
				}
				return render(cmd.OutOrStdout(), a.output, items)
			})
		},
	}

	get := &cobra.Command{
		Use:   "get ID",
		Short: "Fetch one dispatch job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withClient(func(c *client.Client) error {
				item, err := c.GetDispatchJob(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return render(cmd.OutOrStdout(), a.output, item)
			})
		},
	}

	cmd.AddCommand(list, get)
	return cmd
}
