package client

import (
	"context"
	"net/http"

	"github.com/ManuGH/flowcatalyst/model"
)

const resourceDispatchJobs = "dispatch-jobs"

// ListDispatchJobs returns every dispatch job in server order. Jobs are
// created by the platform; there is no create call.
func (c *Client) ListDispatchJobs(ctx context.Context) ([]model.DispatchJob, error) {
	var out []model.DispatchJob
	err := c.run(ctx, call{
		operation: "list_dispatch_jobs",
		resource:  resourceDispatchJobs,
		record:    "DispatchJob",
		method:    http.MethodGet,
		path:      "/api/" + resourceDispatchJobs,
	}, func(body []byte) (err error) {
		out, err = model.DecodeDispatchJobs(body)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetDispatchJob fetches one dispatch job.
func (c *Client) GetDispatchJob(ctx context.Context, id string) (*model.DispatchJob, error) {
	var out model.DispatchJob
	err := c.run(ctx, call{
		operation: "get_dispatch_job",
		resource:  resourceDispatchJobs,
		record:    "DispatchJob",
		method:    http.MethodGet,
		path:      itemPath(resourceDispatchJobs, id),
		id:        id,
	}, func(body []byte) (err error) {
		out, err = model.DecodeDispatchJob(body)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}
