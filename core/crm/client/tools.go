package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/koscakluka/ema-live/core/live"
)

const (
	CreateLeadTool       = "createLead"
	ScheduleVisitTool    = "scheduleVisit"
	UpdateLeadStatusTool = "updateLeadStatus"
)

type createLeadArgs struct {
	Name   string `json:"name" jsonschema:"description=Full name of the lead"`
	Phone  string `json:"phone" jsonschema:"description=Phone number of the lead"`
	City   string `json:"city" jsonschema:"description=City the lead is interested in"`
	Source string `json:"source,omitempty" jsonschema:"description=Where the lead came from (e.g. referral or website)"`
}

type scheduleVisitArgs struct {
	LeadID    string `json:"lead_id" jsonschema:"description=Identifier returned by createLead"`
	VisitTime string `json:"visit_time" jsonschema:"description=Visit date and time in ISO 8601 (e.g. 2025-10-22T15:00:00)"`
	Notes     string `json:"notes,omitempty" jsonschema:"description=Anything the visit team should know"`
}

type updateLeadStatusArgs struct {
	LeadID string `json:"lead_id" jsonschema:"description=Identifier returned by createLead"`
	Status string `json:"status" jsonschema:"description=New pipeline status,enum=NEW,enum=IN_PROGRESS,enum=FOLLOW_UP,enum=WON,enum=LOST"`
	Notes  string `json:"notes,omitempty" jsonschema:"description=Reason for the change"`
}

// Tools exposes the CRM operations the assistant may call.
func Tools(c *Client) []live.Tool {
	return []live.Tool{
		live.NewTool(CreateLeadTool,
			"Create a new lead in the CRM. Returns the lead_id and its status.",
			func(ctx context.Context, args createLeadArgs) (map[string]any, error) {
				resp, err := c.CreateLead(ctx, CreateLeadRequest(args))
				if err != nil {
					return nil, operationError("create lead", err)
				}
				return map[string]any{"lead_id": resp.LeadID, "status": resp.Status}, nil
			}),
		live.NewTool(ScheduleVisitTool,
			"Schedule a property visit for an existing lead.",
			func(ctx context.Context, args scheduleVisitArgs) (map[string]any, error) {
				resp, err := c.ScheduleVisit(ctx, ScheduleVisitRequest(args))
				if err != nil {
					return nil, operationError("schedule visit", err)
				}
				return map[string]any{"visit_id": resp.VisitID, "status": resp.Status}, nil
			}),
		live.NewTool(UpdateLeadStatusTool,
			"Move a lead to another pipeline status, optionally with notes.",
			func(ctx context.Context, args updateLeadStatusArgs) (map[string]any, error) {
				resp, err := c.UpdateLeadStatus(ctx, args.LeadID, UpdateLeadStatusRequest{Status: args.Status, Notes: args.Notes})
				if err != nil {
					return nil, operationError("update lead status", err)
				}
				return map[string]any{"lead_id": resp.LeadID, "status": resp.Status}, nil
			}),
	}
}

func operationError(operation string, err error) error {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("failed to %s: %s", operation, apiErr.Body)
	}
	return fmt.Errorf("failed to %s: %w", operation, err)
}
