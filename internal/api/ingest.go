package api

import (
	"context"

	"docqa/internal/workflows"

	enumspb "go.temporal.io/api/enums/v1"
	tclient "go.temporal.io/sdk/client"
)

// TemporalIngest starts ingest workflows on the worker task queue.
type TemporalIngest struct {
	client    tclient.Client
	taskQueue string
}

func NewTemporalIngest(c tclient.Client, taskQueue string) *TemporalIngest {
	return &TemporalIngest{client: c, taskQueue: taskQueue}
}

func (t *TemporalIngest) StartIngest(ctx context.Context, documentID, path string) (string, error) {
	we, err := t.client.ExecuteWorkflow(ctx, tclient.StartWorkflowOptions{
		ID:                    workflows.IngestWorkflowID(documentID),
		TaskQueue:             t.taskQueue,
		WorkflowIDReusePolicy: enumspb.WORKFLOW_ID_REUSE_POLICY_ALLOW_DUPLICATE,
	}, workflows.DocumentIngestWorkflow, workflows.DocumentIngestInput{
		DocumentID: documentID,
		Path:       path,
	})
	if err != nil {
		return "", err
	}
	return we.GetRunID(), nil
}

func (t *TemporalIngest) StartBackfill(ctx context.Context) (string, error) {
	we, err := t.client.ExecuteWorkflow(ctx, tclient.StartWorkflowOptions{
		ID:                                       "ingest-backfill",
		TaskQueue:                                t.taskQueue,
		WorkflowIDReusePolicy:                    enumspb.WORKFLOW_ID_REUSE_POLICY_ALLOW_DUPLICATE,
		WorkflowExecutionErrorWhenAlreadyStarted: true,
	}, workflows.BackfillWorkflow, workflows.BackfillInput{MaxConcurrentChildren: 3})
	if err != nil {
		return "", err
	}
	return we.GetRunID(), nil
}
