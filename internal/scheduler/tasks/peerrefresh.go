// Package tasks registers folio's maintenance jobs with the scheduler.
package tasks

import (
	"context"

	"github.com/folio/folio/internal/scheduler"
)

const PeerRefreshTaskID = "peer-refresh"

// PeerRefresher reloads the federation peer list.
type PeerRefresher interface {
	Refresh(ctx context.Context) error
}

// RegisterPeerRefreshTask reloads peers on cron. An empty cron disables it.
func RegisterPeerRefreshTask(sched *scheduler.Scheduler, peers PeerRefresher, cron string) error {
	if cron == "" || peers == nil {
		return nil
	}
	return sched.RegisterTask(scheduler.TaskConfig{
		ID:          PeerRefreshTaskID,
		Name:        "Peer Refresh",
		Description: "Reloads the federation peer list and snapshots it to the database",
		Cron:        cron,
		RunOnStart:  true,
		Func:        peers.Refresh,
	})
}
