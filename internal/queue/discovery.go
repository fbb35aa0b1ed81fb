package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lattice-intel/lattice/pkg/discovery"
	"github.com/lattice-intel/lattice/pkg/logger"
)

// ProcessDiscoveryMessage runs one discovery job. Malformed jobs fail
// permanently; run errors are returned so the caller can retry the delivery.
// A partial run has already invalidated caches for what it committed.
func ProcessDiscoveryMessage(ctx context.Context, disc *discovery.Discoverer, body string) error {
	var job DiscoveryJob
	if err := json.Unmarshal([]byte(body), &job); err != nil {
		return fmt.Errorf("decode discovery job: %w", err)
	}
	if job.Scope == "" {
		return errors.New("discovery job missing scope")
	}

	res, err := disc.Run(ctx, job.Scope, job.Since)
	if err != nil {
		logger.Error("[Worker] Discovery job failed",
			"scope", job.Scope,
			"created", res.Created,
			"updated", res.Updated,
			"err", err,
		)
		return fmt.Errorf("discovery run for scope %s: %w", job.Scope, err)
	}

	logger.Info("[Worker] Discovery job finished",
		"scope", job.Scope,
		"created", res.Created,
		"updated", res.Updated,
		"candidates", res.Candidates,
	)
	return nil
}
