package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/imamik/fleetboot/internal/config"
	"github.com/imamik/fleetboot/internal/election"
	"github.com/imamik/fleetboot/internal/util/retry"
)

// ErrRoleNeedsLockWrite is returned by the role command for the versioned-lock
// strategy: the role follows from the node's single lock write, which belongs
// to run.
var ErrRoleNeedsLockWrite = errors.New("the versioned-lock role is decided by the node's own lock write; use run")

// RoleOutput is the JSON output of the role command.
type RoleOutput struct {
	Fleet    string `json:"fleet"`
	Node     string `json:"node"`
	Strategy string `json:"strategy"`
	Role     string `json:"role"`
	Leader   string `json:"leader,omitempty"`
}

// Role handles the role command.
func Role(ctx context.Context, configPath string, override func(*config.Config), jsonOutput bool) error {
	cfg, err := loadAndValidate(configPath, override)
	if err != nil {
		return err
	}
	if cfg.Strategy == election.StrategyVersionedLock {
		return ErrRoleNeedsLockWrite
	}
	env, err := setup(ctx, cfg)
	if err != nil {
		return err
	}

	policy := retry.Policy{Interval: cfg.Poll.Interval, MaxAttempts: cfg.Poll.MaxAttempts}
	res, err := retry.Poll(ctx, policy, func(ctx context.Context) (election.Resolution, error) {
		return env.resolver.Resolve(ctx, env.self)
	})
	if err != nil {
		return fmt.Errorf("failed to resolve role of node %s: %w", env.self.ID, err)
	}

	out := RoleOutput{
		Fleet:    cfg.Fleet,
		Node:     env.self.ID,
		Strategy: cfg.Strategy,
		Role:     string(res.Role),
	}
	if res.Leader != nil {
		out.Leader = res.Leader.ID
	}

	if jsonOutput {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}
	fmt.Fprint(stdout, renderRole(out))
	return nil
}
