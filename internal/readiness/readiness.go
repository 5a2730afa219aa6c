// Package readiness checks that the local node registered with the cluster
// and reports Ready.
package readiness

import (
	"context"
	"errors"
	"fmt"
	"time"

	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/tools/clientcmd"
)

// ErrNotReady is returned while the node is missing or not Ready.
var ErrNotReady = errors.New("node is not ready")

// NodeChecker checks the Ready condition of one Kubernetes node.
type NodeChecker struct {
	Client   kubernetes.Interface
	NodeName string
}

// NewFromKubeconfig builds a checker from a kubeconfig file. The file may
// not exist before the runtime finished installing, so the client is built
// lazily by the returned function.
func NewFromKubeconfig(path, nodeName string) func() (*NodeChecker, error) {
	return func() (*NodeChecker, error) {
		cfg, err := clientcmd.BuildConfigFromFlags("", path)
		if err != nil {
			return nil, fmt.Errorf("failed to load kubeconfig: %w", err)
		}
		cfg.Timeout = 10 * time.Second
		cs, err := kubernetes.NewForConfig(cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create kubernetes client: %w", err)
		}
		return &NodeChecker{Client: cs, NodeName: nodeName}, nil
	}
}

// Check makes one attempt. It returns nil once the node is Ready.
func (c *NodeChecker) Check(ctx context.Context) error {
	n, err := c.Client.CoreV1().Nodes().Get(ctx, c.NodeName, metav1.GetOptions{})
	if apierrors.IsNotFound(err) {
		return fmt.Errorf("%w: node %s not registered yet", ErrNotReady, c.NodeName)
	}
	if err != nil {
		return fmt.Errorf("failed to get node %s: %w", c.NodeName, err)
	}
	if !IsReady(n) {
		return fmt.Errorf("%w: %s", ErrNotReady, c.NodeName)
	}
	return nil
}

// IsReady reports whether the node has condition Ready=True.
func IsReady(n *corev1.Node) bool {
	for _, cond := range n.Status.Conditions {
		if cond.Type == corev1.NodeReady {
			return cond.Status == corev1.ConditionTrue
		}
	}
	return false
}

// Lazy builds its NodeChecker on the first Check that can create one.
type Lazy struct {
	New func() (*NodeChecker, error)

	checker *NodeChecker
}

// Check implements the bootstrap readiness hook.
func (l *Lazy) Check(ctx context.Context) error {
	if l.checker == nil {
		c, err := l.New()
		if err != nil {
			return err
		}
		l.checker = c
	}
	return l.checker.Check(ctx)
}
