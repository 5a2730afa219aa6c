package simulation

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/imamik/fleetboot/internal/bootstrap"
	"github.com/imamik/fleetboot/internal/config"
	"github.com/imamik/fleetboot/internal/election"
	"github.com/imamik/fleetboot/internal/store"
	"github.com/imamik/fleetboot/internal/store/badgerstore"
	"github.com/imamik/fleetboot/internal/util/labels"
	"github.com/imamik/fleetboot/internal/util/retry"
)

var fastPolicy = retry.Policy{Interval: 5 * time.Millisecond, MaxAttempts: 400}

var _ = Describe("Simulated fleet", func() {
	var ctx context.Context

	BeforeEach(func() {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.Background(), 30*time.Second)
		DeferCleanup(cancel)
	})

	Context("with instance ordering", func() {
		It("elects the node launched first and joins the others to it", func() {
			res, err := Run(ctx, Options{Fleet: "demo", Nodes: 3, Stagger: time.Second, Policy: fastPolicy})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Verify()).To(Succeed())

			Expect(res.Reports).To(HaveLen(3))
			first := res.Reports[0]
			Expect(first.Role).To(Equal(election.RoleInitializer))
			Expect(res.Cluster.Initializer()).To(Equal(first.Node))

			for _, rep := range res.Reports[1:] {
				Expect(rep.Role).To(Equal(election.RoleJoiner))
				Expect(rep.LeaderAddress).To(Equal("10.0.0.2"))
				Expect(rep.Fingerprint).To(Equal(first.Fingerprint))
			}
		})

		It("ignores running nodes of other fleets", func() {
			res, err := Run(ctx, Options{Fleet: "demo", Nodes: 4, Outsiders: 2, Policy: fastPolicy})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Verify()).To(Succeed())
			Expect(res.Cluster.Members()).To(HaveLen(4))
		})

		It("can discover the leader through the health registry", func() {
			res, err := Run(ctx, Options{
				Nodes:     5,
				Discovery: config.DiscoveryHealth,
				Policy:    fastPolicy,
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Verify()).To(Succeed())
			Expect(res.RegistryPolls).To(BeNumerically(">=", 4))
		})

		It("boots a single node fleet as initializer", func() {
			res, err := Run(ctx, Options{Nodes: 1, Policy: fastPolicy})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Initializers()).To(HaveLen(1))
			Expect(res.Reports[0].State).To(Equal(bootstrap.StateReady))
		})
	})

	Context("with the versioned lock", func() {
		It("forms exactly one cluster on the in-memory store", func() {
			s := store.NewMemory()
			res, err := Run(ctx, Options{
				Nodes:    8,
				Strategy: election.StrategyVersionedLock,
				Policy:   fastPolicy,
				Store:    s,
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Verify()).To(Succeed())

			Expect(s.Writes("demo/" + store.KeyLock)).To(Equal(8))
			Expect(s.Writes("demo/" + store.KeyToken)).To(Equal(1))
		})

		It("forms exactly one cluster on badger", func() {
			db, err := badgerstore.Open("")
			Expect(err).NotTo(HaveOccurred())
			DeferCleanup(db.Close)

			res, err := Run(ctx, Options{
				Nodes:    4,
				Strategy: election.StrategyVersionedLock,
				Policy:   fastPolicy,
				Store:    db,
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Verify()).To(Succeed())
		})
	})

	It("rejects invalid options", func() {
		_, err := Run(ctx, Options{Nodes: 0})
		Expect(err).To(MatchError(ContainSubstring("nodes must be between")))

		_, err = Run(ctx, Options{Nodes: 2, Strategy: "bully"})
		Expect(err).To(MatchError(election.ErrUnknownStrategy))

		_, err = Run(ctx, Options{Nodes: 2, Discovery: "dns"})
		Expect(err).To(MatchError(ContainSubstring("unknown discovery")))
	})
})

var _ = Describe("Directory", func() {
	It("marks ready nodes healthy and records their role", func() {
		dir := &Directory{}
		n := virtualNode("demo", 0, time.Now())
		dir.Add(n, labels.NewLabelBuilder("demo").Build())

		targets, err := dir.DescribeTargets(context.Background(), "demo")
		Expect(err).NotTo(HaveOccurred())
		Expect(targets).To(HaveLen(1))
		Expect(string(targets[0].Health)).To(Equal("unhealthy"))

		dir.markReady(n.ID, "initializer")
		targets, _ = dir.DescribeTargets(context.Background(), "demo")
		Expect(string(targets[0].Health)).To(Equal("healthy"))
		Expect(dir.Labels(n.ID)).To(HaveKeyWithValue(labels.KeyRole, "initializer"))
		Expect(dir.Labels(n.ID)).To(HaveKeyWithValue(labels.KeyFleet, "demo"))
		Expect(dir.Polls()).To(Equal(2))
	})
})
