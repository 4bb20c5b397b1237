package plugins

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	"github.com/signalfx/collectd-openstack/neotest"
	"github.com/signalfx/collectd-openstack/pkg/core/config"
)

var _ = Describe("Plugin Manager", func() {
	var manager *Manager
	var writer *neotest.TestWriter
	var getPlugins func(string) []*mockPlugin
	var ctx context.Context
	var cancel context.CancelFunc

	BeforeEach(func() {
		DeregisterAll()
		getPlugins = registerMockPlugins()

		writer = neotest.NewTestWriter()
		manager = NewManager(writer)
		ctx, cancel = context.WithCancel(context.Background())
	})

	AfterEach(func() {
		manager.Shutdown()
		cancel()
	})

	It("Lists registered types", func() {
		Expect(Types()).To(Equal([]string{"mock-badconfig", "mock-failread", "mock-good", "mock-noconnect"}))
	})

	It("Panics on duplicate registration", func() {
		Expect(func() {
			Register("mock-good", func() Plugin { return &mockPlugin{} })
		}).To(Panic())
	})

	It("Starts plugins that configure and connect", func() {
		started := manager.Start(ctx, []config.PluginConfig{
			{Type: "mock-good", Hostname: "collector1"},
			{Type: "mock-badconfig"},
			{Type: "mock-noconnect"},
			{Type: "mock-missing"},
		})
		Expect(started).To(Equal(1))

		good := getPlugins("mock-good")
		Expect(good).To(HaveLen(1))
		Eventually(func() int32 { return good[0].readCalls.Load() }, 2).Should(BeNumerically(">=", 3))
		Expect(good[0].configureCalls.Load()).To(Equal(int32(1)))
		Expect(good[0].connectCalls.Load()).To(Equal(int32(1)))
		Expect(good[0].overlapped.Load()).To(BeFalse())

		vls := writer.WaitForValueLists(3, 2)
		Expect(vls).To(HaveLen(3))
		Expect(vls[0].Host).To(Equal("collector1"))
		Expect(vls[0].Plugin).To(Equal("mock-good"))
		Eventually(writer.Flushes, 2).Should(BeNumerically(">=", 3))

		badConfig := getPlugins("mock-badconfig")
		Expect(badConfig).To(HaveLen(1))
		Expect(badConfig[0].connectCalls.Load()).To(Equal(int32(0)))
		Expect(badConfig[0].readCalls.Load()).To(Equal(int32(0)))

		noConnect := getPlugins("mock-noconnect")
		Expect(noConnect).To(HaveLen(1))
		Consistently(func() int32 { return noConnect[0].readCalls.Load() }, 0.2).Should(Equal(int32(0)))
	})

	It("Counts failed reads", func() {
		Expect(manager.Start(ctx, []config.PluginConfig{{Type: "mock-failread"}})).To(Equal(1))

		failing := getPlugins("mock-failread")
		Eventually(func() int32 { return failing[0].readCalls.Load() }, 2).Should(BeNumerically(">=", 2))

		stats := manager.Stats()
		Expect(stats).To(HaveLen(1))
		Expect(stats[0].Type).To(Equal("mock-failread"))
		Expect(stats[0].ReadFailures).To(BeNumerically(">=", 1))
		Expect(stats[0].SamplesSent).To(Equal(uint64(0)))
	})

	It("Stops reading on shutdown", func() {
		manager.Start(ctx, []config.PluginConfig{{Type: "mock-good"}})
		good := getPlugins("mock-good")
		Eventually(func() int32 { return good[0].readCalls.Load() }, 2).Should(BeNumerically(">=", 1))

		manager.Shutdown()
		// let an in-flight read finish
		time.Sleep(50 * time.Millisecond)
		reads := good[0].readCalls.Load()
		Consistently(func() int32 { return good[0].readCalls.Load() }, 0.2).Should(Equal(reads))
		Expect(manager.Stats()).To(BeEmpty())
	})

	It("Reads every plugin once", func() {
		total, err := manager.ReadOnce(ctx, []config.PluginConfig{
			{Type: "mock-good", IntervalSeconds: 1},
			{Type: "mock-good", IntervalSeconds: 2},
		})
		Expect(err).ToNot(HaveOccurred())
		Expect(total).To(Equal(2))
		Expect(writer.Flushes()).To(Equal(2))

		for _, p := range getPlugins("mock-good") {
			Expect(p.readCalls.Load()).To(Equal(int32(1)))
		}
	})

	It("Reports failures when reading once", func() {
		total, err := manager.ReadOnce(ctx, []config.PluginConfig{
			{Type: "mock-good"},
			{Type: "mock-failread"},
			{Type: "mock-noconnect"},
		})
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("2 of 3"))
		Expect(total).To(Equal(1))
	})
})
