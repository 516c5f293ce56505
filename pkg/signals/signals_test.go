package signals

import (
	"context"
	"syscall"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("signals", func() {
	BeforeEach(func() {
		signalHandlersMutex.Lock()
		interrupted = false
		signalHandlersMutex.Unlock()
	})

	It("runs termination handlers newest first", func() {
		var order []string
		RegisterGracefulTerminationHandler(func() { order = append(order, "server") })
		RegisterGracefulTerminationHandler(func() { order = append(order, "generator") })

		runHandlers()
		Expect(order).To(ContainElements("generator", "server"))
		Expect(order[len(order)-2:]).To(Equal([]string{"generator", "server"}))
	})

	It("only cancels running work on the first signal", func() {
		ctx, stop := NotifyContext(context.Background())
		defer stop()

		Expect(handle(syscall.SIGINT)).To(BeFalse())
		Eventually(ctx.Done()).Should(BeClosed())
		Expect(ctx.Err()).To(MatchError(context.Canceled))

		Expect(handle(syscall.SIGINT)).To(BeTrue())
	})

	It("exits when nothing is running", func() {
		_, stop := NotifyContext(context.Background())
		stop()

		Expect(handle(syscall.SIGTERM)).To(BeTrue())
	})
})
