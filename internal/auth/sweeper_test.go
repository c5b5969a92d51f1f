package auth_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/frahmantamala/identity-service/internal/auth"
	"github.com/frahmantamala/identity-service/pkg/logger"
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
)

type countingPurger struct {
	calls atomic.Int32
	err   error
}

func (p *countingPurger) PurgeExpired(context.Context) (int64, error) {
	p.calls.Add(1)
	return 1, p.err
}

var _ = ginkgo.Describe("Sweeper", func() {
	ginkgo.It("purges on every tick until stopped", func() {
		purger := &countingPurger{}
		s := auth.NewSweeper(purger, 5*time.Millisecond, logger.Discard())
		s.Start(context.Background())

		gomega.Eventually(purger.calls.Load).Should(gomega.BeNumerically(">=", 2))
		s.Stop()

		after := purger.calls.Load()
		gomega.Consistently(purger.calls.Load, 30*time.Millisecond).Should(gomega.Equal(after))
	})

	ginkgo.It("keeps running after a failed sweep", func() {
		purger := &countingPurger{err: errors.New("db down")}
		s := auth.NewSweeper(purger, 5*time.Millisecond, logger.Discard())
		s.Start(context.Background())
		defer s.Stop()

		gomega.Eventually(purger.calls.Load).Should(gomega.BeNumerically(">=", 3))
	})

	ginkgo.It("does nothing when the interval is zero", func() {
		purger := &countingPurger{}
		s := auth.NewSweeper(purger, 0, logger.Discard())
		s.Start(context.Background())
		s.Stop()

		gomega.Consistently(purger.calls.Load, 20*time.Millisecond).Should(gomega.BeZero())
	})

	ginkgo.It("survives Start and Stop racing from different goroutines", func() {
		purger := &countingPurger{}
		s := auth.NewSweeper(purger, time.Millisecond, logger.Discard())

		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(2)
			go func() {
				defer wg.Done()
				s.Start(context.Background())
			}()
			go func() {
				defer wg.Done()
				s.Stop()
			}()
		}
		wg.Wait()
		s.Stop()

		after := purger.calls.Load()
		gomega.Consistently(purger.calls.Load, 20*time.Millisecond).Should(gomega.Equal(after))
	})

	ginkgo.It("never starts once stopped", func() {
		purger := &countingPurger{}
		s := auth.NewSweeper(purger, time.Millisecond, logger.Discard())
		s.Stop()
		s.Start(context.Background())

		gomega.Consistently(purger.calls.Load, 20*time.Millisecond).Should(gomega.BeZero())
	})

	ginkgo.It("runs the real purge against the store", func() {
		f := newFixture()
		f.register("sweep@example.com")
		f.clock.Advance(8 * 24 * time.Hour)

		n, err := f.service.PurgeExpired(context.Background())
		gomega.Expect(err).ToNot(gomega.HaveOccurred())
		gomega.Expect(n).To(gomega.Equal(int64(1)))
	})
})
