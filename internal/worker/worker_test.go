package worker_test

import (
	"context"
	"errors"
	"sync/atomic"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"planforge.app/anvil/internal/queue"
	"planforge.app/anvil/internal/worker"
)

func publishMessage(attempt int) queue.Message {
	return queue.Message{
		ID:        "1692000000000-0",
		TaskType:  queue.TaskTypePublish,
		SessionID: 500,
		ProjectID: 7,
		Targets:   []string{"wiki", "tracker"},
		Attempt:   attempt,
	}
}

// runUntil starts the worker, waits for the signal channel, then cancels and
// waits for Run to return so state can be inspected without races.
func runUntil(w *worker.Worker, signal <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx)
	}()

	Eventually(signal).Should(BeClosed())
	cancel()
	Eventually(done).Should(Receive())
}

var _ = Describe("Worker", func() {
	var (
		consumer  *mockConsumer
		processor *mockProcessor
	)

	BeforeEach(func() {
		consumer = &mockConsumer{}
		processor = &mockProcessor{}
	})

	// singleMessage delivers one message on the first read, then nothing.
	singleMessage := func(msg queue.Message) func(ctx context.Context) ([]queue.Message, error) {
		var reads int32
		return func(ctx context.Context) ([]queue.Message, error) {
			if atomic.AddInt32(&reads, 1) == 1 {
				return []queue.Message{msg}, nil
			}
			return []queue.Message{}, nil
		}
	}

	Describe("Run", func() {
		It("processes a message and acks it", func() {
			acked := make(chan struct{})
			consumer.readFn = singleMessage(publishMessage(1))
			consumer.ackFn = func(ctx context.Context, msg queue.Message) error {
				close(acked)
				return nil
			}

			w := worker.New(consumer, processor, worker.Config{MaxAttempts: 3})
			runUntil(w, acked)

			Expect(processor.calls).To(Equal(1))
			Expect(consumer.acked).To(ConsistOf("1692000000000-0"))
			Expect(consumer.requeued).To(BeEmpty())
			Expect(consumer.dlqed).To(BeEmpty())
		})

		It("requeues a failed message below max attempts", func() {
			requeued := make(chan struct{})
			consumer.readFn = singleMessage(publishMessage(1))
			consumer.requeueFn = func(ctx context.Context, msg queue.Message, errMsg string) error {
				close(requeued)
				return nil
			}
			processor.processFn = func(ctx context.Context, msg queue.Message) error {
				return errors.New("wiki unavailable")
			}

			w := worker.New(consumer, processor, worker.Config{MaxAttempts: 3})
			runUntil(w, requeued)

			Expect(consumer.requeued).To(ConsistOf("1692000000000-0"))
			Expect(consumer.lastRequeueErr).To(ContainSubstring("wiki unavailable"))
			Expect(consumer.dlqed).To(BeEmpty())
		})

		It("sends a message to the DLQ at max attempts", func() {
			dlqed := make(chan struct{})
			consumer.readFn = singleMessage(publishMessage(3))
			consumer.sendDLQFn = func(ctx context.Context, msg queue.Message, errMsg string) error {
				close(dlqed)
				return nil
			}
			processor.processFn = func(ctx context.Context, msg queue.Message) error {
				return errors.New("wiki unavailable")
			}

			w := worker.New(consumer, processor, worker.Config{MaxAttempts: 3})
			runUntil(w, dlqed)

			Expect(consumer.dlqed).To(ConsistOf("1692000000000-0"))
			Expect(consumer.lastDLQErr).To(ContainSubstring("wiki unavailable"))
			Expect(consumer.requeued).To(BeEmpty())
		})

		It("recovers from a processor panic and retries the message", func() {
			requeued := make(chan struct{})
			consumer.readFn = singleMessage(publishMessage(1))
			consumer.requeueFn = func(ctx context.Context, msg queue.Message, errMsg string) error {
				close(requeued)
				return nil
			}
			processor.processFn = func(ctx context.Context, msg queue.Message) error {
				panic("nil checklist")
			}

			w := worker.New(consumer, processor, worker.Config{MaxAttempts: 3})
			runUntil(w, requeued)

			Expect(consumer.requeued).To(ConsistOf("1692000000000-0"))
			Expect(consumer.lastRequeueErr).To(ContainSubstring("panic"))
		})
	})

	Describe("ProcessMessage", func() {
		It("acks after successful processing", func() {
			w := worker.New(consumer, processor, worker.Config{MaxAttempts: 3})

			err := w.ProcessMessage(context.Background(), publishMessage(1))

			Expect(err).NotTo(HaveOccurred())
			Expect(processor.calls).To(Equal(1))
			Expect(consumer.acked).To(HaveLen(1))
		})

		It("returns the processor error without acking", func() {
			processor.processFn = func(ctx context.Context, msg queue.Message) error {
				return errors.New("tracker rejected task")
			}
			w := worker.New(consumer, processor, worker.Config{MaxAttempts: 3})

			err := w.ProcessMessage(context.Background(), publishMessage(1))

			Expect(err).To(MatchError(ContainSubstring("tracker rejected task")))
			Expect(consumer.acked).To(BeEmpty())
		})
	})
})
