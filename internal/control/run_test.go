package control_test

import (
	"context"
	"math"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/goalseek/internal/control"
	"github.com/san-kum/goalseek/internal/dynamo"
)

var _ = Describe("Run", func() {
	var (
		seeker *control.GoalSeeker
		poses  chan dynamo.Pose
		goals  chan dynamo.Goal
		cmds   chan dynamo.Command
		errc   chan error
		exited chan struct{}
		cancel context.CancelFunc
	)

	BeforeEach(func() {
		var ctx context.Context
		ctx, cancel = context.WithCancel(context.Background())
		seeker = newSeeker()
		poses = make(chan dynamo.Pose)
		goals = make(chan dynamo.Goal)
		cmds = make(chan dynamo.Command, 1)
		errc = make(chan error, 1)
		exited = make(chan struct{})

		c, p, g, out, res, done := seeker, poses, goals, cmds, errc, exited
		go func() {
			defer close(done)
			res <- control.Run(ctx, c, p, g, out)
		}()
	})

	AfterEach(func() {
		cancel()
		Eventually(exited).Should(BeClosed())
	})

	It("answers every pose with exactly one command", func() {
		for i := 0; i < 5; i++ {
			poses <- dynamo.Pose{}
			Eventually(cmds).Should(Receive(Equal(dynamo.Command{})))
		}
		Consistently(cmds, 20*time.Millisecond).ShouldNot(Receive())
	})

	It("arms on a goal message and steers on the next pose", func() {
		goals <- dynamo.Goal{X: 0, Y: 5}
		poses <- dynamo.Pose{}

		var cmd dynamo.Command
		Eventually(cmds).Should(Receive(&cmd))
		Expect(cmd.Linear).To(BeZero())
		Expect(cmd.Angular).To(BeNumerically("~", 2*math.Pi, 1e-9))
	})

	It("returns nil when the pose stream closes", func() {
		close(poses)
		Eventually(errc).Should(Receive(BeNil()))
	})

	It("keeps running after the goal stream closes", func() {
		close(goals)
		poses <- dynamo.Pose{}
		Eventually(cmds).Should(Receive())
	})

	It("returns the context error on cancellation", func() {
		cancel()
		Eventually(errc).Should(Receive(MatchError(context.Canceled)))
	})

	It("exits once cancelled even with a command pending", func() {
		goals <- dynamo.Goal{X: 3, Y: 0}
		poses <- dynamo.Pose{}
		poses <- dynamo.Pose{}
		cancel()
		Eventually(exited).Should(BeClosed())
		Expect(errc).To(Receive(MatchError(context.Canceled)))
	})
})
