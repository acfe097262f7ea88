package control_test

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/goalseek/internal/control"
	"github.com/san-kum/goalseek/internal/dynamo"
	"github.com/san-kum/goalseek/internal/logging"
)

const tol = 1e-9

func newSeeker(opts ...control.Option) *control.GoalSeeker {
	opts = append([]control.Option{control.WithLogger(logging.Discard())}, opts...)
	return control.NewGoalSeeker(dynamo.DefaultGains(), opts...)
}

// integrate advances a unicycle pose by one explicit Euler step.
func integrate(p dynamo.Pose, cmd dynamo.Command, dt float64) dynamo.Pose {
	return dynamo.Pose{
		X:     p.X + cmd.Linear*math.Cos(p.Theta)*dt,
		Y:     p.Y + cmd.Linear*math.Sin(p.Theta)*dt,
		Theta: p.Theta + cmd.Angular*dt,
	}
}

var _ = Describe("GoalSeeker", func() {
	var seeker *control.GoalSeeker

	BeforeEach(func() {
		seeker = newSeeker()
	})

	Describe("while idle", func() {
		It("starts disarmed with a closed Done channel", func() {
			Expect(seeker.Armed()).To(BeFalse())
			Expect(seeker.Done()).To(BeClosed())
		})

		It("emits the zero command for any pose without touching the goal", func() {
			for _, p := range []dynamo.Pose{{}, {X: 3, Y: -2, Theta: 7}, {X: -100, Y: 100, Theta: -1}} {
				Expect(seeker.OnPose(p)).To(Equal(dynamo.Command{}))
			}
			g, armed := seeker.Goal()
			Expect(armed).To(BeFalse())
			Expect(g).To(Equal(dynamo.Goal{}))
		})

		It("still records the latest pose", func() {
			seeker.OnPose(dynamo.Pose{X: 1, Y: 2, Theta: 3})
			Expect(seeker.Pose()).To(Equal(dynamo.Pose{X: 1, Y: 2, Theta: 3}))
		})
	})

	Describe("SetGoal", func() {
		It("arms the controller without emitting anything", func() {
			seeker.SetGoal(5, 5)
			Expect(seeker.Armed()).To(BeTrue())
			Expect(seeker.Done()).NotTo(BeClosed())
			g, armed := seeker.Goal()
			Expect(armed).To(BeTrue())
			Expect(g).To(Equal(dynamo.Goal{X: 5, Y: 5}))
		})
	})

	Describe("heading gate", func() {
		It("rotates in place when the goal is off-heading", func() {
			seeker.SetGoal(0, 5)
			d := seeker.Decide(dynamo.Pose{X: 0, Y: 0, Theta: 0})

			Expect(d.Mode).To(Equal(control.ModeRotate))
			Expect(d.Command.Linear).To(BeZero())
			Expect(d.Command.Angular).To(BeNumerically("~", 4.0*math.Pi/2, tol))
			Expect(seeker.Armed()).To(BeTrue())
		})

		It("turns the short way across the ±π seam", func() {
			seeker.SetGoal(-5, -1)
			cmd := seeker.OnPose(dynamo.Pose{X: 0, Y: 0, Theta: math.Pi - 0.05})
			Expect(cmd.Linear).To(BeZero())
			Expect(cmd.Angular).To(BeNumerically(">", 0))
			Expect(cmd.Angular).To(BeNumerically("<", 4.0*0.3))
		})

		It("treats headings in any range as the same direction", func() {
			seeker.SetGoal(0, 5)
			cmd := seeker.OnPose(dynamo.Pose{X: 0, Y: 0, Theta: math.Pi/2 + 6*math.Pi})
			Expect(cmd.Angular).To(BeNumerically("~", 0, tol))
			Expect(cmd.Linear).To(BeNumerically("~", 5.0, tol))
		})
	})

	Describe("settled heading", func() {
		It("translates proportionally to the distance", func() {
			seeker.SetGoal(0, 5)
			d := seeker.Decide(dynamo.Pose{X: 0, Y: 0, Theta: math.Pi / 2})

			Expect(d.Mode).To(Equal(control.ModeTranslate))
			Expect(d.Command.Angular).To(BeZero())
			Expect(d.Command.Linear).To(BeNumerically("~", 5.0, tol))
		})

		It("does not clamp the linear command", func() {
			seeker.SetGoal(1000, 0)
			cmd := seeker.OnPose(dynamo.Pose{})
			Expect(cmd.Linear).To(BeNumerically("~", 1000, tol))
		})
	})

	Describe("arrival", func() {
		var arrived []dynamo.Goal

		BeforeEach(func() {
			arrived = nil
			seeker = newSeeker(control.WithArrivalHook(func(g dynamo.Goal) {
				arrived = append(arrived, g)
			}))
			seeker.SetGoal(5, 5)
		})

		It("stops, disarms and signals exactly once", func() {
			done := seeker.Done()
			d := seeker.Decide(dynamo.Pose{X: 4.95, Y: 4.95, Theta: math.Pi / 4})

			Expect(d.Mode).To(Equal(control.ModeArrived))
			Expect(d.Arrived).To(BeTrue())
			Expect(d.Command).To(Equal(dynamo.Command{}))
			Expect(seeker.Armed()).To(BeFalse())
			Expect(done).To(BeClosed())
			Expect(arrived).To(ConsistOf(dynamo.Goal{X: 5, Y: 5}))

			for i := 0; i < 3; i++ {
				Expect(seeker.OnPose(dynamo.Pose{X: 4.95, Y: 4.95, Theta: math.Pi / 4})).To(Equal(dynamo.Command{}))
			}
			Expect(arrived).To(HaveLen(1))
			Expect(seeker.Arrivals()).To(Equal(1))
		})

		It("rotates first when close but mis-aimed", func() {
			d := seeker.Decide(dynamo.Pose{X: 4.95, Y: 4.95, Theta: -math.Pi / 2})
			Expect(d.Mode).To(Equal(control.ModeRotate))
			Expect(seeker.Armed()).To(BeTrue())
			Expect(arrived).To(BeEmpty())
		})

		It("opens a fresh episode for the next goal", func() {
			seeker.OnPose(dynamo.Pose{X: 4.95, Y: 4.95, Theta: math.Pi / 4})
			seeker.SetGoal(1, 1)
			Expect(seeker.Done()).NotTo(BeClosed())
		})
	})

	Describe("goal replacement", func() {
		It("steers toward the new goal on the very next pose", func() {
			seeker.SetGoal(5, 5)
			seeker.OnPose(dynamo.Pose{X: 3, Y: 3, Theta: math.Pi / 4})
			seeker.SetGoal(1, 1)

			d := seeker.Decide(dynamo.Pose{X: 3, Y: 3, Theta: math.Pi / 4})
			Expect(d.Goal).To(Equal(dynamo.Goal{X: 1, Y: 1}))
			Expect(d.Distance).To(BeNumerically("~", math.Hypot(2, 2), tol))
			Expect(math.Abs(d.AngularError)).To(BeNumerically("~", math.Pi, tol))
			Expect(d.Command.Linear).To(BeZero())
		})

		It("keeps the same Done channel until the final goal is reached", func() {
			seeker.SetGoal(5, 5)
			done := seeker.Done()
			seeker.SetGoal(1, 1)
			Expect(seeker.Done()).To(Equal(done))

			seeker.OnPose(dynamo.Pose{X: 4.95, Y: 4.95, Theta: math.Pi / 4})
			Expect(done).NotTo(BeClosed())

			seeker.OnPose(dynamo.Pose{X: 1.02, Y: 1.02, Theta: -3 * math.Pi / 4})
			Expect(done).To(BeClosed())
		})
	})

	Describe("Wait", func() {
		It("returns once the goal is reached", func() {
			seeker.SetGoal(1, 0)
			go func() {
				defer GinkgoRecover()
				time.Sleep(10 * time.Millisecond)
				seeker.OnPose(dynamo.Pose{X: 0.95})
			}()
			Expect(seeker.Wait(context.Background())).To(Succeed())
		})

		It("honours context cancellation", func() {
			seeker.SetGoal(1, 0)
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
			defer cancel()
			Expect(seeker.Wait(ctx)).To(MatchError(context.DeadlineExceeded))
		})
	})

	Describe("Snapshot", func() {
		It("never mixes two controller states", func() {
			const n = 2000
			done := make(chan struct{})
			go func() {
				defer GinkgoRecover()
				defer close(done)
				for k := 1; k <= n; k++ {
					seeker.SetGoal(float64(k), 0)
					seeker.OnPose(dynamo.Pose{X: float64(k)})
				}
			}()

			for running := true; running; {
				select {
				case <-done:
					running = false
				default:
				}
				snap := seeker.Snapshot()
				want := snap.Goal.X
				if snap.Armed {
					want--
				}
				Expect(snap.Pose.X).To(Equal(want), "snapshot %+v", snap)
				Expect(snap.Arrivals).To(Equal(int(want)), "snapshot %+v", snap)
			}

			snap := seeker.Snapshot()
			Expect(snap.Armed).To(BeFalse())
			Expect(snap.Arrivals).To(Equal(n))
			Expect(snap.Gains).To(Equal(dynamo.DefaultGains()))
		})
	})

	Describe("tuning", func() {
		It("exposes and updates the four constants", func() {
			Expect(seeker.GetParams()).To(HaveKeyWithValue("KAngular", 4.0))
			Expect(seeker.SetParam("KLinear", 2.0)).To(Succeed())
			Expect(seeker.Gains().KLinear).To(Equal(2.0))

			seeker.SetGoal(0, 5)
			cmd := seeker.OnPose(dynamo.Pose{Theta: math.Pi / 2})
			Expect(cmd.Linear).To(BeNumerically("~", 10.0, tol))
		})

		It("rejects unknown names and out-of-bounds values", func() {
			err := seeker.SetParam("Ki", 1)
			Expect(errors.Is(err, dynamo.ErrUnknownParam)).To(BeTrue())
			err = seeker.SetParam("DistanceDeadband", 0)
			Expect(errors.Is(err, dynamo.ErrParameterBounds)).To(BeTrue())
			Expect(seeker.Gains()).To(Equal(dynamo.DefaultGains()))
		})
	})

	Describe("as a dynamo.Controller", func() {
		It("maps [x, y, theta] to [linear, angular]", func() {
			seeker.SetGoal(0, 5)
			u := seeker.Compute(dynamo.State{0, 0, 0}, 0)
			Expect(u).To(HaveLen(2))
			Expect(u[0]).To(BeZero())
			Expect(u[1]).To(BeNumerically("~", 2*math.Pi, tol))
			Expect(seeker.Idle()).To(BeFalse())
		})
	})

	Describe("concurrent producers", func() {
		It("never observes a half-written goal", func() {
			var wg sync.WaitGroup
			ctx, cancel := context.WithCancel(context.Background())

			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := 0; ctx.Err() == nil; i++ {
					v := float64(i%50 + 10)
					seeker.SetGoal(v, v)
				}
			}()

			for i := 0; i < 2000; i++ {
				d := seeker.Decide(dynamo.Pose{Theta: math.Pi / 4})
				if d.Mode != control.ModeIdle {
					Expect(d.Goal.X).To(Equal(d.Goal.Y))
				}
			}
			cancel()
			wg.Wait()
		})
	})

	Describe("closed-loop convergence", func() {
		It("reaches any goal in a bounded workspace without oscillating once settled", func() {
			rng := rand.New(rand.NewSource(42))
			const dt = 0.01
			const maxSteps = 20000

			for trial := 0; trial < 100; trial++ {
				s := newSeeker()
				p := dynamo.Pose{X: rng.Float64() * 11, Y: rng.Float64() * 11, Theta: (rng.Float64() - 0.5) * 4 * math.Pi}
				g := dynamo.Goal{X: rng.Float64() * 11, Y: rng.Float64() * 11}
				s.SetGoal(g.X, g.Y)

				steps := 0
				for ; steps < maxSteps && s.Armed(); steps++ {
					p = integrate(p, s.OnPose(p), dt)
				}
				Expect(s.Armed()).To(BeFalse(), "trial %d from %v to %v did not arrive", trial, p, g)
				Expect(p.DistanceTo(g)).To(BeNumerically("<=", 0.1+1e-9))

				for i := 0; i < 10; i++ {
					Expect(s.OnPose(p)).To(Equal(dynamo.Command{}))
				}
			}
		})
	})
})
