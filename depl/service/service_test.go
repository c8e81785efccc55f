package service_test

import (
	"context"
	"testing"

	"golang.org/x/xerrors"
	gc "gopkg.in/check.v1"

	"github.com/0xEigenLabs/eigen-estark-gevulot/depl/service"
)

var _ = gc.Suite(new(GroupTestSuite))

func Test(t *testing.T) {
	// Run all gocheck test-suites
	gc.TestingT(t)
}

type GroupTestSuite struct{}

type funcService struct {
	name string
	run  func(context.Context) error
}

func (s funcService) Name() string                  { return s.name }
func (s funcService) Run(ctx context.Context) error { return s.run(ctx) }

func (s *GroupTestSuite) TestFinishedServiceStopsTheRest(c *gc.C) {
	var serverStopped bool
	group := service.Group{
		funcService{name: "server", run: func(ctx context.Context) error {
			<-ctx.Done()
			serverStopped = true
			return nil
		}},
		funcService{name: "job", run: func(context.Context) error { return nil }},
	}

	c.Assert(group.Run(context.TODO()), gc.IsNil)
	c.Assert(serverStopped, gc.Equals, true)
}

func (s *GroupTestSuite) TestErrorsAreCollected(c *gc.C) {
	errJob := xerrors.New("job failed")
	group := service.Group{
		funcService{name: "server", run: func(ctx context.Context) error {
			<-ctx.Done()
			return xerrors.New("listener closed")
		}},
		funcService{name: "job", run: func(context.Context) error { return errJob }},
	}

	err := group.Run(context.TODO())
	c.Assert(err, gc.ErrorMatches, "(?ms).*job: job failed.*")
	c.Assert(err, gc.ErrorMatches, "(?ms).*server: listener closed.*")
	c.Assert(xerrors.Is(err, errJob), gc.Equals, true)
}

func (s *GroupTestSuite) TestParentCancellation(c *gc.C) {
	ctx, cancelFn := context.WithCancel(context.Background())
	cancelFn()

	group := service.Group{
		funcService{name: "server", run: func(ctx context.Context) error {
			<-ctx.Done()
			return nil
		}},
	}
	c.Assert(group.Run(ctx), gc.IsNil)
}
