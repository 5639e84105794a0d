package pipeline_test

import (
	"context"
	"fmt"

	"github.com/vnykmshr/pipework/pkg/pipeline"
	"github.com/vnykmshr/pipework/pkg/queue"
)

func ExampleNew() {
	nums := queue.New[int](4)
	doubled := queue.New[int](4)

	p := pipeline.New()

	p.AddStage("produce", func(ctx context.Context) error {
		for i := 1; i <= 3; i++ {
			if err := nums.Send(ctx, i); err != nil {
				return err
			}
		}
		return nil
	}, pipeline.WithOutputs(nums))

	p.AddStage("double", func(ctx context.Context) error {
		for {
			v, err := nums.Receive(ctx)
			if err != nil {
				return nil
			}
			if err := doubled.Send(ctx, v*2); err != nil {
				return err
			}
		}
	}, pipeline.WithInputs(nums), pipeline.WithOutputs(doubled))

	p.AddStage("print", func(ctx context.Context) error {
		for {
			v, err := doubled.Receive(ctx)
			if err != nil {
				return nil
			}
			fmt.Println(v)
		}
	}, pipeline.WithInputs(doubled))

	result := p.Run(context.Background())
	fmt.Println(result.State)

	// Output:
	// 2
	// 4
	// 6
	// completed
}
