/*
Package schedule fires pipeline jobs on cron expressions.

Pipelines are one-shot, so a recurring workload registers a job that builds
and runs a fresh pipeline per firing:

	r := schedule.New()
	err := r.Add("hourly-report", "@hourly", func(ctx context.Context) error {
		p := buildReportPipeline()
		result := p.Run(ctx)
		return result.Err
	})
	if err != nil {
		return err
	}
	r.Start()
	defer r.Stop(context.Background())

Expressions use the standard five-field cron format plus descriptors such
as "@daily" and "@every 30s". By default a firing is skipped while the
previous execution of the same job is still running, so a slow pipeline
never stacks up behind itself.

Stop cancels the context passed to running jobs and waits for them to
finish, bounded by the caller's context.
*/
package schedule
