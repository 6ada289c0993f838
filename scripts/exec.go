package scripts

import (
	"context"

	"github.com/reusee/bridgestr/logs"
	"go.starlark.net/starlark"
)

// Exec runs a script and returns its globals. Functions it defines can be
// encoded with their source text afterwards.
type Exec func(ctx context.Context, filename string, src []byte, globals map[string]any) (starlark.StringDict, error)

func (Module) Exec(
	logger logs.Logger,
	newSpan logs.NewSpan,
	sources *Sources,
	predeclared Predeclared,
) Exec {
	return func(ctx context.Context, filename string, src []byte, globals map[string]any) (ret starlark.StringDict, err error) {
		ctx, _ = newSpan(ctx, "")
		defer func() {
			err = logs.WrapSpan(ctx, err)
		}()

		names := predeclared(globals)
		file, program, err := starlark.SourceProgramOptions(FileOptions, filename, src, names.Has)
		if err != nil {
			return nil, err
		}
		sources.Add(file, src)

		thread := &starlark.Thread{
			Name: filename,
			Print: func(_ *starlark.Thread, msg string) {
				logger.InfoContext(ctx, "print",
					"script", filename,
					"msg", msg,
				)
			},
		}
		stop := context.AfterFunc(ctx, func() {
			thread.Cancel(context.Cause(ctx).Error())
		})
		defer stop()

		logger.DebugContext(ctx, "exec",
			"script", filename,
		)
		return program.Init(thread, names)
	}
}
