package debugs

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"sync/atomic"

	"github.com/reusee/bridgestr/logs"
	"github.com/reusee/bridgestr/scripts"
	"github.com/reusee/bridgestr/vars"
	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// Tap runs a Starlark REPL over globals with the bridge builtins predeclared.
// Each chunk of input is indexed as its own source file, so functions defined
// at the prompt can be passed to bridge_string. It returns when the input ends
// or ctx is done.
type Tap func(ctx context.Context, what string, globals map[string]any)

// TapIO is where the REPL reads input and writes prompts, results and errors.
type TapIO struct {
	In  io.Reader
	Out io.Writer
}

func (Module) TapIO() TapIO {
	return TapIO{
		In:  os.Stdin,
		Out: os.Stdout,
	}
}

var chunkSerial atomic.Int64

func (Module) Tap(
	logger logs.Logger,
	predeclared scripts.Predeclared,
	sources *scripts.Sources,
	tapIO TapIO,
) Tap {
	return func(ctx context.Context, what string, globals map[string]any) {
		what = vars.FirstNonZero(what, "tap")
		logger.InfoContext(ctx, "tap: "+what,
			"globals", slices.Sorted(maps.Keys(globals)),
		)
		defer func() {
			logger.InfoContext(ctx, "tap end: "+what)
		}()

		out := tapIO.Out
		thread := &starlark.Thread{
			Name: what,
			Print: func(_ *starlark.Thread, msg string) {
				fmt.Fprintln(out, msg)
			},
		}
		stop := context.AfterFunc(ctx, func() {
			thread.Cancel(context.Cause(ctx).Error())
		})
		defer stop()

		env := predeclared(globals)
		input := bufio.NewReader(tapIO.In)
		for ctx.Err() == nil {
			filename := fmt.Sprintf("<%s:%d>", what, chunkSerial.Add(1))

			var chunk bytes.Buffer
			var inputErr error
			prompt := ">>> "
			readline := func() ([]byte, error) {
				fmt.Fprint(out, prompt)
				prompt = "... "
				line, err := input.ReadBytes('\n')
				if err != nil && len(line) == 0 {
					inputErr = err
					return nil, err
				}
				if line[len(line)-1] != '\n' {
					line = append(line, '\n')
				}
				chunk.Write(line)
				return line, nil
			}

			file, err := scripts.FileOptions.ParseCompoundStmt(filename, readline)
			if inputErr != nil {
				if !errors.Is(inputErr, io.EOF) {
					logger.ErrorContext(ctx, "tap input", "err", inputErr)
				}
				fmt.Fprintln(out)
				return
			}
			if err != nil {
				fmt.Fprintln(out, err)
				continue
			}
			sources.Add(file, bytes.Clone(chunk.Bytes()))

			if err := evalChunk(thread, file, env, out); err != nil {
				var evalErr *starlark.EvalError
				if errors.As(err, &evalErr) {
					fmt.Fprintln(out, evalErr.Backtrace())
				} else {
					fmt.Fprintln(out, err)
				}
			}
		}
	}
}

// evalChunk prints the value of a sole expression and executes anything else.
func evalChunk(thread *starlark.Thread, file *syntax.File, env starlark.StringDict, out io.Writer) error {
	if len(file.Stmts) == 1 {
		if stmt, ok := file.Stmts[0].(*syntax.ExprStmt); ok {
			value, err := starlark.EvalExprOptions(scripts.FileOptions, thread, stmt.X, env)
			if err != nil {
				return err
			}
			if value != starlark.None {
				fmt.Fprintln(out, value)
			}
			return nil
		}
	}
	return starlark.ExecREPLChunk(file, thread, env)
}
