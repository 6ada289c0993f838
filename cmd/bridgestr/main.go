package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/reusee/bridgestr/cmds"
	"github.com/reusee/bridgestr/debugs"
	"github.com/reusee/bridgestr/logs"
	"github.com/reusee/bridgestr/modes"
	"github.com/reusee/bridgestr/scripts"
	"github.com/reusee/dscope"
	"github.com/reusee/e5"
	"golang.org/x/term"
)

var (
	fileFlag    = cmds.Var[string]("-file")
	globalNames = cmds.Collect[string]("-global")
	replFlag    = cmds.Switch("-repl")

	wrap = e5.Wrap.With(e5.WrapStacktrace)
)

func main() {
	cmds.Execute(os.Args[1:])
	ctx := context.Background()

	dscope.New(
		new(Module),
		modes.ForProduction(),
	).Call(func(
		logger logs.Logger,
		exec scripts.Exec,
		encode scripts.Encode,
		tap debugs.Tap,
	) {

		filename, src, err := readScript()
		ce(err)

		globals, err := exec(ctx, filename, src, nil)
		ce(err)

		value, err := selectGlobals(globals, *globalNames)
		ce(err)
		str, err := encode(value)
		ce(err)
		fmt.Println(str)

		if *replFlag {
			if !term.IsTerminal(int(os.Stdin.Fd())) {
				logger.WarnContext(ctx, "stdin is not a terminal, skip repl")
				return
			}
			tap(ctx, filename, hostGlobals(globals))
		}

	})
}

func readScript() (string, []byte, error) {
	if *fileFlag != "" {
		src, err := os.ReadFile(*fileFlag)
		if err != nil {
			return "", nil, wrap(err)
		}
		return *fileFlag, src, nil
	}
	if term.IsTerminal(int(os.Stdin.Fd())) {
		cmds.PrintUsage()
		os.Exit(2)
	}
	src, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", nil, wrap(err)
	}
	return "<stdin>", src, nil
}

func ce(err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, wrap(err))
		os.Exit(1)
	}
}
