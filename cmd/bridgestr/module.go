package main

import (
	"github.com/reusee/bridgestr/debugs"
	"github.com/reusee/bridgestr/scripts"
	"github.com/reusee/dscope"
)

type Module struct {
	dscope.Module
	Scripts scripts.Module
	Debugs  debugs.Module
}
